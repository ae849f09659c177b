package testutil

import (
	"github.com/google/uuid"

	"github.com/roach88/prism/internal/activity"
)

// Fixed identities shared by tests.
var (
	Overworld = activity.World{UUID: uuid.MustParse("00000000-0000-4000-8000-000000000001"), Name: "world"}
	Nether    = activity.World{UUID: uuid.MustParse("00000000-0000-4000-8000-000000000002"), Name: "world_nether"}

	Alex  = activity.Player{UUID: uuid.MustParse("00000000-0000-4000-8000-00000000a1e0"), Name: "Alex"}
	Steve = activity.Player{UUID: uuid.MustParse("00000000-0000-4000-8000-00000000057e"), Name: "Steve"}
)

// Stone is a plain ordinary block.
func Stone() *activity.Block {
	return &activity.Block{Namespace: activity.DefaultNamespace, Name: "stone", TranslationKey: "block.minecraft.stone"}
}

// BlockNamed returns a block in the default namespace.
func BlockNamed(name string) *activity.Block {
	return &activity.Block{Namespace: activity.DefaultNamespace, Name: name}
}

// BlockBreak builds a block-break activity by p at (x, y, z) in the overworld.
func BlockBreak(p activity.Player, b *activity.Block, x, y, z int, ts int64) *activity.Activity {
	return &activity.Activity{
		Timestamp:  ts,
		World:      Overworld,
		Coordinate: activity.Coordinate{X: x, Y: y, Z: z},
		Action:     "block-break",
		Block:      b,
		Cause:      activity.PlayerCause{UUID: p.UUID, Name: p.Name},
		Descriptor: b.Name,
	}
}

// BlockPlace builds a block-place activity that replaced air.
func BlockPlace(p activity.Player, b *activity.Block, x, y, z int, ts int64) *activity.Activity {
	return &activity.Activity{
		Timestamp:     ts,
		World:         Overworld,
		Coordinate:    activity.Coordinate{X: x, Y: y, Z: z},
		Action:        "block-place",
		Block:         b,
		ReplacedBlock: BlockNamed("air"),
		Cause:         activity.PlayerCause{UUID: p.UUID, Name: p.Name},
		Descriptor:    b.Name,
	}
}

// ItemDrop builds an item-drop activity with a named cause.
func ItemDrop(material string, qty, x, y, z int, ts int64) *activity.Activity {
	return &activity.Activity{
		Timestamp:    ts,
		World:        Overworld,
		Coordinate:   activity.Coordinate{X: x, Y: y, Z: z},
		Action:       "item-drop",
		Item:         &activity.Item{Material: material},
		ItemQuantity: qty,
		Cause:        activity.NamedCause{Name: "hopper"},
		Descriptor:   material,
	}
}

// EntityKill builds an entity-kill activity caused by another entity type.
func EntityKill(victim, killer string, x, y, z int, ts int64) *activity.Activity {
	return &activity.Activity{
		Timestamp:  ts,
		World:      Overworld,
		Coordinate: activity.Coordinate{X: x, Y: y, Z: z},
		Action:     "entity-kill",
		EntityType: &activity.EntityType{Type: victim},
		Cause:      activity.EntityCause{Type: killer},
		Descriptor: victim,
		CustomData: &activity.CustomData{Version: 1, Data: `{"health":20}`},
	}
}
