package activity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultNamespace is assumed for block names given without a namespace.
const DefaultNamespace = "minecraft"

// Coordinate is an integer block position.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%d %d %d", c.X, c.Y, c.Z)
}

// World identifies the world an activity happened in.
// The UUID is the natural key; Name is refreshed when it changes.
type World struct {
	UUID uuid.UUID `json:"uuid"`
	Name string    `json:"name"`
}

// Player identifies a player by UUID. Name is refreshed when it changes.
type Player struct {
	UUID uuid.UUID `json:"uuid"`
	Name string    `json:"name"`
}

// Block is a block state. Namespace, Name and Data form the natural key.
// Data is the serialized block-state payload (e.g. "[facing=north]").
type Block struct {
	Namespace      string `json:"namespace"`
	Name           string `json:"name"`
	Data           string `json:"data,omitempty"`
	TranslationKey string `json:"translation_key,omitempty"`
}

// ParseBlockName splits "ns:name" into its parts, defaulting the namespace.
func ParseBlockName(s string) (namespace, name string) {
	if ns, n, ok := strings.Cut(s, ":"); ok {
		return ns, n
	}
	return DefaultNamespace, s
}

// QualifiedName returns "namespace:name".
func (b Block) QualifiedName() string {
	ns := b.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return ns + ":" + b.Name
}

// EntityType is an entity kind such as "zombie".
type EntityType struct {
	Type           string `json:"type"`
	TranslationKey string `json:"translation_key,omitempty"`
}

// Item is an item stack type. Material and Data form the natural key.
type Item struct {
	Material string `json:"material"`
	Data     string `json:"data,omitempty"`
}

// CustomData is a versioned opaque payload needed to reverse an activity
// (entity snapshots, container contents).
type CustomData struct {
	Version int    `json:"version"`
	Data    string `json:"data"`
}

// Activity is one recorded world event.
//
// ID is assigned by the store. Optional references are nil when absent.
// Cause is required for writes; a nil Cause is stored with no cause columns set.
type Activity struct {
	ID         int64      `json:"id,omitempty"`
	Timestamp  int64      `json:"timestamp"`
	World      World      `json:"world"`
	Coordinate Coordinate `json:"coordinate"`
	Action     string     `json:"action"`

	Item          *Item       `json:"item,omitempty"`
	ItemQuantity  int         `json:"item_quantity,omitempty"`
	Block         *Block      `json:"block,omitempty"`
	ReplacedBlock *Block      `json:"replaced_block,omitempty"`
	EntityType    *EntityType `json:"entity_type,omitempty"`
	Player        *Player     `json:"player,omitempty"`

	Cause      Cause       `json:"-"`
	Descriptor string      `json:"descriptor,omitempty"`
	Metadata   any         `json:"metadata,omitempty"`
	CustomData *CustomData `json:"custom_data,omitempty"`
	Reversed   bool        `json:"reversed"`
}

func (*Activity) recordNode() {}
