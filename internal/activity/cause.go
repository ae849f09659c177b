package activity

import "github.com/google/uuid"

// Cause is the attributed origin of an activity.
//
// This is a sealed interface - only types in this package implement it.
// Exactly one cause column is populated per stored activity; the concrete
// type selects which one.
//
// Cause types:
//   - NamedCause: free-text label ("lava", "tnt")
//   - PlayerCause: a player
//   - EntityCause: an entity type
//   - BlockCause: a block state
type Cause interface {
	causeNode()
	// Label is the display form used in lookups.
	Label() string
}

// CauseKind names a cause discriminant.
type CauseKind int

const (
	CauseNone CauseKind = iota
	CauseNamed
	CausePlayer
	CauseEntity
	CauseBlock
)

func (k CauseKind) String() string {
	switch k {
	case CauseNamed:
		return "named"
	case CausePlayer:
		return "player"
	case CauseEntity:
		return "entity"
	case CauseBlock:
		return "block"
	default:
		return "none"
	}
}

// KindOf returns the discriminant of c. A nil cause is CauseNone.
func KindOf(c Cause) CauseKind {
	switch c.(type) {
	case NamedCause, *NamedCause:
		return CauseNamed
	case PlayerCause, *PlayerCause:
		return CausePlayer
	case EntityCause, *EntityCause:
		return CauseEntity
	case BlockCause, *BlockCause:
		return CauseBlock
	default:
		return CauseNone
	}
}

// NamedCause is a free-text cause.
type NamedCause struct {
	Name string
}

func (NamedCause) causeNode()       {}
func (c NamedCause) Label() string { return c.Name }

// PlayerCause attributes an activity to a player.
type PlayerCause struct {
	UUID uuid.UUID
	Name string
}

func (PlayerCause) causeNode()       {}
func (c PlayerCause) Label() string { return c.Name }

// Player returns the cause as a Player value.
func (c PlayerCause) Player() Player {
	return Player{UUID: c.UUID, Name: c.Name}
}

// EntityCause attributes an activity to an entity type.
type EntityCause struct {
	Type           string
	TranslationKey string
}

func (EntityCause) causeNode()       {}
func (c EntityCause) Label() string { return c.Type }

// EntityType returns the cause as an EntityType value.
func (c EntityCause) EntityType() EntityType {
	return EntityType{Type: c.Type, TranslationKey: c.TranslationKey}
}

// BlockCause attributes an activity to a block.
type BlockCause struct {
	Namespace      string
	Name           string
	Data           string
	TranslationKey string
}

func (BlockCause) causeNode()       {}
func (c BlockCause) Label() string { return c.Name }

// Block returns the cause as a Block value.
func (c BlockCause) Block() Block {
	return Block{Namespace: c.Namespace, Name: c.Name, Data: c.Data, TranslationKey: c.TranslationKey}
}

// Normalize dereferences pointer causes so callers can switch on value types.
func Normalize(c Cause) Cause {
	switch v := c.(type) {
	case *NamedCause:
		if v == nil {
			return nil
		}
		return *v
	case *PlayerCause:
		if v == nil {
			return nil
		}
		return *v
	case *EntityCause:
		if v == nil {
			return nil
		}
		return *v
	case *BlockCause:
		if v == nil {
			return nil
		}
		return *v
	}
	return c
}
