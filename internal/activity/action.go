package activity

import (
	"sort"
	"sync"
)

// Family groups action types by the kind of object they affect.
type Family string

const (
	FamilyBlock   Family = "block"
	FamilyItem    Family = "item"
	FamilyEntity  Family = "entity"
	FamilyPlayer  Family = "player"
	FamilyGeneric Family = "generic"
)

// ActionType describes a registered action key.
type ActionType struct {
	Key        string
	Family     Family
	Reversible bool
}

// ActionTypeRegistry maps action keys to their types.
// Safe for concurrent use.
type ActionTypeRegistry struct {
	mu    sync.RWMutex
	types map[string]ActionType
}

// NewActionTypeRegistry creates a registry holding the given types.
func NewActionTypeRegistry(types ...ActionType) *ActionTypeRegistry {
	r := &ActionTypeRegistry{types: make(map[string]ActionType, len(types))}
	for _, t := range types {
		r.types[t.Key] = t
	}
	return r
}

// Register adds or replaces an action type.
func (r *ActionTypeRegistry) Register(t ActionType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.Key] = t
}

// Get returns the action type for key.
func (r *ActionTypeRegistry) Get(key string) (ActionType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[key]
	return t, ok
}

// Keys returns all registered keys in sorted order.
func (r *ActionTypeRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.types))
	for k := range r.types {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultActionTypes returns the built-in action types.
func DefaultActionTypes() []ActionType {
	return []ActionType{
		{Key: "block-break", Family: FamilyBlock, Reversible: true},
		{Key: "block-burn", Family: FamilyBlock, Reversible: true},
		{Key: "block-explode", Family: FamilyBlock, Reversible: true},
		{Key: "block-fade", Family: FamilyBlock, Reversible: true},
		{Key: "block-form", Family: FamilyBlock, Reversible: true},
		{Key: "block-ignite", Family: FamilyBlock, Reversible: true},
		{Key: "block-place", Family: FamilyBlock, Reversible: true},
		{Key: "block-spread", Family: FamilyBlock, Reversible: true},
		{Key: "block-use", Family: FamilyBlock, Reversible: false},
		{Key: "bucket-empty", Family: FamilyBlock, Reversible: true},
		{Key: "bucket-fill", Family: FamilyBlock, Reversible: true},
		{Key: "fluid-flow", Family: FamilyBlock, Reversible: true},
		{Key: "entity-kill", Family: FamilyEntity, Reversible: true},
		{Key: "entity-remove", Family: FamilyEntity, Reversible: true},
		{Key: "entity-spawn", Family: FamilyEntity, Reversible: false},
		{Key: "hanging-break", Family: FamilyEntity, Reversible: true},
		{Key: "hanging-place", Family: FamilyEntity, Reversible: true},
		{Key: "item-drop", Family: FamilyItem, Reversible: true},
		{Key: "item-insert", Family: FamilyItem, Reversible: true},
		{Key: "item-pickup", Family: FamilyItem, Reversible: true},
		{Key: "item-remove", Family: FamilyItem, Reversible: true},
		{Key: "player-chat", Family: FamilyPlayer, Reversible: false},
		{Key: "player-command", Family: FamilyPlayer, Reversible: false},
		{Key: "player-join", Family: FamilyPlayer, Reversible: false},
		{Key: "player-quit", Family: FamilyPlayer, Reversible: false},
	}
}

// DefaultActionTypeRegistry returns a registry populated with DefaultActionTypes.
func DefaultActionTypeRegistry() *ActionTypeRegistry {
	return NewActionTypeRegistry(DefaultActionTypes()...)
}
