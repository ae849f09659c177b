package schema

// Logical table names.
const (
	TableActions     = "actions"
	TableActivities  = "activities"
	TableBlocks      = "blocks"
	TableCauses      = "causes"
	TableEntityTypes = "entity_types"
	TableItems       = "items"
	TableMeta        = "meta"
	TablePlayers     = "players"
	TableWorlds      = "worlds"
)

// DefaultPrefix is prepended to every table name unless configured otherwise.
const DefaultPrefix = "prism_"

// Registry resolves logical table names to physical ones.
// A Registry is immutable after construction.
type Registry struct {
	prefix string
}

// NewRegistry creates a registry with the given table prefix.
func NewRegistry(prefix string) *Registry {
	return &Registry{prefix: prefix}
}

// Prefix returns the table prefix.
func (r *Registry) Prefix() string {
	return r.prefix
}

// Table returns the physical name for a logical table.
func (r *Registry) Table(name string) string {
	return r.prefix + name
}

func (r *Registry) Actions() string     { return r.Table(TableActions) }
func (r *Registry) Activities() string  { return r.Table(TableActivities) }
func (r *Registry) Blocks() string      { return r.Table(TableBlocks) }
func (r *Registry) Causes() string      { return r.Table(TableCauses) }
func (r *Registry) EntityTypes() string { return r.Table(TableEntityTypes) }
func (r *Registry) Items() string       { return r.Table(TableItems) }
func (r *Registry) Meta() string        { return r.Table(TableMeta) }
func (r *Registry) Players() string     { return r.Table(TablePlayers) }
func (r *Registry) Worlds() string      { return r.Table(TableWorlds) }

// CreateActivityFunction is the name of the server-side insert function.
func (r *Registry) CreateActivityFunction() string {
	return r.prefix + "create_activity"
}

// AllTables returns every physical table name, dimensions first.
func (r *Registry) AllTables() []string {
	return []string{
		r.Actions(), r.Blocks(), r.Causes(), r.EntityTypes(), r.Items(),
		r.Players(), r.Worlds(), r.Meta(), r.Activities(),
	}
}
