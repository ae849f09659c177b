package query

// Result column names. Select statements alias every column so rows can be
// scanned by name regardless of which joins a plan includes.
const (
	ColActivityID             = "activity_id"
	ColTimestamp              = "timestamp"
	ColX                      = "x"
	ColY                      = "y"
	ColZ                      = "z"
	ColAction                 = "action"
	ColWorldUUID              = "world_uuid"
	ColWorld                  = "world"
	ColItemMaterial           = "item_material"
	ColItemData               = "item_data"
	ColItemQuantity           = "item_quantity"
	ColBlockNamespace         = "block_ns"
	ColBlockName              = "block_name"
	ColBlockData              = "block_data"
	ColBlockTranslationKey    = "block_translation_key"
	ColReplacedNamespace      = "replaced_ns"
	ColReplacedName           = "replaced_name"
	ColReplacedData           = "replaced_data"
	ColReplacedTranslationKey = "replaced_translation_key"
	ColEntityType             = "entity_type"
	ColEntityTranslationKey   = "entity_translation_key"
	ColAffectedPlayerUUID     = "affected_player_uuid"
	ColAffectedPlayer         = "affected_player"
	ColCause                  = "cause"
	ColCausePlayerUUID        = "cause_player_uuid"
	ColCausePlayer            = "cause_player"
	ColCauseEntityType        = "cause_entity_type"
	ColCauseEntityKey         = "cause_entity_translation_key"
	ColCauseBlockNamespace    = "cause_block_ns"
	ColCauseBlockName         = "cause_block_name"
	ColCauseBlockData         = "cause_block_data"
	ColCauseBlockKey          = "cause_block_translation_key"
	ColDescriptor             = "descriptor"
	ColMetadata               = "metadata"
	ColSerializerVersion      = "serializer_version"
	ColSerializedData         = "serialized_data"
	ColReversed               = "reversed"
	ColAvgX                   = "avg_x"
	ColAvgY                   = "avg_y"
	ColAvgZ                   = "avg_z"
	ColAvgTimestamp           = "avg_timestamp"
	ColGroupCount             = "group_count"
	ColTotalResults           = "total_results"
	ColMinID                  = "min_id"
	ColMaxID                  = "max_id"
)

// column is a select expression and its result name.
type column struct {
	expr  string
	alias string
}

func (c column) String() string {
	if c.alias == "" {
		return c.expr
	}
	return c.expr + " AS " + c.alias
}

func col(expr string) column       { return column{expr: expr} }
func as(expr, alias string) column { return column{expr: expr, alias: alias} }
func cols(cs ...column) []column   { return cs }

// dimensionColumns lists the columns read from each joined dimension.
// Grouped selects omit the per-row block and item data.
func dimensionColumns(d Dimension, grouped bool) []column {
	switch d {
	case DimAction:
		return cols(col("act.action"))
	case DimWorld:
		return cols(col("w.world_uuid"), col("w.world"))
	case DimItem:
		if grouped {
			return cols(as("i.material", ColItemMaterial))
		}
		return cols(as("i.material", ColItemMaterial), as("i.data", ColItemData))
	case DimBlock:
		if grouped {
			return cols(as("b.ns", ColBlockNamespace), as("b.name", ColBlockName), as("b.translation_key", ColBlockTranslationKey))
		}
		return cols(as("b.ns", ColBlockNamespace), as("b.name", ColBlockName), as("b.data", ColBlockData), as("b.translation_key", ColBlockTranslationKey))
	case DimReplacedBlock:
		return cols(as("rb.ns", ColReplacedNamespace), as("rb.name", ColReplacedName), as("rb.data", ColReplacedData), as("rb.translation_key", ColReplacedTranslationKey))
	case DimEntityType:
		return cols(col("et.entity_type"), as("et.translation_key", ColEntityTranslationKey))
	case DimPlayer:
		return cols(as("ap.player_uuid", ColAffectedPlayerUUID), as("ap.player", ColAffectedPlayer))
	case DimCause:
		return cols(col("c.cause"))
	case DimCausePlayer:
		return cols(as("cp.player_uuid", ColCausePlayerUUID), as("cp.player", ColCausePlayer))
	case DimCauseEntityType:
		return cols(as("cet.entity_type", ColCauseEntityType), as("cet.translation_key", ColCauseEntityKey))
	case DimCauseBlock:
		return cols(as("cb.ns", ColCauseBlockNamespace), as("cb.name", ColCauseBlockName), as("cb.data", ColCauseBlockData), as("cb.translation_key", ColCauseBlockKey))
	}
	return nil
}
