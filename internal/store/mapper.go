package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/roach88/prism/internal/activity"
	"github.com/roach88/prism/internal/query"
)

var (
	intColumns = map[string]bool{
		query.ColActivityID: true, query.ColTimestamp: true,
		query.ColX: true, query.ColY: true, query.ColZ: true,
		query.ColItemQuantity: true, query.ColSerializerVersion: true,
		query.ColGroupCount: true, query.ColTotalResults: true,
	}
	floatColumns = map[string]bool{
		query.ColAvgX: true, query.ColAvgY: true, query.ColAvgZ: true, query.ColAvgTimestamp: true,
	}
	boolColumns = map[string]bool{
		query.ColReversed: true,
	}
)

// Mapper reconstructs activity records from result rows.
type Mapper struct {
	actions *activity.ActionTypeRegistry
	logger  *slog.Logger
}

// NewMapper creates a mapper that accepts only registered action types.
func NewMapper(actions *activity.ActionTypeRegistry, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{actions: actions, logger: logger}
}

// row holds one scanned result row addressed by column name.
type row struct {
	index  map[string]int
	values []any
}

func newRow(columns []string) *row {
	r := &row{index: make(map[string]int, len(columns)), values: make([]any, len(columns))}
	for i, c := range columns {
		r.index[c] = i
		switch {
		case intColumns[c]:
			r.values[i] = new(sql.NullInt64)
		case floatColumns[c]:
			r.values[i] = new(sql.NullFloat64)
		case boolColumns[c]:
			r.values[i] = new(sql.NullBool)
		default:
			r.values[i] = new(sql.NullString)
		}
	}
	return r
}

func (r *row) str(name string) (string, bool) {
	i, ok := r.index[name]
	if !ok {
		return "", false
	}
	v := r.values[i].(*sql.NullString)
	return v.String, v.Valid
}

func (r *row) integer(name string) (int64, bool) {
	i, ok := r.index[name]
	if !ok {
		return 0, false
	}
	v := r.values[i].(*sql.NullInt64)
	return v.Int64, v.Valid
}

func (r *row) number(name string) (float64, bool) {
	i, ok := r.index[name]
	if !ok {
		return 0, false
	}
	v := r.values[i].(*sql.NullFloat64)
	return v.Float64, v.Valid
}

func (r *row) flag(name string) bool {
	i, ok := r.index[name]
	if !ok {
		return false
	}
	return r.values[i].(*sql.NullBool).Bool
}

// MapRows reads every row into records. Grouped queries yield
// *activity.GroupedActivity, all others *activity.Activity. The second
// result is the window total when the query selects one, else 0.
//
// Rows with unregistered action types are skipped with a warning.
// Callers are responsible for closing rows.
func (m *Mapper) MapRows(rows *sql.Rows, q activity.Query) ([]activity.Record, int64, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, 0, fmt.Errorf("read columns: %w", err)
	}

	r := newRow(columns)
	records := []activity.Record{}
	var total int64
	for rows.Next() {
		if err := rows.Scan(r.values...); err != nil {
			return nil, 0, fmt.Errorf("scan activity: %w", err)
		}
		if t, ok := r.integer(query.ColTotalResults); ok {
			total = t
		}

		action, _ := r.str(query.ColAction)
		if _, ok := m.actions.Get(action); !ok {
			id, _ := r.integer(query.ColActivityID)
			m.logger.Warn("skipping activity with unknown action type",
				"action", action,
				"activity_id", id,
			)
			continue
		}

		a := m.mapActivity(r, action)
		if q.Grouped {
			count, _ := r.integer(query.ColGroupCount)
			records = append(records, &activity.GroupedActivity{Activity: *a, Count: count})
		} else {
			records = append(records, a)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate activities: %w", err)
	}
	return records, total, nil
}

func (m *Mapper) mapActivity(r *row, action string) *activity.Activity {
	a := &activity.Activity{Action: action, Reversed: r.flag(query.ColReversed)}

	if id, ok := r.integer(query.ColActivityID); ok {
		a.ID = id
	}
	if ts, ok := r.integer(query.ColTimestamp); ok {
		a.Timestamp = ts
	} else if avg, ok := r.number(query.ColAvgTimestamp); ok {
		a.Timestamp = int64(math.Floor(avg))
	}
	a.Coordinate = coordinate(r)

	a.World.UUID = m.parseUUID(r, query.ColWorldUUID)
	a.World.Name, _ = r.str(query.ColWorld)

	if material, ok := r.str(query.ColItemMaterial); ok {
		data, _ := r.str(query.ColItemData)
		a.Item = &activity.Item{Material: material, Data: data}
		if qty, ok := r.integer(query.ColItemQuantity); ok {
			a.ItemQuantity = int(qty)
		}
	}
	a.Block = block(r, query.ColBlockNamespace, query.ColBlockName, query.ColBlockData, query.ColBlockTranslationKey)
	a.ReplacedBlock = block(r, query.ColReplacedNamespace, query.ColReplacedName, query.ColReplacedData, query.ColReplacedTranslationKey)

	if et, ok := r.str(query.ColEntityType); ok {
		key, _ := r.str(query.ColEntityTranslationKey)
		a.EntityType = &activity.EntityType{Type: et, TranslationKey: key}
	}
	if _, ok := r.str(query.ColAffectedPlayerUUID); ok {
		name, _ := r.str(query.ColAffectedPlayer)
		a.Player = &activity.Player{UUID: m.parseUUID(r, query.ColAffectedPlayerUUID), Name: name}
	}

	a.Cause = m.cause(r)

	a.Descriptor, _ = r.str(query.ColDescriptor)
	if raw, ok := r.str(query.ColMetadata); ok && raw != "" {
		md, err := unmarshalMetadata(raw)
		if err != nil {
			m.logger.Warn("dropping unreadable activity metadata",
				"activity_id", a.ID,
				"error", err,
			)
		} else {
			a.Metadata = md
		}
	}

	if version, ok := r.integer(query.ColSerializerVersion); ok {
		data, _ := r.str(query.ColSerializedData)
		a.CustomData = &activity.CustomData{Version: int(version), Data: data}
	}
	return a
}

// cause picks the populated cause discriminant.
func (m *Mapper) cause(r *row) activity.Cause {
	if _, ok := r.str(query.ColCausePlayerUUID); ok {
		name, _ := r.str(query.ColCausePlayer)
		return activity.PlayerCause{UUID: m.parseUUID(r, query.ColCausePlayerUUID), Name: name}
	}
	if et, ok := r.str(query.ColCauseEntityType); ok {
		key, _ := r.str(query.ColCauseEntityKey)
		return activity.EntityCause{Type: et, TranslationKey: key}
	}
	if b := block(r, query.ColCauseBlockNamespace, query.ColCauseBlockName, query.ColCauseBlockData, query.ColCauseBlockKey); b != nil {
		return activity.BlockCause{Namespace: b.Namespace, Name: b.Name, Data: b.Data, TranslationKey: b.TranslationKey}
	}
	if name, ok := r.str(query.ColCause); ok {
		return activity.NamedCause{Name: name}
	}
	return nil
}

func (m *Mapper) parseUUID(r *row, column string) uuid.UUID {
	raw, ok := r.str(column)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		m.logger.Warn("invalid uuid in activity row", "column", column, "value", raw)
		return uuid.Nil
	}
	return id
}

func coordinate(r *row) activity.Coordinate {
	if x, ok := r.integer(query.ColX); ok {
		y, _ := r.integer(query.ColY)
		z, _ := r.integer(query.ColZ)
		return activity.Coordinate{X: int(x), Y: int(y), Z: int(z)}
	}
	x, _ := r.number(query.ColAvgX)
	y, _ := r.number(query.ColAvgY)
	z, _ := r.number(query.ColAvgZ)
	return activity.Coordinate{X: int(math.Floor(x)), Y: int(math.Floor(y)), Z: int(math.Floor(z))}
}

func block(r *row, nsCol, nameCol, dataCol, keyCol string) *activity.Block {
	name, ok := r.str(nameCol)
	if !ok {
		return nil
	}
	ns, _ := r.str(nsCol)
	data, _ := r.str(dataCol)
	key, _ := r.str(keyCol)
	return &activity.Block{Namespace: ns, Name: name, Data: data, TranslationKey: key}
}
