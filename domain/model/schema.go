// Package model provides the domain model for sheetsql.
package model

// SurrogateKeyColumn is the name of the auto-incrementing primary key
// injected when a table has no id column of its own.
const SurrogateKeyColumn = "id"

// PlanColumn is one entry of a schema plan: a column name with its
// storage and semantic types.
type PlanColumn struct {
	Name     string
	Storage  StorageType
	Semantic ColumnType
}

// SchemaPlan is the target-table column list derived from a
// NormalizedTable. When the source has no column named id, a surrogate
// integer primary key is prepended; the surrogate is part of the table
// definition but excluded from insertion, since the store assigns it.
type SchemaPlan struct {
	table     TableName
	columns   []PlanColumn
	surrogate bool
}

// PlanSchema maps a NormalizedTable to its storage schema.
func PlanSchema(t *NormalizedTable) *SchemaPlan {
	hasID := false
	for _, c := range t.Columns() {
		if c.Name() == SurrogateKeyColumn {
			hasID = true
			break
		}
	}

	columns := make([]PlanColumn, 0, len(t.Columns())+1)
	if !hasID {
		columns = append(columns, PlanColumn{
			Name:     SurrogateKeyColumn,
			Storage:  StorageTypeInteger,
			Semantic: ColumnTypeInteger,
		})
	}
	for _, c := range t.Columns() {
		columns = append(columns, PlanColumn{
			Name:     c.Name(),
			Storage:  c.Type().StorageType(),
			Semantic: c.Type(),
		})
	}

	return &SchemaPlan{
		table:     t.Name(),
		columns:   columns,
		surrogate: !hasID,
	}
}

// Table returns the target table name.
func (p *SchemaPlan) Table() TableName {
	return p.table
}

// Columns returns the full ordered column list, including the
// surrogate key when one was injected.
func (p *SchemaPlan) Columns() []PlanColumn {
	return p.columns
}

// HasSurrogateKey reports whether a surrogate id column was injected.
func (p *SchemaPlan) HasSurrogateKey() bool {
	return p.surrogate
}

// InsertColumns returns the ordered column names used for row
// materialization and insertion, excluding any injected surrogate key.
func (p *SchemaPlan) InsertColumns() []string {
	columns := p.columns
	if p.surrogate {
		columns = columns[1:]
	}
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

// Equal reports whether two plans target the same table with the same
// column list.
func (p *SchemaPlan) Equal(other *SchemaPlan) bool {
	if other == nil || p.table != other.table || p.surrogate != other.surrogate {
		return false
	}
	if len(p.columns) != len(other.columns) {
		return false
	}
	for i, c := range p.columns {
		if c != other.columns[i] {
			return false
		}
	}
	return true
}
