package sqlload

import "fmt"

// DataType is the declared storage type of a mapped column. It documents the
// destination schema; value conversion is left to the database driver.
type DataType string

const (
	TypeVarchar  DataType = "VARCHAR"
	TypeText     DataType = "TEXT"
	TypeInt      DataType = "INT"
	TypeBigInt   DataType = "BIGINT"
	TypeDecimal  DataType = "DECIMAL"
	TypeDateTime DataType = "DATETIME"
	TypeBool     DataType = "BOOL"
)

// ColumnMapping defines how one record property maps to a destination column.
// The JSON tags match the on-disk mapping definition format.
type ColumnMapping struct {
	PropertyName      string   `json:"propertyName"`
	DatabaseColumn    string   `json:"databaseColumn"`
	DataType          DataType `json:"dataType"`
	IsRequired        bool     `json:"isRequired"`
	ExcludeFromInsert bool     `json:"excludeFromInsert"`
	ExcludeFromUpdate bool     `json:"excludeFromUpdate"`
	IsPrimaryKey      bool     `json:"isPrimaryKey"`
	IsAutoIncrement   bool     `json:"isAutoIncrement"`
}

// TableMapping is the full column-mapping definition for one table.
// Immutable after load; a catalog reload replaces whole mappings rather than
// mutating them in place.
type TableMapping struct {
	TableName  string          `json:"tableName"`
	PrimaryKey string          `json:"primaryKey,omitempty"`
	Columns    []ColumnMapping `json:"columns"`
}

// Validate checks the structural invariants: a table name, at least one
// column, and property/column names each unique within the mapping.
func (m *TableMapping) Validate() error {
	if m.TableName == "" {
		return fmt.Errorf("mapping has no tableName")
	}
	if len(m.Columns) == 0 {
		return fmt.Errorf("mapping for %s has no columns", m.TableName)
	}
	props := make(map[string]struct{}, len(m.Columns))
	cols := make(map[string]struct{}, len(m.Columns))
	for _, c := range m.Columns {
		if c.PropertyName == "" || c.DatabaseColumn == "" {
			return fmt.Errorf("mapping for %s has a column with empty propertyName or databaseColumn", m.TableName)
		}
		if _, dup := props[c.PropertyName]; dup {
			return fmt.Errorf("mapping for %s has duplicate propertyName %q", m.TableName, c.PropertyName)
		}
		if _, dup := cols[c.DatabaseColumn]; dup {
			return fmt.Errorf("mapping for %s has duplicate databaseColumn %q", m.TableName, c.DatabaseColumn)
		}
		props[c.PropertyName] = struct{}{}
		cols[c.DatabaseColumn] = struct{}{}
	}
	return nil
}

// PrimaryKeyColumn returns the mapping of the primary-key column. The
// explicit primaryKey field wins; otherwise the first column flagged
// isPrimaryKey is used.
func (m *TableMapping) PrimaryKeyColumn() (ColumnMapping, bool) {
	if m.PrimaryKey != "" {
		for _, c := range m.Columns {
			if c.PropertyName == m.PrimaryKey || c.DatabaseColumn == m.PrimaryKey {
				return c, true
			}
		}
		// Declared but not described: treat the name as both property and column.
		return ColumnMapping{PropertyName: m.PrimaryKey, DatabaseColumn: m.PrimaryKey}, true
	}
	for _, c := range m.Columns {
		if c.IsPrimaryKey {
			return c, true
		}
	}
	return ColumnMapping{}, false
}
