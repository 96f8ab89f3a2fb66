package schemasync

import (
	"fmt"
	"sort"
	"strings"
)

// columnSignature identifies a table shape by its sorted name(type) pairs.
// Nullability and defaults do not take part.
func columnSignature(columns []Column) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, fmt.Sprintf("%s(%s)", c.ColumnName, c.DataType))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// CompareSchemas classifies every table of current and existing
func CompareSchemas(current, existing []TableSchema) SchemaComparison {
	currentByName := indexTables(current)
	existingByName := indexTables(existing)

	cmp := SchemaComparison{
		AddedTables:     []string{},
		RemovedTables:   []string{},
		ModifiedTables:  []string{},
		UnchangedTables: []string{},
	}

	for name, table := range currentByName {
		prior, ok := existingByName[name]
		switch {
		case !ok:
			cmp.AddedTables = append(cmp.AddedTables, name)
		case columnSignature(table.Columns) != columnSignature(prior.Columns):
			cmp.ModifiedTables = append(cmp.ModifiedTables, name)
		default:
			cmp.UnchangedTables = append(cmp.UnchangedTables, name)
		}
	}
	for name := range existingByName {
		if _, ok := currentByName[name]; !ok {
			cmp.RemovedTables = append(cmp.RemovedTables, name)
		}
	}

	sort.Strings(cmp.AddedTables)
	sort.Strings(cmp.RemovedTables)
	sort.Strings(cmp.ModifiedTables)
	sort.Strings(cmp.UnchangedTables)
	return cmp
}

func indexTables(tables []TableSchema) map[string]TableSchema {
	byName := make(map[string]TableSchema, len(tables))
	for _, t := range tables {
		byName[t.TableName] = t
	}
	return byName
}
