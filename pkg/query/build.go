package query

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// JoinAlias names the join of a lookup: parent type and lookup name, lowercased.
func JoinAlias(parentType, lookupName string) string {
	return strings.ToLower(parentType + lookupName)
}

// Build creates the fetch for a merge data node. Every lookup is left joined so one row
// carries the node's own columns and each lookup's columns under its join alias. The
// caller adds the filter. A node without fields selects nothing and joins nothing.
func Build(node *models.MergeData) *Query {
	q := NewQuery(node.TypeName)
	if len(node.Fields) == 0 {
		return q
	}

	for _, field := range node.Fields {
		q.AddColumns(field.Name)
	}

	for _, lookup := range node.Lookups {
		if lookup == nil || lookup.TypeName == "" {
			continue
		}

		join := Join{
			Type:        LeftJoin,
			Entity:      strings.ToLower(lookup.TypeName),
			Alias:       JoinAlias(node.TypeName, lookup.Name),
			Field:       lookup.IDFieldName(),
			ParentField: strings.ToLower(lookup.Name),
			Columns:     []string{},
		}
		for _, field := range lookup.Fields {
			column := strings.ToLower(field.Name)
			if !containsString(join.Columns, column) {
				join.Columns = append(join.Columns, column)
			}
		}

		// the foreign key has to be selected for the join to be resolvable later
		q.AddColumns(lookup.Name)
		q.AddJoin(join)
	}

	return q
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
