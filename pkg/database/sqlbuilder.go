package database

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// FlavorForDriver maps a database/sql driver name to the sqlbuilder flavor that quotes
// identifiers and numbers placeholders the way the driver expects.
func FlavorForDriver(driverName string) sqlbuilder.Flavor {
	switch strings.ToLower(driverName) {
	case "sqlite3", "sqlite":
		return sqlbuilder.SQLite
	case "mysql":
		return sqlbuilder.MySQL
	}
	return sqlbuilder.PostgreSQL
}

func NewSelectBuilder(flavor sqlbuilder.Flavor) *sqlbuilder.SelectBuilder {
	return flavor.NewSelectBuilder()
}

func NewUpdateBuilder(flavor sqlbuilder.Flavor) *sqlbuilder.UpdateBuilder {
	return flavor.NewUpdateBuilder()
}

// QuoteIdent quotes an identifier, keeping dotted paths such as alias.column intact as a
// single name.
func QuoteIdent(name string) string {
	return fmt.Sprintf(`"%s"`, strings.ReplaceAll(name, `"`, `""`))
}

// Column renders a possibly aliased column reference: "column" or alias."column".
func Column(alias, column string) string {
	if alias == "" {
		return QuoteIdent(column)
	}
	return fmt.Sprintf("%s.%s", QuoteIdent(alias), QuoteIdent(column))
}
