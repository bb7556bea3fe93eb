package metadata

import (
	"database/sql"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
)

const (
	objectMetadataTable = "object_metadata"
	fieldMetadataTable  = "field_metadata"
)

type ObjectRow struct {
	Name  sql.NullString `db:"name"`
	Label sql.NullString `db:"label"`
}

type FieldRow struct {
	ObjectName  sql.NullString                         `db:"object_name"`
	Name        sql.NullString                         `db:"name"`
	Type        sql.NullString                         `db:"type"`
	ReferenceTo sql.NullString                         `db:"reference_to"`
	Options     database.JSONB[[]models.OptionEntry] `db:"options"`
}

// ToFieldMetadata normalizes type aliases such as "picklist". Unknown types are kept as
// stored and coerce like strings.
func ToFieldMetadata(row *FieldRow) models.FieldMetadata {
	fieldType, err := models.ParseFieldType(row.Type.String)
	if err != nil {
		fieldType = models.FieldType(row.Type.String)
	}

	return models.FieldMetadata{
		Name:        row.Name.String,
		Type:        fieldType,
		ReferenceTo: row.ReferenceTo.String,
		Options:     row.Options.GetValue(),
	}
}

func ToObjectMetadata(object *ObjectRow, fields []FieldRow) *models.ObjectMetadata {
	metadata := &models.ObjectMetadata{
		Name:   object.Name.String,
		Label:  object.Label.String,
		Fields: make([]models.FieldMetadata, len(fields)),
	}
	for i, row := range fields {
		metadata.Fields[i] = ToFieldMetadata(&row)
	}
	return metadata
}
