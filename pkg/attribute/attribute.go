// Package attribute turns raw record values into the strings merged into documents.
package attribute

import (
	"github.com/Gobusters/ectologger"
	generr "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

type Resolver struct {
	logger ectologger.Logger
}

func NewResolver(logger ectologger.Logger) *Resolver {
	return &Resolver{
		logger: logger,
	}
}

// Resolve returns the merge value of fieldPath on record. Fields the schema does not know
// return nil without an error.
func (r *Resolver) Resolve(metadata *models.ObjectMetadata, record *models.Record, fieldPath string) (*string, error) {
	field, ok := metadata.Field(fieldPath)
	if !ok {
		r.logger.WithFields(map[string]any{
			"entity": metadataName(metadata),
			"field":  fieldPath,
		}).Debug("field is not described by the schema, skipping")
		return nil, nil
	}

	raw, _ := record.Get(fieldPath)
	value, err := Coerce(field, raw, record, fieldPath)
	if err != nil {
		genErr := generr.Wrap(generr.KindResolution, err, "failed to resolve attribute").
			AddEntity(metadataName(metadata)).
			AddField(fieldPath)
		if record != nil {
			genErr.AddRecordID(record.ID())
		}
		return nil, genErr
	}

	text := value.String()
	return &text, nil
}

func metadataName(metadata *models.ObjectMetadata) string {
	if metadata == nil {
		return ""
	}
	return metadata.Name
}
