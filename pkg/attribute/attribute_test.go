package attribute

import (
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	generr "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agreementMetadata() *models.ObjectMetadata {
	return &models.ObjectMetadata{
		Name: "agreement",
		Fields: []models.FieldMetadata{
			{Name: "Id", Type: models.FieldTypeUniqueID},
			{Name: "Name", Type: models.FieldTypeString},
			{Name: "IsAutoRenew", Type: models.FieldTypeBoolean},
			{Name: "TotalValue", Type: models.FieldTypeMoney},
			{Name: "Rate", Type: models.FieldTypeDecimal},
			{Name: "EffectiveDate", Type: models.FieldTypeDate},
			{Name: "SignedOn", Type: models.FieldTypeDateTime},
			{Name: "TermMonths", Type: models.FieldTypeInteger},
			{Name: "AccountId", Type: models.FieldTypeLookup, ReferenceTo: "account"},
			{Name: "Status", Type: models.FieldTypeOption, Options: []models.OptionEntry{{Key: "1", Value: "Request"}, {Key: "2", Value: "Draft"}}},
			{Name: "Regions", Type: models.FieldTypeMultiOption, Options: []models.OptionEntry{{Key: "na", Value: "North America"}, {Key: "eu", Value: "Europe"}}},
			{Name: "Owner", Type: models.FieldTypeComposite},
			{Name: "Notes", Type: models.FieldTypeLongString},
		},
	}
}

func newResolver() *Resolver {
	return NewResolver(ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))
}

func TestResolve(t *testing.T) {
	record := models.NewRecord("agreement")
	record.Set("id", "a-1")
	record.Set("name", "MSA-100")
	record.Set("isautorenew", int64(1))
	record.Set("totalvalue", []byte("1234.567890"))
	record.Set("rate", 0.125)
	record.Set("effectivedate", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	record.Set("signedon", "2024-03-05 14:30:15")
	record.Set("termmonths", "36")
	record.Set("accountid", "acc-1")
	record.Set("status", "2")
	record.Set("regions", "na;eu;xx")
	record.Set("owner", `{"Id":"user-9","Type":"systemuser"}`)
	record.Set("notes", "line one\nline two")

	tests := []struct {
		path string
		want string
	}{
		{path: "Id", want: "a-1"},
		{path: "Name", want: "MSA-100"},
		{path: "IsAutoRenew", want: "true"},
		{path: "TotalValue", want: "1234.56789"},
		{path: "Rate", want: "0.125"},
		{path: "EffectiveDate", want: "03/05/2024"},
		{path: "SignedOn", want: "03/05/2024 02:30:15"},
		{path: "TermMonths", want: "36"},
		{path: "AccountId", want: "acc-1"},
		{path: "Status", want: "Draft"},
		{path: "Regions", want: "North America;Europe"},
		{path: "Owner", want: "user-9"},
		{path: "Notes", want: "line one\nline two"},
	}

	resolver := newResolver()
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			value, err := resolver.Resolve(agreementMetadata(), record, tt.path)
			require.NoError(t, err)
			require.NotNil(t, value)
			assert.Equal(t, tt.want, *value)
		})
	}
}

func TestResolveEdgeCases(t *testing.T) {
	resolver := newResolver()

	t.Run("unmapped field is absent", func(t *testing.T) {
		record := models.NewRecord("agreement")
		record.Set("customfield", "x")

		value, err := resolver.Resolve(agreementMetadata(), record, "CustomField")
		require.NoError(t, err)
		assert.Nil(t, value)
	})

	t.Run("unset option is empty", func(t *testing.T) {
		value, err := resolver.Resolve(agreementMetadata(), models.NewRecord("agreement"), "Status")
		require.NoError(t, err)
		require.NotNil(t, value)
		assert.Equal(t, "", *value)
	})

	t.Run("null composite is empty", func(t *testing.T) {
		record := models.NewRecord("agreement")
		record.Set("owner", nil)

		value, err := resolver.Resolve(agreementMetadata(), record, "Owner")
		require.NoError(t, err)
		assert.Equal(t, "", *value)
	})

	t.Run("lookup prefers the joined id", func(t *testing.T) {
		record := models.NewRecord("agreement")
		record.Set("accountid", "stale")
		record.Set("accountid.id", "acc-2")

		value, err := resolver.Resolve(agreementMetadata(), record, "AccountId")
		require.NoError(t, err)
		assert.Equal(t, "acc-2", *value)
	})

	t.Run("qualified path resolves against the joined alias", func(t *testing.T) {
		record := models.NewRecord("agreement")
		record.Set("agreementaccountid.name", "Acme")

		metadata := &models.ObjectMetadata{Name: "account", Fields: []models.FieldMetadata{{Name: "Name", Type: models.FieldTypeString}}}
		value, err := resolver.Resolve(metadata, record, "agreementaccountid.name")
		require.NoError(t, err)
		assert.Equal(t, "Acme", *value)
	})

	t.Run("coercion failure names field and entity", func(t *testing.T) {
		record := models.NewRecord("agreement")
		record.Set("id", "a-1")
		record.Set("totalvalue", "abc")

		value, err := resolver.Resolve(agreementMetadata(), record, "TotalValue")
		assert.Nil(t, value)
		require.Error(t, err)

		genErr, ok := generr.AsGenerationError(err)
		require.True(t, ok)
		assert.Equal(t, generr.KindResolution, genErr.Kind)
		assert.Equal(t, "agreement", genErr.Entity)
		assert.Equal(t, "TotalValue", genErr.Field)
		assert.Equal(t, "a-1", genErr.RecordID)
		assert.Contains(t, err.Error(), "cannot convert")
	})
}

func TestCoerce(t *testing.T) {
	t.Run("decimal keeps full precision", func(t *testing.T) {
		value, err := Coerce(models.FieldMetadata{Type: models.FieldTypeMoney}, decimal.RequireFromString("10.000000000000000001"), nil, "amount")
		require.NoError(t, err)
		assert.Equal(t, models.ValueKindDecimal, value.Kind)
		assert.Equal(t, "10.000000000000000001", value.String())
	})

	t.Run("integer rejects fractions", func(t *testing.T) {
		_, err := Coerce(models.FieldMetadata{Type: models.FieldTypeInteger}, 1.5, nil, "count")
		assert.Error(t, err)
	})

	t.Run("booleans from text", func(t *testing.T) {
		value, err := Coerce(models.FieldMetadata{Type: models.FieldTypeBoolean}, "false", nil, "flag")
		require.NoError(t, err)
		assert.Equal(t, "false", value.String())
	})

	t.Run("multi option from list", func(t *testing.T) {
		field := models.FieldMetadata{Type: models.FieldTypeMultiOption, Options: []models.OptionEntry{{Key: "1", Value: "One"}, {Key: "2", Value: "Two"}}}
		value, err := Coerce(field, []any{int64(2), int64(1)}, nil, "choices")
		require.NoError(t, err)
		assert.Equal(t, "Two;One", value.String())
	})

	t.Run("composite reference", func(t *testing.T) {
		value, err := Coerce(models.FieldMetadata{Type: models.FieldTypeComposite}, models.Reference{ID: "r-1", Type: "account"}, nil, "regarding")
		require.NoError(t, err)
		assert.Equal(t, "r-1", value.String())
		assert.Equal(t, "account", value.Reference().Type)
	})

	t.Run("unparseable date", func(t *testing.T) {
		_, err := Coerce(models.FieldMetadata{Type: models.FieldTypeDate}, "next tuesday", nil, "due")
		assert.Error(t, err)
	})
}

func TestFormatRaw(t *testing.T) {
	assert.Equal(t, "", FormatRaw(nil))
	assert.Equal(t, "MSA-100", FormatRaw([]byte("MSA-100")))
	assert.Equal(t, "42", FormatRaw(int64(42)))
	assert.Equal(t, "2.5", FormatRaw(2.5))
	assert.Equal(t, "03/05/2024", FormatRaw(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)))
}
