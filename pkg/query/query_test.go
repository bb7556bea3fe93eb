package query

import (
	"testing"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agreementNode() *models.MergeData {
	return &models.MergeData{
		TypeName: "Agreement",
		Fields: []models.DataSpec{
			{Name: "Id", Type: models.FieldTypeUniqueID, IsID: true},
			{Name: "Name", Type: models.FieldTypeString},
			{Name: "name", Type: models.FieldTypeString},
		},
		Lookups: []*models.MergeData{
			{
				TypeName:       "Account",
				Name:           "AccountId",
				ParentTypeName: "Agreement",
				Fields: []models.DataSpec{
					{Name: "Id", Type: models.FieldTypeUniqueID},
					{Name: "Name", Type: models.FieldTypeString},
				},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	t.Run("columns and lookup joins", func(t *testing.T) {
		q := Build(agreementNode())

		assert.Equal(t, "agreement", q.EntityName)
		assert.Equal(t, []string{"id", "name", "accountid"}, q.Columns)
		require.Len(t, q.Joins, 1)
		assert.Equal(t, Join{
			Type:        LeftJoin,
			Entity:      "account",
			Alias:       "agreementaccountid",
			Field:       "id",
			ParentField: "accountid",
			Columns:     []string{"id", "name"},
		}, q.Joins[0])
		assert.Nil(t, q.Criteria)
	})

	t.Run("no fields is an empty query", func(t *testing.T) {
		node := agreementNode()
		node.Fields = nil

		q := Build(node)
		assert.Equal(t, "agreement", q.EntityName)
		assert.Empty(t, q.Columns)
		assert.Empty(t, q.Joins)
	})

	t.Run("join key is the lookup id marker", func(t *testing.T) {
		node := agreementNode()
		node.Lookups[0].Fields = []models.DataSpec{
			{Name: "Name", Type: models.FieldTypeString},
			{Name: "AccountNumber", Type: models.FieldTypeString, IsID: true},
		}

		q := Build(node)
		assert.Equal(t, "accountnumber", q.Joins[0].Field)
	})
}

func TestQueryCriteria(t *testing.T) {
	q := NewQuery("LineItem").
		AddColumns("Id", "Amount", "id").
		AddCondition("AgreementId", OperatorEq, "a-1").
		AddExpression(NewExpression(Or).
			AddCondition("Status", OperatorIn, []any{"1", "2"}).
			AddCondition("Status", OperatorNull, nil)).
		OrderBy("Amount", true).
		WithLimit(10)

	assert.Equal(t, []string{"id", "amount"}, q.Columns)
	require.NotNil(t, q.Criteria)
	assert.Equal(t, And, q.Criteria.Operator)
	assert.Equal(t, Condition{Field: "agreementid", Operator: OperatorEq, Value: "a-1"}, q.Criteria.Conditions[0])
	require.Len(t, q.Criteria.Expressions, 1)
	assert.Equal(t, Or, q.Criteria.Expressions[0].Operator)
	assert.Equal(t, []Sort{{Field: "amount", Descending: true}}, q.Sort)
	assert.Equal(t, 10, q.Limit)
	assert.False(t, q.Criteria.IsEmpty())
	assert.True(t, NewExpression(And).AddExpression(NewExpression(Or)).IsEmpty())
}
