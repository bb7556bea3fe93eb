// Package query describes record store fetches independently of any SQL dialect.
package query

import (
	"strings"
)

type Operator string

const (
	OperatorEq      Operator = "eq"
	OperatorNe      Operator = "ne"
	OperatorIn      Operator = "in"
	OperatorNin     Operator = "nin"
	OperatorLt      Operator = "lt"
	OperatorLte     Operator = "lte"
	OperatorGt      Operator = "gt"
	OperatorGte     Operator = "gte"
	OperatorLike    Operator = "like"
	OperatorNull    Operator = "null"
	OperatorNotNull Operator = "notnull"
)

type LogicalOperator string

const (
	And LogicalOperator = "AND"
	Or  LogicalOperator = "OR"
)

type JoinType string

const (
	LeftJoin  JoinType = "LEFT"
	InnerJoin JoinType = "INNER"
)

// Condition compares one column against a value. Alias is empty for the queried entity's
// own columns.
type Condition struct {
	Alias    string   `json:"alias,omitempty"`
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Expression groups conditions and nested expressions under one logical operator.
type Expression struct {
	Operator    LogicalOperator `json:"operator"`
	Conditions  []Condition     `json:"conditions,omitempty"`
	Expressions []*Expression   `json:"expressions,omitempty"`
}

func NewExpression(operator LogicalOperator) *Expression {
	return &Expression{Operator: operator}
}

func (e *Expression) AddCondition(field string, operator Operator, value any) *Expression {
	e.Conditions = append(e.Conditions, Condition{Field: strings.ToLower(field), Operator: operator, Value: value})
	return e
}

func (e *Expression) AddAliasedCondition(alias, field string, operator Operator, value any) *Expression {
	e.Conditions = append(e.Conditions, Condition{
		Alias:    strings.ToLower(alias),
		Field:    strings.ToLower(field),
		Operator: operator,
		Value:    value,
	})
	return e
}

func (e *Expression) AddExpression(expression *Expression) *Expression {
	e.Expressions = append(e.Expressions, expression)
	return e
}

func (e *Expression) IsEmpty() bool {
	if e == nil {
		return true
	}
	for _, nested := range e.Expressions {
		if !nested.IsEmpty() {
			return false
		}
	}
	return len(e.Conditions) == 0
}

// Join pulls columns of a related entity into the same row. Rows of Entity aliased as Alias
// are matched on Alias.Field = parent.ParentField.
type Join struct {
	Type        JoinType `json:"type"`
	Entity      string   `json:"entity"`
	Alias       string   `json:"alias"`
	Field       string   `json:"field"`
	ParentField string   `json:"parent_field"`
	Columns     []string `json:"columns,omitempty"`
}

type Sort struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending,omitempty"`
}

type Query struct {
	EntityName string      `json:"entity_name"`
	Columns    []string    `json:"columns"`
	Joins      []Join      `json:"joins,omitempty"`
	Criteria   *Expression `json:"criteria,omitempty"`
	Sort       []Sort      `json:"sort,omitempty"`
	Limit      int         `json:"limit,omitempty"`
}

func NewQuery(entity string) *Query {
	return &Query{
		EntityName: strings.ToLower(entity),
		Columns:    []string{},
	}
}

// AddColumns appends lowercase column names, skipping ones already selected.
func (q *Query) AddColumns(columns ...string) *Query {
	for _, column := range columns {
		column = strings.ToLower(column)
		if column == "" || q.HasColumn(column) {
			continue
		}
		q.Columns = append(q.Columns, column)
	}
	return q
}

func (q *Query) HasColumn(column string) bool {
	for _, existing := range q.Columns {
		if existing == strings.ToLower(column) {
			return true
		}
	}
	return false
}

func (q *Query) AddJoin(join Join) *Query {
	q.Joins = append(q.Joins, join)
	return q
}

// AddCondition ANDs a condition onto the criteria.
func (q *Query) AddCondition(field string, operator Operator, value any) *Query {
	q.criteria().AddCondition(field, operator, value)
	return q
}

// AddExpression ANDs a nested expression onto the criteria.
func (q *Query) AddExpression(expression *Expression) *Query {
	q.criteria().AddExpression(expression)
	return q
}

func (q *Query) OrderBy(field string, descending bool) *Query {
	q.Sort = append(q.Sort, Sort{Field: strings.ToLower(field), Descending: descending})
	return q
}

func (q *Query) WithLimit(limit int) *Query {
	q.Limit = limit
	return q
}

func (q *Query) criteria() *Expression {
	if q.Criteria == nil {
		q.Criteria = NewExpression(And)
	}
	return q.Criteria
}
