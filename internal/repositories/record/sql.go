package record

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/query"
	"github.com/huandu/go-sqlbuilder"
)

// buildSelect translates a query into a SELECT. The entity table is referenced by its own
// name, joined tables by their join alias. Joined columns are returned as "alias.column"
// so the scan can file them under the alias.
func buildSelect(flavor sqlbuilder.Flavor, q *query.Query) (*sqlbuilder.SelectBuilder, error) {
	if q == nil || q.EntityName == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "query entity is required")
	}

	sb := database.NewSelectBuilder(flavor)
	entity := q.EntityName

	columns := []string{}
	for _, column := range q.Columns {
		columns = append(columns, sb.As(database.Column(entity, column), database.QuoteIdent(column)))
	}
	if len(columns) == 0 {
		columns = append(columns, sb.As(database.Column(entity, idColumn), database.QuoteIdent(idColumn)))
	}

	for _, join := range q.Joins {
		option := sqlbuilder.LeftJoin
		if join.Type == query.InnerJoin {
			option = sqlbuilder.InnerJoin
		}

		on := fmt.Sprintf("%s = %s", database.Column(join.Alias, join.Field), database.Column(entity, join.ParentField))
		sb.JoinWithOption(option, sb.As(database.QuoteIdent(join.Entity), database.QuoteIdent(join.Alias)), on)

		for _, column := range join.Columns {
			columns = append(columns, sb.As(database.Column(join.Alias, column), database.QuoteIdent(join.Alias+"."+column)))
		}
	}

	sb.Select(columns...).From(database.QuoteIdent(entity))

	if err := applyCriteria(sb, q); err != nil {
		return nil, err
	}

	for _, sort := range q.Sort {
		column := database.Column(entity, sort.Field)
		if sort.Descending {
			column += " DESC"
		}
		sb.OrderBy(column)
	}

	if q.Limit > 0 {
		sb.Limit(q.Limit)
	}

	return sb, nil
}

func applyCriteria(sb *sqlbuilder.SelectBuilder, q *query.Query) error {
	where, err := expression(sb, q.EntityName, q.Criteria)
	if err != nil {
		return err
	}
	if where != "" {
		sb.Where(where)
	}
	return nil
}

func expression(sb *sqlbuilder.SelectBuilder, entity string, expr *query.Expression) (string, error) {
	if expr.IsEmpty() {
		return "", nil
	}

	parts := []string{}
	for _, c := range expr.Conditions {
		part, err := condition(sb, entity, c)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}

	for _, nested := range expr.Expressions {
		part, err := expression(sb, entity, nested)
		if err != nil {
			return "", err
		}
		if part != "" {
			parts = append(parts, part)
		}
	}

	if expr.Operator == query.Or {
		return sb.Or(parts...), nil
	}
	return sb.And(parts...), nil
}

func condition(sb *sqlbuilder.SelectBuilder, entity string, c query.Condition) (string, error) {
	alias := c.Alias
	if alias == "" {
		alias = entity
	}
	field := database.Column(alias, c.Field)

	switch c.Operator {
	case query.OperatorEq:
		if c.Value == nil {
			return sb.IsNull(field), nil
		}
		return sb.Equal(field, c.Value), nil
	case query.OperatorNe:
		if c.Value == nil {
			return sb.IsNotNull(field), nil
		}
		return sb.NotEqual(field, c.Value), nil
	case query.OperatorIn:
		values := toSlice(c.Value)
		if len(values) == 0 {
			return "1 = 0", nil
		}
		return sb.In(field, values...), nil
	case query.OperatorNin:
		values := toSlice(c.Value)
		if len(values) == 0 {
			return "1 = 1", nil
		}
		return sb.NotIn(field, values...), nil
	case query.OperatorLt:
		return sb.LessThan(field, c.Value), nil
	case query.OperatorLte:
		return sb.LessEqualThan(field, c.Value), nil
	case query.OperatorGt:
		return sb.GreaterThan(field, c.Value), nil
	case query.OperatorGte:
		return sb.GreaterEqualThan(field, c.Value), nil
	case query.OperatorLike:
		return sb.Like(field, c.Value), nil
	case query.OperatorNull:
		return sb.IsNull(field), nil
	case query.OperatorNotNull:
		return sb.IsNotNull(field), nil
	}

	return "", httperror.NewHTTPErrorf(http.StatusBadRequest, "unsupported operator '%s' on field '%s'", c.Operator, c.Field)
}

// toSlice spreads slice values for IN conditions. Scalars become a single element list.
func toSlice(value any) []any {
	if value == nil {
		return nil
	}

	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return []any{value}
	}
	if _, isBytes := value.([]byte); isBytes {
		return []any{value}
	}

	values := make([]any, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		values = append(values, v.Index(i).Interface())
	}
	return values
}
