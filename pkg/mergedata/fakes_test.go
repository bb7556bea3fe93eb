package mergedata

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/query"
)

// memoryStore evaluates AND-ed equality criteria and left joins over in-memory tables.
type memoryStore struct {
	mu      sync.Mutex
	tables  map[string][]map[string]any
	queries []*query.Query
	failOn  string
}

func (s *memoryStore) Fetch(_ context.Context, q *query.Query) ([]*models.Record, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()

	if q.EntityName == s.failOn {
		return nil, fmt.Errorf("connection reset while reading %s", q.EntityName)
	}

	records := []*models.Record{}
	for _, row := range s.tables[q.EntityName] {
		if !matches(row, q.Criteria) {
			continue
		}

		record := models.NewRecord(q.EntityName)
		for _, column := range q.Columns {
			record.Set(column, row[column])
		}

		for _, join := range q.Joins {
			target := s.find(join.Entity, join.Field, row[join.ParentField])
			for _, column := range join.Columns {
				var value any
				if target != nil {
					value = target[column]
				}
				record.Set(join.Alias+"."+column, value)
			}
		}

		records = append(records, record)
	}
	return records, nil
}

func (s *memoryStore) find(entity, field string, value any) map[string]any {
	if value == nil {
		return nil
	}
	for _, row := range s.tables[entity] {
		if models.FormatID(row[field]) == models.FormatID(value) {
			return row
		}
	}
	return nil
}

func (s *memoryStore) fetchesOf(entity string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, q := range s.queries {
		if q.EntityName == entity {
			count++
		}
	}
	return count
}

func matches(row map[string]any, criteria *query.Expression) bool {
	if criteria == nil {
		return true
	}
	for _, condition := range criteria.Conditions {
		if condition.Operator != query.OperatorEq {
			panic("memoryStore only supports eq")
		}
		if models.FormatID(row[condition.Field]) != models.FormatID(condition.Value) {
			return false
		}
	}
	return true
}

type memorySchema struct {
	mu       sync.Mutex
	entities map[string]*models.ObjectMetadata
	calls    map[string]int
}

func (s *memorySchema) GetMetadata(_ context.Context, entity string) (*models.ObjectMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[entity]++
	metadata, ok := s.entities[strings.ToLower(entity)]
	if !ok {
		return nil, fmt.Errorf("entity %s not found", entity)
	}
	return metadata, nil
}

func newSchema() *memorySchema {
	id := models.FieldMetadata{Name: "Id", Type: models.FieldTypeUniqueID}
	return &memorySchema{
		calls: map[string]int{},
		entities: map[string]*models.ObjectMetadata{
			"agreement": {Name: "agreement", Fields: []models.FieldMetadata{
				id,
				{Name: "Name", Type: models.FieldTypeString},
				{Name: "AccountId", Type: models.FieldTypeLookup, ReferenceTo: "account"},
				{Name: "Status", Type: models.FieldTypeOption, Options: []models.OptionEntry{{Key: "1", Value: "Request"}, {Key: "2", Value: "Draft"}}},
			}},
			"account": {Name: "account", Fields: []models.FieldMetadata{
				id,
				{Name: "Name", Type: models.FieldTypeString},
				{Name: "PrimaryContactId", Type: models.FieldTypeLookup, ReferenceTo: "contact"},
			}},
			"contact": {Name: "contact", Fields: []models.FieldMetadata{
				id,
				{Name: "FullName", Type: models.FieldTypeString},
			}},
			"lineitem": {Name: "lineitem", Fields: []models.FieldMetadata{
				id,
				{Name: "AgreementId", Type: models.FieldTypeLookup, ReferenceTo: "agreement"},
				{Name: "Amount", Type: models.FieldTypeMoney},
			}},
			"schedule": {Name: "schedule", Fields: []models.FieldMetadata{
				id,
				{Name: "LineItemId", Type: models.FieldTypeLookup, ReferenceTo: "lineitem"},
				{Name: "DueDate", Type: models.FieldTypeDate},
			}},
			"attachment": {Name: "attachment", Fields: []models.FieldMetadata{
				id,
				{Name: "AgreementId", Type: models.FieldTypeLookup, ReferenceTo: "agreement"},
				{Name: "FileName", Type: models.FieldTypeString},
			}},
			"note": {Name: "note", Fields: []models.FieldMetadata{
				id,
				{Name: "Body", Type: models.FieldTypeString},
			}},
		},
	}
}

func newStore() *memoryStore {
	return &memoryStore{
		tables: map[string][]map[string]any{
			"agreement": {
				{"id": "a-1", "name": "MSA-100", "accountid": "acc-1", "status": "2"},
				{"id": "a-2", "name": "NDA-7", "accountid": nil, "status": "1"},
			},
			"account": {
				{"id": "acc-1", "name": "Acme", "primarycontactid": "c-1"},
			},
			"contact": {
				{"id": "c-1", "fullname": "Jane Doe"},
			},
			"lineitem": {
				{"id": "li-1", "agreementid": "a-1", "amount": "100"},
				{"id": "li-2", "agreementid": "a-1", "amount": "200.5"},
				{"id": "li-9", "agreementid": "a-2", "amount": "1"},
				{"id": "li-3", "agreementid": "a-1", "amount": "300.25"},
			},
			"attachment": {
				{"id": "att-1", "agreementid": "a-1", "filename": "signed.pdf"},
				{"id": "att-2", "agreementid": "a-2", "filename": "draft.docx"},
			},
			"schedule": {
				{"id": "s-1", "lineitemid": "li-1", "duedate": "2024-03-05"},
				{"id": "s-2", "lineitemid": "li-1", "duedate": "2024-04-05"},
				{"id": "s-3", "lineitemid": "li-3", "duedate": "2024-05-05"},
			},
		},
	}
}

// attachmentEntry repeats the agreement's attachments.
func attachmentEntry() *models.MergeData {
	return &models.MergeData{
		TypeName:       "Attachment",
		Name:           "AgreementId",
		ParentTypeName: "Agreement",
		Lookups: []*models.MergeData{
			{
				TypeName: "Attachment",
				Fields:   []models.DataSpec{idField(), stringField("FileName", models.FieldTypeString)},
			},
		},
	}
}

func idField() models.DataSpec {
	return models.DataSpec{Name: "Id", Type: models.FieldTypeUniqueID, IsID: true}
}

func stringField(name string, fieldType models.FieldType) models.DataSpec {
	return models.DataSpec{Name: name, Type: fieldType}
}

// agreementTree is an agreement with its account joined in and its line items repeated,
// each line item repeating its payment schedules.
func agreementTree() *models.MergeData {
	return &models.MergeData{
		TypeName: "Agreement",
		Fields: []models.DataSpec{
			idField(),
			stringField("Name", models.FieldTypeString),
			stringField("Status", models.FieldTypeOption),
		},
		Lookups: []*models.MergeData{
			{
				TypeName:       "Account",
				Name:           "AccountId",
				ParentTypeName: "Agreement",
				Fields:         []models.DataSpec{idField(), stringField("Name", models.FieldTypeString)},
			},
		},
		RepeatSet: []*models.MergeData{
			{
				TypeName:       "LineItem",
				Name:           "AgreementId",
				ParentTypeName: "Agreement",
				Lookups: []*models.MergeData{
					{
						TypeName:       "LineItem",
						ParentTypeName: "Agreement",
						Fields:         []models.DataSpec{idField(), stringField("Amount", models.FieldTypeMoney)},
						RepeatSet: []*models.MergeData{
							{
								TypeName:       "Schedule",
								ParentTypeName: "LineItem",
								Lookups: []*models.MergeData{
									{
										TypeName: "Schedule",
										Fields:   []models.DataSpec{idField(), stringField("DueDate", models.FieldTypeDate)},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}
