// Package mergedata resolves a merge data specification tree against the record store.
package mergedata

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/attribute"
	generr "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/query"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

// RecordStore runs fetches built by the query package.
type RecordStore interface {
	Fetch(ctx context.Context, q *query.Query) ([]*models.Record, error)
}

type Config struct {
	// RepeatSetConcurrency bounds how many sibling rows of one repeat set resolve at once.
	RepeatSetConcurrency int
}

type Resolver struct {
	logger     ectologger.Logger
	store      RecordStore
	attributes *attribute.Resolver
	config     Config
}

func NewResolver(logger ectologger.Logger, store RecordStore, attributes *attribute.Resolver, config Config) *Resolver {
	if config.RepeatSetConcurrency < 1 {
		config.RepeatSetConcurrency = 1
	}

	return &Resolver{
		logger:     logger,
		store:      store,
		attributes: attributes,
		config:     config,
	}
}

// Resolve returns a resolved copy of root for the record identified by anchorID. root is
// not modified.
func (r *Resolver) Resolve(ctx context.Context, rc *Context, root *models.MergeData, anchorID string) (*models.MergeData, error) {
	ctx, span := tracing.StartSpan(ctx, "mergedata.Resolve")
	defer span.End()

	start := time.Now()
	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"entity":    root.TypeName,
		"anchor_id": anchorID,
	})

	row, found, err := r.fetchByMarker(ctx, root, anchorID)
	if err != nil {
		return nil, r.stageError(err, generr.StageMergeData, root.TypeName, anchorID)
	}
	if !found {
		return nil, generr.Newf(generr.KindResolution, "no %s record found with %s '%s'", root.TypeName, root.IDFieldName(), anchorID).
			AddStage(generr.StageMergeData).
			AddEntity(root.TypeName).
			AddRecordID(anchorID)
	}

	resolved, err := r.resolveRow(ctx, rc, root, row)
	if err != nil {
		return nil, r.stageError(err, generr.StageMergeData, root.TypeName, anchorID)
	}

	log.WithField("elapsed_ms", time.Since(start).Milliseconds()).Debug("merge data resolved")
	return resolved, nil
}

// fetchByMarker loads the first record of node whose ID-marker equals id.
func (r *Resolver) fetchByMarker(ctx context.Context, node *models.MergeData, id string) (*models.Record, bool, error) {
	q := query.Build(node).
		AddColumns(node.IDFieldName()).
		AddCondition(node.IDFieldName(), query.OperatorEq, id)

	rows, err := r.store.Fetch(ctx, q)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// resolveRow resolves node against a row fetched for node's own entity.
func (r *Resolver) resolveRow(ctx context.Context, rc *Context, node *models.MergeData, row *models.Record) (*models.MergeData, error) {
	out := &models.MergeData{
		TypeName:       node.TypeName,
		Name:           node.Name,
		ParentTypeName: node.ParentTypeName,
	}

	metadata, err := rc.Metadata(ctx, node.TypeName)
	if err != nil {
		return nil, err
	}

	out.Fields, err = r.resolveFields(metadata, row, node.Fields, "")
	if err != nil {
		return nil, err
	}

	for _, lookup := range node.Lookups {
		// skipped the same way query.Build skips them, so no join exists for them either
		if lookup == nil || lookup.TypeName == "" {
			continue
		}
		resolved, err := r.resolveLookup(ctx, rc, node, lookup, row)
		if err != nil {
			return nil, err
		}
		out.Lookups = append(out.Lookups, resolved)
	}

	anchor := models.FormatID(rowValue(row, node.IDFieldName()))
	out.RepeatSet, err = r.resolveRepeatSets(ctx, rc, node, node.RepeatSet, anchor)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// resolveRepeatSets expands each entry against anchor and drops the entries left empty.
func (r *Resolver) resolveRepeatSets(ctx context.Context, rc *Context, parent *models.MergeData, entries []*models.MergeData, anchor string) ([]*models.MergeData, error) {
	var out []*models.MergeData
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		expanded, err := r.resolveRepeatSet(ctx, rc, parent, entry, anchor)
		if err != nil {
			return nil, err
		}
		if expanded.IsEmpty() {
			continue
		}
		out = append(out, expanded)
	}
	return out, nil
}

// resolveLookup resolves a to-one child. Plain lookups read the columns joined into the
// parent row. Lookups with their own lookups or repeat sets are fetched on their own,
// anchored on the parent's foreign key.
func (r *Resolver) resolveLookup(ctx context.Context, rc *Context, parent, lookup *models.MergeData, row *models.Record) (*models.MergeData, error) {
	if !lookup.HasNested() {
		if len(parent.Fields) == 0 && len(lookup.Fields) > 0 {
			r.logger.WithContext(ctx).WithFields(map[string]any{
				"entity": lookup.TypeName,
				"parent": parent.TypeName,
			}).Warn("lookup is not joined because its parent selects no fields")
		}

		metadata, err := rc.Metadata(ctx, lookup.TypeName)
		if err != nil {
			return nil, err
		}

		out := &models.MergeData{
			TypeName:       lookup.TypeName,
			Name:           lookup.Name,
			ParentTypeName: lookup.ParentTypeName,
		}
		out.Fields, err = r.resolveFields(metadata, row, lookup.Fields, query.JoinAlias(parent.TypeName, lookup.Name))
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	foreignKey := models.FormatID(rowValue(row, lookup.Name))
	if foreignKey == "" {
		return unresolved(lookup), nil
	}

	target, found, err := r.fetchByMarker(ctx, lookup, foreignKey)
	if err != nil {
		return nil, generr.Wrap(generr.KindResolution, err, "failed to fetch lookup").AddEntity(lookup.TypeName).AddRecordID(foreignKey)
	}
	if !found {
		r.logger.WithContext(ctx).WithFields(map[string]any{
			"entity": lookup.TypeName,
			"id":     foreignKey,
		}).Warn("lookup references a missing record")
		return unresolved(lookup), nil
	}

	return r.resolveRow(ctx, rc, lookup, target)
}

func (r *Resolver) resolveFields(metadata *models.ObjectMetadata, row *models.Record, fields []models.DataSpec, alias string) ([]models.DataSpec, error) {
	if fields == nil {
		return nil, nil
	}

	resolved := make([]models.DataSpec, len(fields))
	for i, field := range fields {
		path := strings.ToLower(field.Name)
		if alias != "" {
			path = alias + "." + path
		}

		value, err := r.attributes.Resolve(metadata, row, path)
		if err != nil {
			return nil, err
		}

		resolved[i] = models.DataSpec{
			Name:  field.Name,
			Type:  field.Type,
			IsID:  field.IsID,
			Value: value,
		}
	}
	return resolved, nil
}

// resolveRepeatSet expands a to-many entry into one resolved copy of its template per
// child row. The template itself is not part of the result. Repeat sets nested directly in
// the entry hang off the same parent record and are expanded against the same anchor.
func (r *Resolver) resolveRepeatSet(ctx context.Context, rc *Context, parent, entry *models.MergeData, anchor string) (*models.MergeData, error) {
	out := &models.MergeData{
		TypeName:       entry.TypeName,
		Name:           entry.Name,
		ParentTypeName: entry.ParentTypeName,
		Fields:         copyFields(entry.Fields),
	}

	var err error
	out.RepeatSet, err = r.resolveRepeatSets(ctx, rc, parent, entry.RepeatSet, anchor)
	if err != nil {
		return nil, err
	}

	if len(entry.Lookups) == 0 || entry.Lookups[0] == nil {
		return out, nil
	}
	template := entry.Lookups[0]

	ctx, span := tracing.StartSpan(ctx, "mergedata.RepeatSet")
	defer span.End()

	link, err := r.linkField(ctx, rc, parent, entry, template)
	if err != nil {
		return nil, r.stageError(err, generr.StageRepeatSet, template.TypeName, anchor)
	}

	q := query.Build(template).
		AddColumns(template.IDFieldName()).
		AddCondition(link, query.OperatorEq, anchor)

	rows, err := r.store.Fetch(ctx, q)
	if err != nil {
		return nil, r.stageError(err, generr.StageRepeatSet, template.TypeName, anchor)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"entity":    template.TypeName,
		"link":      link,
		"anchor_id": anchor,
		"rows":      len(rows),
	}).Debug("expanding repeat set")

	out.Lookups, err = r.resolveRows(ctx, rc, template, rows)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// resolveRows resolves one copy of template per row, keeping row order.
func (r *Resolver) resolveRows(ctx context.Context, rc *Context, template *models.MergeData, rows []*models.Record) ([]*models.MergeData, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	results := make([]*models.MergeData, len(rows))
	resolveOne := func(ctx context.Context, i int) error {
		resolved, err := r.resolveRow(ctx, rc, template, rows[i])
		if err != nil {
			rowID := models.FormatID(rowValue(rows[i], template.IDFieldName()))
			return r.stageError(err, generr.StageRepeatSet, template.TypeName, rowID)
		}
		results[i] = resolved
		return nil
	}

	if r.config.RepeatSetConcurrency == 1 || len(rows) == 1 {
		for i := range rows {
			if err := resolveOne(ctx, i); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.RepeatSetConcurrency)
	for i := range rows {
		g.Go(func() error {
			return resolveOne(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// linkField finds the child column that points back at the parent record: the entry's
// name when given, otherwise the child's lookup field referencing the parent entity.
func (r *Resolver) linkField(ctx context.Context, rc *Context, parent, entry, template *models.MergeData) (string, error) {
	if entry.Name != "" {
		return strings.ToLower(entry.Name), nil
	}

	metadata, err := rc.Metadata(ctx, template.TypeName)
	if err != nil {
		return "", err
	}

	candidates := []string{entry.ParentTypeName, template.ParentTypeName, parent.TypeName}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if field, ok := metadata.LookupFieldTo(candidate); ok {
			return strings.ToLower(field.Name), nil
		}
	}

	return "", generr.Newf(generr.KindConfiguration, "entity '%s' has no lookup field referencing '%s'", template.TypeName, parent.TypeName)
}

func (r *Resolver) stageError(err error, stage, entity, recordID string) error {
	return generr.Wrap(generr.KindResolution, err, "failed to resolve "+stage).
		AddStage(stage).
		AddEntity(strings.ToLower(entity)).
		AddRecordID(recordID)
}

// unresolved copies a lookup whose target record does not exist. Its fields stay empty and
// its repeat sets are dropped because there is nothing to anchor them on.
func unresolved(lookup *models.MergeData) *models.MergeData {
	out := &models.MergeData{
		TypeName:       lookup.TypeName,
		Name:           lookup.Name,
		ParentTypeName: lookup.ParentTypeName,
	}
	for _, field := range lookup.Fields {
		out.Fields = append(out.Fields, models.DataSpec{Name: field.Name, Type: field.Type, IsID: field.IsID})
	}
	for _, nested := range lookup.Lookups {
		if nested == nil {
			continue
		}
		out.Lookups = append(out.Lookups, unresolved(nested))
	}
	return out
}

func copyFields(fields []models.DataSpec) []models.DataSpec {
	if fields == nil {
		return nil
	}
	copied := make([]models.DataSpec, len(fields))
	for i, field := range fields {
		copied[i] = field
		if field.Value != nil {
			value := *field.Value
			copied[i].Value = &value
		}
	}
	return copied
}

func rowValue(row *models.Record, field string) any {
	value, _ := row.Get(field)
	return value
}
