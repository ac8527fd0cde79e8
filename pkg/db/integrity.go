package db

import (
	"context"
	"fmt"

	"github.com/japaniel/oewn/pkg/lmf"
)

// IntegrityReport lists what ResolveIntegrity removed.
type IntegrityReport struct {
	DroppedSenses         int
	DroppedPronunciations int
	DroppedRelations      []Relation
}

// Total returns the number of dropped rows.
func (r IntegrityReport) Total() int {
	return r.DroppedSenses + r.DroppedPronunciations + len(r.DroppedRelations)
}

// ResolveIntegrity runs after all rows are staged. It deletes senses whose
// entry or synset is missing, pronunciations of missing entries, and then
// relations with an endpoint that does not resolve within their scope.
func ResolveIntegrity(ctx context.Context, db DBExecutor) (IntegrityReport, error) {
	var rep IntegrityReport

	res, err := db.ExecContext(ctx,
		`DELETE FROM senses
		 WHERE entry_id NOT IN (SELECT id FROM lexical_entries)
		    OR synset_id NOT IN (SELECT id FROM synsets)`)
	if err != nil {
		return rep, fmt.Errorf("drop orphan senses: %w", err)
	}
	n, _ := res.RowsAffected()
	rep.DroppedSenses = int(n)

	res, err = db.ExecContext(ctx,
		`DELETE FROM pronunciations WHERE entry_id NOT IN (SELECT id FROM lexical_entries)`)
	if err != nil {
		return rep, fmt.Errorf("drop orphan pronunciations: %w", err)
	}
	n, _ = res.RowsAffected()
	rep.DroppedPronunciations = int(n)

	const dangling = `
		FROM relations
		WHERE (scope = 'sense' AND (
		          source_id NOT IN (SELECT id FROM senses) OR
		          target_id NOT IN (SELECT id FROM senses)))
		   OR (scope = 'synset' AND (
		          source_id NOT IN (SELECT id FROM synsets) OR
		          target_id NOT IN (SELECT id FROM synsets)))
		   OR scope NOT IN ('sense', 'synset')`

	rows, err := db.QueryContext(ctx, `SELECT scope, source_id, rel_type, target_id `+dangling)
	if err != nil {
		return rep, fmt.Errorf("find dangling relations: %w", err)
	}
	for rows.Next() {
		var r Relation
		var scope, relType string
		if err := rows.Scan(&scope, &r.SourceID, &relType, &r.TargetID); err != nil {
			rows.Close()
			return rep, err
		}
		r.Scope, r.Type = lmf.Scope(scope), lmf.RelationType(relType)
		rep.DroppedRelations = append(rep.DroppedRelations, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return rep, err
	}

	if len(rep.DroppedRelations) > 0 {
		if _, err := db.ExecContext(ctx, `DELETE `+dangling); err != nil {
			return rep, fmt.Errorf("drop dangling relations: %w", err)
		}
	}
	return rep, nil
}
