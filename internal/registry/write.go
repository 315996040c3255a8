package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/capnego/internal/ir"
)

// PutElement inserts or replaces an element template. The pads are
// replaced as a whole inside one transaction. It reports whether anything
// changed: storing a template with an unchanged hash is a no-op.
func (r *Registry) PutElement(ctx context.Context, spec *ir.ElementSpec) (bool, error) {
	hash, err := ir.TemplateHash(spec)
	if err != nil {
		return false, fmt.Errorf("put element %q: %w", spec.Name, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("put element %q: begin: %w", spec.Name, err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT template_hash FROM elements WHERE name = ?`, spec.Name).Scan(&existing)
	switch {
	case err == nil && existing == hash:
		return false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("put element %q: %w", spec.Name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO elements (name, description, rank, template_hash, schema_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			rank = excluded.rank,
			template_hash = excluded.template_hash,
			schema_version = excluded.schema_version
	`, spec.Name, spec.Description, spec.Rank, hash, ir.SchemaVersion)
	if err != nil {
		return false, fmt.Errorf("put element %q: %w", spec.Name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pad_templates WHERE element = ?`, spec.Name); err != nil {
		return false, fmt.Errorf("put element %q: clear pads: %w", spec.Name, err)
	}

	for i, pad := range spec.Pads {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pad_templates (element, name, position, direction, presence, caps)
			VALUES (?, ?, ?, ?, ?, ?)
		`, spec.Name, pad.Name, i, string(pad.Direction), string(pad.Presence), pad.Caps)
		if err != nil {
			return false, fmt.Errorf("put element %q: pad %q: %w", spec.Name, pad.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("put element %q: commit: %w", spec.Name, err)
	}
	return true, nil
}

// DeleteElement removes an element and its pads.
func (r *Registry) DeleteElement(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM elements WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete element %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete element %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete element %q: %w", name, ErrNotFound)
	}
	return nil
}

// RecordNegotiation appends a negotiation to the history and returns its
// sequence number. A session ID that was already recorded is ignored and
// returns 0.
func (r *Registry) RecordNegotiation(ctx context.Context, rec ir.NegotiationRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO negotiations
		(session_id, key, mode, upstream, downstream, filter, common, fixed, outcome, cached)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING
	`,
		rec.SessionID,
		rec.Key,
		rec.Mode,
		rec.Upstream,
		rec.Downstream,
		rec.Filter,
		rec.Common,
		rec.Fixed,
		rec.Outcome,
		rec.Cached,
	)
	if err != nil {
		return 0, fmt.Errorf("record negotiation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return 0, err
	}
	return res.LastInsertId()
}
