package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/capnego/internal/caps"
	"github.com/roach88/capnego/internal/ir"
)

// Element returns the template of the named element.
func (r *Registry) Element(ctx context.Context, name string) (*ir.ElementSpec, error) {
	spec := &ir.ElementSpec{Name: name}
	err := r.db.QueryRowContext(ctx, `
		SELECT description, rank FROM elements WHERE name = ?
	`, name).Scan(&spec.Description, &spec.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("element %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query element %q: %w", name, err)
	}

	spec.Pads, err = r.pads(ctx, name)
	if err != nil {
		return nil, err
	}
	return spec, nil
}

// Elements returns every element, highest rank first, then by name.
// Returns an empty slice (not nil) if the registry is empty.
func (r *Registry) Elements(ctx context.Context) ([]ir.ElementSpec, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, description, rank
		FROM elements
		ORDER BY rank DESC, name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query elements: %w", err)
	}
	defer rows.Close()

	elements := []ir.ElementSpec{}
	for rows.Next() {
		var e ir.ElementSpec
		if err := rows.Scan(&e.Name, &e.Description, &e.Rank); err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		elements = append(elements, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate elements: %w", err)
	}
	rows.Close()

	for i := range elements {
		elements[i].Pads, err = r.pads(ctx, elements[i].Name)
		if err != nil {
			return nil, err
		}
	}
	return elements, nil
}

// TemplateHash returns the stored content hash of the named element.
func (r *Registry) TemplateHash(ctx context.Context, name string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `SELECT template_hash FROM elements WHERE name = ?`, name).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("element %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query template hash %q: %w", name, err)
	}
	return hash, nil
}

func (r *Registry) pads(ctx context.Context, element string) ([]ir.PadTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, direction, presence, caps
		FROM pad_templates
		WHERE element = ?
		ORDER BY position ASC
	`, element)
	if err != nil {
		return nil, fmt.Errorf("query pads of %q: %w", element, err)
	}
	defer rows.Close()

	var pads []ir.PadTemplate
	for rows.Next() {
		var p ir.PadTemplate
		var dir, pres string
		if err := rows.Scan(&p.Name, &dir, &pres, &p.Caps); err != nil {
			return nil, fmt.Errorf("scan pad: %w", err)
		}
		p.Direction = ir.Direction(dir)
		p.Presence = ir.Presence(pres)
		pads = append(pads, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pads: %w", err)
	}
	return pads, nil
}

// PadTemplate returns the formats the element accepts on its pads of the
// given direction: the pads' caps concatenated in declaration order.
func (r *Registry) PadTemplate(ctx context.Context, element string, dir ir.Direction) (*caps.Caps, error) {
	spec, err := r.Element(ctx, element)
	if err != nil {
		return nil, err
	}
	return templateCaps(spec, dir)
}

func templateCaps(spec *ir.ElementSpec, dir ir.Direction) (*caps.Caps, error) {
	pads := spec.PadsByDirection(dir)
	if len(pads) == 0 {
		return nil, fmt.Errorf("element %q has no %s pad: %w", spec.Name, dir, ErrNotFound)
	}

	w := caps.NewWritable()
	for _, p := range pads {
		c, err := caps.FromString(p.Caps)
		if err != nil {
			return nil, fmt.Errorf("element %q pad %q: %w", spec.Name, p.Name, err)
		}
		w.AppendCaps(c)
	}
	return w.Seal(), nil
}

// Match is a pad that can accept some format of a query.
type Match struct {
	Element string
	Rank    int64
	Pad     ir.PadTemplate
}

// FindCompatible returns the pads of direction dir whose caps can intersect
// c, in element order (rank descending, then name) and pad order.
func (r *Registry) FindCompatible(ctx context.Context, c *caps.Caps, dir ir.Direction) ([]Match, error) {
	elements, err := r.Elements(ctx)
	if err != nil {
		return nil, err
	}

	matches := []Match{}
	for _, e := range elements {
		for _, p := range e.PadsByDirection(dir) {
			padCaps, err := caps.FromString(p.Caps)
			if err != nil {
				return nil, fmt.Errorf("element %q pad %q: %w", e.Name, p.Name, err)
			}
			if caps.CanIntersect(c, padCaps) {
				matches = append(matches, Match{Element: e.Name, Rank: e.Rank, Pad: p})
			}
		}
	}
	return matches, nil
}

// Negotiations returns the most recent negotiations in sequence order.
// A limit of zero or less returns the whole history.
func (r *Registry) Negotiations(ctx context.Context, limit int) ([]ir.NegotiationRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT seq, session_id, key, mode, upstream, downstream, filter, common, fixed, outcome, cached
		FROM (
			SELECT * FROM negotiations ORDER BY seq DESC LIMIT ?
		)
		ORDER BY seq ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query negotiations: %w", err)
	}
	defer rows.Close()

	records := []ir.NegotiationRecord{}
	for rows.Next() {
		var rec ir.NegotiationRecord
		if err := rows.Scan(
			&rec.Seq,
			&rec.SessionID,
			&rec.Key,
			&rec.Mode,
			&rec.Upstream,
			&rec.Downstream,
			&rec.Filter,
			&rec.Common,
			&rec.Fixed,
			&rec.Outcome,
			&rec.Cached,
		); err != nil {
			return nil, fmt.Errorf("scan negotiation: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate negotiations: %w", err)
	}
	return records, nil
}
