package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/collage/internal/ir"
)

// StoredCandidate is a candidate as recorded in a pass.
type StoredCandidate struct {
	Ordinal int    `json:"ordinal"`
	ID      string `json:"id"`
	Rule    string `json:"rule"`
	Label   string `json:"label"`
	ir.CandidateRecord
}

// ListPasses returns every recorded pass ordered by seq.
//
// Returns an empty slice (not nil) if nothing has been recorded.
func (s *Store) ListPasses(ctx context.Context) ([]Pass, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, spec, target, graph_name, graph_hash, enumerator_version, candidate_count
		FROM passes
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	passes := []Pass{}
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return passes, nil
}

// ReadPass retrieves a single pass by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadPass(ctx context.Context, id string) (Pass, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, spec, target, graph_name, graph_hash, enumerator_version, candidate_count
		FROM passes
		WHERE id = ?
	`, id)
	return scanPass(row)
}

// LatestPass returns the pass with the highest seq.
// Returns sql.ErrNoRows if nothing has been recorded.
func (s *Store) LatestPass(ctx context.Context) (Pass, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, spec, target, graph_name, graph_hash, enumerator_version, candidate_count
		FROM passes
		ORDER BY seq DESC
		LIMIT 1
	`)
	return scanPass(row)
}

// ReadCandidates returns the candidates of a pass in enumeration order.
//
// Returns an empty slice (not nil) for an unknown pass or an empty pass.
func (s *Store) ReadCandidates(ctx context.Context, passID string) ([]StoredCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ordinal, candidate_id, rule, provenance, nodes, label, composite, primitive, compiler
		FROM candidates
		WHERE pass_id = ?
		ORDER BY ordinal ASC
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	cands := []StoredCandidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		cands = append(cands, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return cands, nil
}

// FindCandidate returns the passes that produced a candidate ID, ordered by
// pass seq. The same candidate recurs across passes over the same graph.
func (s *Store) FindCandidate(ctx context.Context, candidateID string) ([]Pass, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT p.id, p.seq, p.spec, p.target, p.graph_name, p.graph_hash, p.enumerator_version, p.candidate_count
		FROM passes p
		JOIN candidates c ON c.pass_id = p.id
		WHERE c.candidate_id = ?
		ORDER BY p.seq ASC
	`, candidateID)
	if err != nil {
		return nil, fmt.Errorf("query candidate passes: %w", err)
	}
	defer rows.Close()

	passes := []Pass{}
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate passes: %w", err)
	}
	return passes, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPass(row scanner) (Pass, error) {
	var p Pass
	if err := row.Scan(
		&p.ID, &p.Seq, &p.Spec, &p.Target, &p.GraphName, &p.GraphHash, &p.EnumeratorVersion, &p.Count,
	); err != nil {
		return Pass{}, err
	}
	return p, nil
}

func scanCandidate(rows *sql.Rows) (StoredCandidate, error) {
	var c StoredCandidate
	var provJSON, nodesJSON string

	if err := rows.Scan(
		&c.Ordinal, &c.ID, &c.Rule, &provJSON, &nodesJSON, &c.Label,
		&c.Composite, &c.Primitive, &c.Compiler,
	); err != nil {
		return StoredCandidate{}, fmt.Errorf("scan candidate: %w", err)
	}

	prov, err := unmarshalStrings(provJSON)
	if err != nil {
		return StoredCandidate{}, err
	}
	c.Provenance = prov

	nodes, err := unmarshalInts(nodesJSON)
	if err != nil {
		return StoredCandidate{}, err
	}
	c.Nodes = nodes

	return c, nil
}
