package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/collage/internal/ir"
	"github.com/roach88/collage/internal/partition"
)

// ErrPassExists is returned when a pass ID is written twice.
var ErrPassExists = errors.New("pass already recorded")

// Pass describes one enumeration run. ID and Seq are assigned by WritePass
// when left empty.
type Pass struct {
	ID                string `json:"id"`
	Seq               int64  `json:"seq"`
	Spec              string `json:"spec"`
	Target            string `json:"target"`
	GraphName         string `json:"graph_name"`
	GraphHash         string `json:"graph_hash"`
	EnumeratorVersion string `json:"enumerator_version"`
	Count             int    `json:"candidate_count"`
}

// WritePass records a pass and its candidates in one transaction, in the
// order given. It returns the pass as stored, with ID, Seq and Count set.
//
// Seq is the next value after the highest recorded seq, so passes read back
// in the order they were written regardless of wall clock.
func (s *Store) WritePass(ctx context.Context, p Pass, cands []partition.Candidate) (Pass, error) {
	if p.ID == "" {
		p.ID = s.idGen.Generate()
	}
	if p.EnumeratorVersion == "" {
		p.EnumeratorVersion = ir.EnumeratorVersion
	}
	p.Count = len(cands)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Pass{}, fmt.Errorf("write pass: begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM passes WHERE id = ?`, p.ID).Scan(&exists)
	switch {
	case err == nil:
		return Pass{}, fmt.Errorf("write pass %s: %w", p.ID, ErrPassExists)
	case !errors.Is(err, sql.ErrNoRows):
		return Pass{}, fmt.Errorf("write pass: lookup: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM passes`).Scan(&p.Seq); err != nil {
		return Pass{}, fmt.Errorf("write pass: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO passes
		(id, seq, spec, target, graph_name, graph_hash, enumerator_version, candidate_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.Seq,
		p.Spec,
		p.Target,
		p.GraphName,
		p.GraphHash,
		p.EnumeratorVersion,
		p.Count,
	)
	if err != nil {
		return Pass{}, fmt.Errorf("write pass: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candidates
		(pass_id, ordinal, candidate_id, rule, provenance, nodes, label, composite, primitive, compiler)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Pass{}, fmt.Errorf("write pass: prepare: %w", err)
	}
	defer stmt.Close()

	for i, c := range cands {
		if err := insertCandidate(ctx, stmt, p.ID, i, c); err != nil {
			return Pass{}, fmt.Errorf("write pass: candidate %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Pass{}, fmt.Errorf("write pass: commit: %w", err)
	}
	slog.Info("pass recorded", "pass", p.ID, "seq", p.Seq, "spec", p.Spec, "candidates", p.Count)
	return p, nil
}

func insertCandidate(ctx context.Context, stmt *sql.Stmt, passID string, ordinal int, c partition.Candidate) error {
	rec := c.Record()
	id, err := ir.CandidateID(rec)
	if err != nil {
		return err
	}
	prov, err := marshalStrings(rec.Provenance)
	if err != nil {
		return err
	}
	nodes, err := marshalInts(rec.Nodes)
	if err != nil {
		return err
	}
	var label string
	if c.SubGraph != nil {
		label = c.SubGraph.Label()
	}

	_, err = stmt.ExecContext(ctx,
		passID,
		ordinal,
		id,
		c.RuleName(),
		prov,
		nodes,
		label,
		rec.Composite,
		rec.Primitive,
		rec.Compiler,
	)
	return err
}
