package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazyhaar/scrapeking/dbopen"
)

// ReplaceTerms sets the term list of kind for a run.
func (s *Store) ReplaceTerms(ctx context.Context, runID, kind string, terms []string) error {
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM terms WHERE run_id = ? AND kind = ?`, runID, kind); err != nil {
			return fmt.Errorf("store: clear terms: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO terms (run_id, kind, term) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare terms: %w", err)
		}
		defer stmt.Close()
		for _, t := range terms {
			if _, err := stmt.ExecContext(ctx, runID, kind, t); err != nil {
				return fmt.Errorf("store: insert term: %w", err)
			}
		}
		return nil
	})
}

// Terms returns a run's terms of kind, longest first then in natural order.
func (s *Store) Terms(ctx context.Context, runID, kind string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT term FROM terms WHERE run_id = ? AND kind = ?
		 ORDER BY length(term) DESC, term`, runID, kind)
	if err != nil {
		return nil, fmt.Errorf("store: terms: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("store: scan term: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
