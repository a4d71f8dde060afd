package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/scrapeking/dbopen"
	"github.com/hazyhaar/scrapeking/internal/site"
)

// InsertPage stores rec under id. rec.RunID must name an existing run.
func (s *Store) InsertPage(ctx context.Context, id string, rec *site.PageRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal page: %w", err)
	}
	cards, nodes, failed := rec.Stats()
	_, err = dbopen.Exec(ctx, s.DB, `
		INSERT INTO pages (id, run_id, url, x, y, cards, nodes, failed_nodes, record, harvested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.RunID, rec.URL, rec.X, rec.Y, cards, nodes, failed, string(b), rec.HarvestedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("store: insert page: %w", err)
	}
	return nil
}

// Pages returns the records of a run in harvest order.
func (s *Store) Pages(ctx context.Context, runID string) ([]*site.PageRecord, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT record FROM pages WHERE run_id = ? ORDER BY harvested_at, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: pages: %w", err)
	}
	defer rows.Close()

	out := []*site.PageRecord{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scan page: %w", err)
		}
		rec := &site.PageRecord{}
		if err := json.Unmarshal([]byte(raw), rec); err != nil {
			return nil, fmt.Errorf("store: decode page: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
