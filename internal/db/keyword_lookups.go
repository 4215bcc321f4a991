package db

import (
	"context"
	"fmt"

	"github.com/tuowzz/lazada-bot/internal/models"
)

// IncrementKeywordLookup upserts a keyword lookup count by outcome.
func (d *DB) IncrementKeywordLookup(ctx context.Context, keyword, outcome string) error {
	if keyword == "" || outcome == "" {
		return ErrInvalidLookup
	}
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO keyword_lookups (keyword, outcome, count, last_seen_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (keyword, outcome) DO UPDATE
		SET count = keyword_lookups.count + 1, last_seen_at = NOW()
	`, keyword, outcome)
	if err != nil {
		return fmt.Errorf("increment keyword lookup: %w", err)
	}
	return nil
}

// CountKeywordLookupsByOutcome returns total lookups per outcome across all
// keywords.
func (d *DB) CountKeywordLookupsByOutcome(ctx context.Context) (map[string]int64, error) {
	rows, err := d.Pool.Query(ctx, `SELECT outcome, SUM(count)::BIGINT FROM keyword_lookups GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var outcome string
		var count int64
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		counts[outcome] = count
	}
	return counts, rows.Err()
}

// TopKeywords returns the most looked-up keywords for one outcome.
func (d *DB) TopKeywords(ctx context.Context, outcome string, limit int) ([]models.KeywordLookup, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := d.Pool.Query(ctx, `
		SELECT keyword, outcome, count, last_seen_at
		FROM keyword_lookups
		WHERE outcome = $1
		ORDER BY count DESC, keyword
		LIMIT $2
	`, outcome, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lookups []models.KeywordLookup
	for rows.Next() {
		var l models.KeywordLookup
		if err := rows.Scan(&l.Keyword, &l.Outcome, &l.Count, &l.LastSeenAt); err != nil {
			return nil, err
		}
		lookups = append(lookups, l)
	}
	return lookups, rows.Err()
}
