// Package analytics records page visits enriched with coarse IP geolocation.
// Visits enter through the event bus so the request path never waits on the
// lookup or the write; the store keeps a bounded window of recent visits plus
// running totals that survive the cap.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mohamednajdawi/portfolio-backend/internal/infra/geoip"
)

// RetentionLimit is the number of most recent visits kept in full detail.
// Running totals and unique-visitor counts are unaffected by the cap.
const RetentionLimit = 1000

// Visit is one tracked page view.
type Visit struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	IP        string         `json:"ip"`
	Location  geoip.Location `json:"location"`
	UserAgent string         `json:"userAgent"`
	Page      string         `json:"page"`
	Referrer  string         `json:"referrer"`
}

// Snapshot is the read model served by the analytics endpoint.
type Snapshot struct {
	Visits              []Visit  `json:"visits"`
	TotalVisits         int      `json:"totalVisits"`
	UniqueVisitors      []string `json:"uniqueVisitors"`
	UniqueVisitorsCount int      `json:"uniqueVisitorsCount"`
}

// Store persists visits in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over an already-migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert records a visit, bumps the running totals, and enforces the
// retention cap inside one transaction.
func (s *Store) Insert(ctx context.Context, v Visit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("analytics: begin insert: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO visits (id, visited_at, ip, city, region, country, country_code,
		                    latitude, longitude, timezone, org, user_agent, page, referrer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Timestamp.UTC().Format(time.RFC3339Nano), v.IP,
		v.Location.City, v.Location.Region, v.Location.Country, v.Location.CountryCode,
		v.Location.Latitude, v.Location.Longitude, v.Location.Timezone, v.Location.Org,
		v.UserAgent, v.Page, v.Referrer,
	); err != nil {
		return fmt.Errorf("analytics: insert visit: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE visit_totals SET total_visits = total_visits + 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("analytics: bump total: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO unique_visitors (ip, first_seen) VALUES (?, ?)`,
		v.IP, v.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("analytics: record unique visitor: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM visits WHERE id NOT IN (
			SELECT id FROM visits ORDER BY visited_at DESC LIMIT ?
		)`, RetentionLimit); err != nil {
		return fmt.Errorf("analytics: enforce retention: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("analytics: commit visit: %w", err)
	}
	return nil
}

// Snapshot returns the retained visits (oldest first) together with the
// running totals.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, visited_at, ip, city, region, country, country_code,
		       latitude, longitude, timezone, org, user_agent, page, referrer
		FROM visits ORDER BY visited_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("analytics: query visits: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	snap := &Snapshot{Visits: []Visit{}, UniqueVisitors: []string{}}
	for rows.Next() {
		var v Visit
		var visitedAt string
		if err := rows.Scan(&v.ID, &visitedAt, &v.IP,
			&v.Location.City, &v.Location.Region, &v.Location.Country, &v.Location.CountryCode,
			&v.Location.Latitude, &v.Location.Longitude, &v.Location.Timezone, &v.Location.Org,
			&v.UserAgent, &v.Page, &v.Referrer); err != nil {
			return nil, fmt.Errorf("analytics: scan visit: %w", err)
		}
		ts, parseErr := time.Parse(time.RFC3339Nano, visitedAt)
		if parseErr != nil {
			return nil, fmt.Errorf("analytics: parse visit timestamp %q: %w", visitedAt, parseErr)
		}
		v.Timestamp = ts
		v.Location.IP = v.IP
		snap.Visits = append(snap.Visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("analytics: iterate visits: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT total_visits FROM visit_totals WHERE id = 1`).Scan(&snap.TotalVisits); err != nil {
		return nil, fmt.Errorf("analytics: query totals: %w", err)
	}

	ips, err := s.db.QueryContext(ctx, `SELECT ip FROM unique_visitors ORDER BY first_seen ASC`)
	if err != nil {
		return nil, fmt.Errorf("analytics: query unique visitors: %w", err)
	}
	defer ips.Close() //nolint:errcheck
	for ips.Next() {
		var ip string
		if err := ips.Scan(&ip); err != nil {
			return nil, fmt.Errorf("analytics: scan unique visitor: %w", err)
		}
		snap.UniqueVisitors = append(snap.UniqueVisitors, ip)
	}
	if err := ips.Err(); err != nil {
		return nil, fmt.Errorf("analytics: iterate unique visitors: %w", err)
	}
	snap.UniqueVisitorsCount = len(snap.UniqueVisitors)

	return snap, nil
}
