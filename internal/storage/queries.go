package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/dcwbuild/internal/model"
)

// Build statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Build is one row of the build ledger.
type Build struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time // zero while running
	Status         string
	Error          string
	BungieStatus   int
	CurrentEventID int
	Clans          int
	Members        int
	Events         int
	Files          int
}

// Duration is zero for builds that never finished.
func (b Build) Duration() time.Duration {
	if b.FinishedAt.IsZero() {
		return 0
	}
	return b.FinishedAt.Sub(b.StartedAt)
}

// Standing is one clan's placing in one division of one event, as recorded by a build.
type Standing struct {
	BuildID  string
	EventID  int
	Division string
	Rank     int
	ClanID   string
	Name     string
	Score    int
}

// StartBuild records a build as running.
func (db *DB) StartBuild(id string, started time.Time) error {
	_, err := db.conn.Exec(`INSERT INTO builds(id, started_at, status) VALUES (?, ?, ?)`,
		id, formatTime(started), StatusRunning)
	if err != nil {
		return fmt.Errorf("start build %s: %w", id, err)
	}
	return nil
}

// FinishBuild marks a build successful and stores the snapshot's headline counts.
func (db *DB) FinishBuild(id string, finished time.Time, snap *model.Snapshot, files int) error {
	res, err := db.conn.Exec(`
		UPDATE builds SET finished_at = ?, status = ?, error = '',
		       bungie_status = ?, current_event_id = ?,
		       clans = ?, members = ?, events = ?, files = ?
		WHERE id = ?`,
		formatTime(finished), StatusOK,
		snap.ApiStatus.BungieStatus, snap.CurrentEventID,
		len(snap.Clans), len(snap.Members), len(snap.Events), files,
		id,
	)
	if err != nil {
		return fmt.Errorf("finish build %s: %w", id, err)
	}
	return expectOne(res, id)
}

// FailBuild marks a build failed with the given cause.
func (db *DB) FailBuild(id string, finished time.Time, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := db.conn.Exec(`UPDATE builds SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
		formatTime(finished), StatusFailed, msg, id)
	if err != nil {
		return fmt.Errorf("fail build %s: %w", id, err)
	}
	return expectOne(res, id)
}

// SaveStandings stores every event's division standings from an aggregated
// snapshot. Uses INSERT OR REPLACE for idempotency.
func (db *DB) SaveStandings(id string, snap *model.Snapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO standings(build_id, event_id, division, rank, clan_id, name, score)
		VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range snap.Events {
		for _, d := range e.Leaderboards {
			for _, r := range d.Rows {
				if _, err := stmt.Exec(id, e.ID, d.Division.Name, r.Rank, r.ClanID, r.Name, r.Score); err != nil {
					return fmt.Errorf("insert standing %d/%s/%s: %w", e.ID, d.Division.Name, r.ClanID, err)
				}
			}
		}
	}
	return tx.Commit()
}

// ListBuilds returns up to limit builds, newest first. A limit <= 0 returns all.
func (db *DB) ListBuilds(limit int) ([]Build, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, status, error, bungie_status, current_event_id,
		       clans, members, events, files
		FROM builds ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetBuildByPrefix finds the newest build whose id starts with the given prefix.
func (db *DB) GetBuildByPrefix(prefix string) (*Build, error) {
	row := db.conn.QueryRow(`
		SELECT id, started_at, finished_at, status, error, bungie_status, current_event_id,
		       clans, members, events, files
		FROM builds WHERE id LIKE ? ORDER BY started_at DESC LIMIT 1`, prefix+"%")
	b, err := scanBuild(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// LatestSuccessful returns the newest build with status ok, or nil.
func (db *DB) LatestSuccessful() (*Build, error) {
	row := db.conn.QueryRow(`
		SELECT id, started_at, finished_at, status, error, bungie_status, current_event_id,
		       clans, members, events, files
		FROM builds WHERE status = ? ORDER BY started_at DESC LIMIT 1`, StatusOK)
	b, err := scanBuild(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Standings returns the standings a build recorded for one event, ordered by
// division then rank.
func (db *DB) Standings(buildID string, eventID int) ([]Standing, error) {
	rows, err := db.conn.Query(`
		SELECT division, rank, clan_id, name, score
		FROM standings WHERE build_id = ? AND event_id = ?
		ORDER BY division, rank, name`, buildID, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		s := Standing{BuildID: buildID, EventID: eventID}
		if err := rows.Scan(&s.Division, &s.Rank, &s.ClanID, &s.Name, &s.Score); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteBuild removes a build and its standings. Returns false if no build matched.
func (db *DB) DeleteBuild(id string) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM standings WHERE build_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete standings for %s: %w", id, err)
	}
	res, err := tx.Exec(`DELETE FROM builds WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete build %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(s scanner) (Build, error) {
	var b Build
	var started, finished string
	if err := s.Scan(&b.ID, &started, &finished, &b.Status, &b.Error,
		&b.BungieStatus, &b.CurrentEventID, &b.Clans, &b.Members, &b.Events, &b.Files); err != nil {
		return Build{}, err
	}
	b.StartedAt = parseTime(started)
	b.FinishedAt = parseTime(finished)
	return b, nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("build %s not found", id)
	}
	return nil
}

// timeLayout is fixed width so stored stamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(timeLayout, s)
	return t
}

// QueryRaw runs an arbitrary query and returns column names and rows rendered as strings.
func (db *DB) QueryRaw(query string, args ...any) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
