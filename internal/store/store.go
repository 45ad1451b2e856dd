// Package store keeps a SQLite history of played matches, round by round,
// and exports it in the replay testcase format.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peterkuimelis/pillz/internal/game"
	"github.com/peterkuimelis/pillz/internal/replay"
	"github.com/peterkuimelis/pillz/internal/store/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	ErrNotFound      = errors.New("match not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Store persists match history in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Match is a stored match header.
type Match struct {
	ID        string
	Setup     game.Setup
	Status    game.GameStatus
	Rounds    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// NewMatchID returns a fresh match identifier.
func NewMatchID() string {
	return uuid.NewString()
}

// Open opens the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateMatch records a new match from its setup. Life and pillz are the
// effective starting values.
func (s *Store) CreateMatch(ctx context.Context, id string, setup game.Setup) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("match id is required")
	}
	cards, err := json.Marshal(setup.Cards)
	if err != nil {
		return err
	}
	now := toMillis(time.Now())
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO matches (id, cards, flip, life, pillz, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(cards), setup.Flip, setup.Life, setup.Pillz, game.StatusPlaying.String(), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("match %s: %w", id, ErrAlreadyExists)
		}
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// AppendRound stores the next resolved round of a match.
func (s *Store) AppendRound(ctx context.Context, id string, round int, r replay.Round) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append round: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rounds (match_id, round,
		   s1_index, s1_pillz, s1_fury, s2_index, s2_pillz, s2_fury,
		   p1_life, p2_life, p1_pillz, p2_pillz)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, round,
		r.S1.Index, r.S1.Pillz, r.S1.Fury, r.S2.Index, r.S2.Pillz, r.S2.Fury,
		r.P1Life, r.P2Life, r.P1Pillz, r.P2Pillz,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("match %s round %d: %w", id, round, ErrAlreadyExists)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("match %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("append round: %w", err)
	}
	if err := touch(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// FinishMatch stores the final status.
func (s *Store) FinishMatch(ctx context.Context, id string, status game.GameStatus) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE matches SET status = ?, updated_at = ? WHERE id = ?`,
		status.String(), toMillis(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("finish match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	return nil
}

func touch(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `UPDATE matches SET updated_at = ? WHERE id = ?`, toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("touch match: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- Queries ---

type rowScanner interface {
	Scan(dest ...any) error
}

const matchColumns = `m.id, m.cards, m.flip, m.life, m.pillz, m.status, m.created_at, m.updated_at,
	(SELECT COUNT(*) FROM rounds r WHERE r.match_id = m.id)`

func scanMatch(row rowScanner) (Match, error) {
	var (
		m         Match
		cards     string
		status    string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&m.ID, &cards, &m.Setup.Flip, &m.Setup.Life, &m.Setup.Pillz,
		&status, &createdAt, &updatedAt, &m.Rounds); err != nil {
		return Match{}, err
	}
	if err := json.Unmarshal([]byte(cards), &m.Setup.Cards); err != nil {
		return Match{}, fmt.Errorf("match %s cards: %w", m.ID, err)
	}
	m.Status = parseStatus(status)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	return m, nil
}

func parseStatus(s string) game.GameStatus {
	for _, st := range []game.GameStatus{game.StatusPlayer, game.StatusOpponent, game.StatusDraw} {
		if st.String() == s {
			return st
		}
	}
	return game.StatusPlaying
}

// GetMatch returns one match header.
func (s *Store) GetMatch(ctx context.Context, id string) (Match, error) {
	m, err := scanMatch(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches m WHERE m.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Match{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Match{}, fmt.Errorf("get match: %w", err)
	}
	return m, nil
}

// ListMatches returns the most recent matches first.
func (s *Store) ListMatches(ctx context.Context, limit int) ([]Match, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches m ORDER BY m.created_at DESC, m.id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("list matches: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Rounds returns the stored rounds of a match in order.
func (s *Store) Rounds(ctx context.Context, id string) ([]replay.Round, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT s1_index, s1_pillz, s1_fury, s2_index, s2_pillz, s2_fury,
		        p1_life, p2_life, p1_pillz, p2_pillz
		   FROM rounds WHERE match_id = ? ORDER BY round`, id)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var out []replay.Round
	for rows.Next() {
		var r replay.Round
		if err := rows.Scan(&r.S1.Index, &r.S1.Pillz, &r.S1.Fury, &r.S2.Index, &r.S2.Pillz, &r.S2.Fury,
			&r.P1Life, &r.P2Life, &r.P1Pillz, &r.P2Pillz); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Testcase rebuilds a stored match as a replay testcase.
func (s *Store) Testcase(ctx context.Context, id string) (replay.Testcase, error) {
	m, err := s.GetMatch(ctx, id)
	if err != nil {
		return replay.Testcase{}, err
	}
	rounds, err := s.Rounds(ctx, id)
	if err != nil {
		return replay.Testcase{}, err
	}
	return replay.Testcase{
		Cards: m.Setup.Cards,
		Flip:  m.Setup.Flip == 1,
		Life:  m.Setup.Life,
		Pillz: m.Setup.Pillz,
		Moves: rounds,
	}, nil
}

// ExportTestcases converts every finished match, oldest first.
func (s *Store) ExportTestcases(ctx context.Context) ([]replay.Testcase, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id FROM matches WHERE status <> ? ORDER BY created_at, id`, game.StatusPlaying.String())
	if err != nil {
		return nil, fmt.Errorf("export matches: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cases := make([]replay.Testcase, 0, len(ids))
	for _, id := range ids {
		tc, err := s.Testcase(ctx, id)
		if err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}
