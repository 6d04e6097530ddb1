package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rapidkeys/rapidkeys/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// User is one account row.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// RaceResult is one finished race recorded for an account.
type RaceResult struct {
	UserID     string
	RoomCode   string
	WPM        int
	Accuracy   int
	Progress   int
	FinishedAt time.Time
}

// ServerStore wraps SQLite access for accounts, tokens and race results.
type ServerStore struct {
	db *sql.DB
}

// OpenServer opens or creates the server database and applies migrations.
func OpenServer(path string) (*ServerStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &ServerStore{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *ServerStore) Close() error {
	return s.db.Close()
}

func (s *ServerStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tokens (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS race_results (
			id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			room_code TEXT NOT NULL,
			wpm INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			progress INTEGER NOT NULL,
			finished_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_race_results_user ON race_results(user_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateUser inserts a new account.
func (s *ServerStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt.Format(time.RFC3339Nano))
	return err
}

// UserByUsername looks an account up by username.
func (s *ServerStore) UserByUsername(ctx context.Context, username string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?`, username))
}

// UserByToken resolves an auth token to its account.
func (s *ServerStore) UserByToken(ctx context.Context, token string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT u.id, u.username, u.email, u.password_hash, u.created_at
		 FROM users u JOIN tokens t ON t.user_id = u.id
		 WHERE t.token = ?`, token))
}

func (s *ServerStore) scanUser(row *sql.Row) (User, error) {
	var u User
	var createdAt string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = parsed
	return u, nil
}

// UsernameTaken reports whether an account already uses the username.
func (s *ServerStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE username = ?`, username).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateUserEmail changes an account's email address.
func (s *ServerStore) UpdateUserEmail(ctx context.Context, userID, email string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET email = ? WHERE id = ?`, email, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertToken stores an auth token for an account.
func (s *ServerStore) InsertToken(ctx context.Context, token, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (token, user_id, created_at) VALUES (?, ?, ?)`,
		token, userID, at.Format(time.RFC3339Nano))
	return err
}

// InsertRaceResult records one finished race.
func (s *ServerStore) InsertRaceResult(ctx context.Context, r RaceResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO race_results (user_id, room_code, wpm, accuracy, progress, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.UserID, r.RoomCode, r.WPM, r.Accuracy, r.Progress, r.FinishedAt.Format(time.RFC3339Nano))
	return err
}

// Leaderboard returns the top accounts by best race speed.
func (s *ServerStore) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.username, MAX(r.wpm) AS best_wpm,
			CAST(ROUND(AVG(r.accuracy)) AS INTEGER) AS accuracy, COUNT(r.id) AS races
		 FROM race_results r JOIN users u ON u.id = r.user_id
		 GROUP BY r.user_id
		 ORDER BY best_wpm DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.BestWPM, &e.Accuracy, &e.Races); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Profile builds an account's profile view from its race history.
func (s *ServerStore) Profile(ctx context.Context, userID string) (model.Profile, error) {
	u, err := s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?`, userID))
	if err != nil {
		return model.Profile{}, err
	}
	var bestWPM sql.NullInt64
	var races int
	err = s.db.QueryRowContext(ctx,
		`SELECT MAX(wpm), COUNT(id) FROM race_results WHERE user_id = ?`, userID).
		Scan(&bestWPM, &races)
	if err != nil {
		return model.Profile{}, err
	}
	return model.Profile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		BestWPM:  int(bestWPM.Int64),
		Races:    races,
	}, nil
}
