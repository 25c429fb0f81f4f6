package repository

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with a single connection; :memory: needs it to share one database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tip_groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			join_code TEXT UNIQUE NOT NULL,
			cutoff_minutes INTEGER NOT NULL DEFAULT 180,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS members (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			group_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			token TEXT UNIQUE NOT NULL,
			is_admin BOOLEAN DEFAULT 0,
			joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (group_id) REFERENCES tip_groups(id) ON DELETE CASCADE,
			UNIQUE(group_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS races (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			season INTEGER NOT NULL,
			round INTEGER NOT NULL,
			name TEXT NOT NULL,
			circuit TEXT,
			locality TEXT,
			country TEXT,
			qualifying_date DATETIME,
			grand_prix_date DATETIME,
			sprint_qualifying_date DATETIME,
			sprint_date DATETIME,
			synced_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(season, round)
		)`,
		`CREATE TABLE IF NOT EXISTS drivers (
			id TEXT PRIMARY KEY,
			code TEXT,
			given_name TEXT,
			family_name TEXT,
			number INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS constructors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			nationality TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS result_positions (
			race_id INTEGER NOT NULL,
			session TEXT NOT NULL,
			position INTEGER NOT NULL,
			driver_id TEXT NOT NULL,
			PRIMARY KEY (race_id, session, position),
			FOREIGN KEY (race_id) REFERENCES races(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS constructor_points (
			race_id INTEGER NOT NULL,
			constructor_id TEXT NOT NULL,
			points REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (race_id, constructor_id),
			FOREIGN KEY (race_id) REFERENCES races(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			member_id INTEGER NOT NULL,
			race_id INTEGER,
			season INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE,
			FOREIGN KEY (race_id) REFERENCES races(id) ON DELETE CASCADE,
			UNIQUE(member_id, race_id)
		)`,
		`CREATE TABLE IF NOT EXISTS prediction_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			prediction_id INTEGER NOT NULL,
			field TEXT NOT NULL,
			driver_id TEXT,
			constructor_id TEXT,
			overwrite_to TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (prediction_id) REFERENCES predictions(id) ON DELETE CASCADE,
			UNIQUE(prediction_id, field)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		// race_id is NULL for championship tips and NULLs never collide in UNIQUE
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_predictions_championship ON predictions(member_id, season) WHERE race_id IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_members_group ON members(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_races_season ON races(season)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_member ON predictions(member_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_prediction ON prediction_entries(prediction_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting updates a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

// ==================== Stats Methods ====================

var statsQueries = []struct {
	key   string
	query string
}{
	{"total_groups", `SELECT COUNT(*) FROM tip_groups`},
	{"total_members", `SELECT COUNT(*) FROM members`},
	{"total_races", `SELECT COUNT(*) FROM races`},
	{"scored_races", `SELECT COUNT(DISTINCT race_id) FROM result_positions`},
	{"total_entries", `SELECT COUNT(*) FROM prediction_entries`},
	{"overwritten_entries", `SELECT COUNT(*) FROM prediction_entries WHERE overwrite_to IS NOT NULL AND overwrite_to != ''`},
}

// GetStats returns row counts for the admin dashboard
func (r *Repository) GetStats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int, len(statsQueries))
	for _, q := range statsQueries {
		var n int
		if err := r.db.QueryRowContext(ctx, q.query).Scan(&n); err != nil {
			return nil, err
		}
		stats[q.key] = n
	}
	return stats, nil
}

// ==================== Database Management Methods ====================

// validTables defines which tables can be safely cleared
var validTables = map[string]bool{
	"prediction_entries": true, "predictions": true, "result_positions": true, "constructor_points": true,
}

// ClearTable clears all data from a table
// Only allows clearing whitelisted tables to prevent SQL injection
func (r *Repository) ClearTable(ctx context.Context, table string) error {
	if !validTables[table] {
		return ErrInvalidTable
	}

	_, err := r.db.ExecContext(ctx, "DELETE FROM "+table)
	return err
}

// nullString maps "" to NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullInt returns NULL for a nil id
func nullInt(id *int) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}
