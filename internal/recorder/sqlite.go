package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the dashboard can read history while a cycle writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycles (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			cycle_id       TEXT NOT NULL,
			confirmed      INTEGER,
			dry_run        INTEGER,
			ir_count       INTEGER,
			lineup_count   INTEGER,
			stream_outcome TEXT,
			stream_code    TEXT,
			stream_reason  TEXT,
			quota_used     INTEGER,
			quota_limit    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			cycle_id      TEXT NOT NULL,
			kind          TEXT,
			description   TEXT,
			player_out_id INTEGER,
			player_in_id  INTEGER,
			gain          REAL,
			status        TEXT,
			error         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_ts ON transactions(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_cycle ON transactions(cycle_id)`,

		`CREATE TABLE IF NOT EXISTS lineup_checks (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			cycle_id     TEXT NOT NULL,
			urgent       INTEGER,
			no_game      INTEGER,
			questionable INTEGER,
			auto_swapped INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lineup_checks_ts ON lineup_checks(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(rec *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO cycles
		(timestamp, cycle_id, confirmed, dry_run, ir_count, lineup_count,
		 stream_outcome, stream_code, stream_reason, quota_used, quota_limit)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.CycleID, rec.Confirmed, rec.DryRun, rec.IRCount, rec.LineupCount,
		rec.StreamOutcome, rec.StreamCode, rec.StreamReason, rec.QuotaUsed, rec.QuotaLimit,
	)
	return err
}

func (r *SQLiteRecorder) RecordTransaction(rec *TransactionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO transactions
		(timestamp, cycle_id, kind, description, player_out_id, player_in_id, gain, status, error)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		ts.Unix(), rec.CycleID, rec.Kind, rec.Description,
		rec.PlayerOutID, rec.PlayerInID, rec.Gain, string(rec.Status), rec.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordLineupCheck(rec *LineupCheckRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO lineup_checks
		(timestamp, cycle_id, urgent, no_game, questionable, auto_swapped)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), rec.CycleID, rec.Urgent, rec.NoGame, rec.Questionable, rec.AutoSwapped,
	)
	return err
}

// RecentTransactions returns the newest transactions first.
func (r *SQLiteRecorder) RecentTransactions(limit int) ([]TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, cycle_id, kind, description, player_out_id, player_in_id, gain, status, error
		FROM transactions ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []TransactionRecord
	for rows.Next() {
		var rec TransactionRecord
		var ts int64
		var status string
		if err := rows.Scan(&ts, &rec.CycleID, &rec.Kind, &rec.Description,
			&rec.PlayerOutID, &rec.PlayerInID, &rec.Gain, &status, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		rec.Timestamp = time.Unix(ts, 0)
		rec.Status = TransactionStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
