package learning

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/stratum/pkg/models"
)

// journalSchema creates the journal tables on first open.
const journalSchema = `
CREATE TABLE IF NOT EXISTS orchestrations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id     TEXT NOT NULL,
	domain      TEXT NOT NULL,
	complexity  TEXT NOT NULL,
	priority    TEXT NOT NULL,
	status      TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	confidence  REAL NOT NULL,
	impact      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS executions (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	orchestration_id INTEGER NOT NULL REFERENCES orchestrations(id),
	subtask_id      TEXT NOT NULL,
	worker_id       TEXT,
	status          TEXT NOT NULL,
	quality         REAL NOT NULL,
	error           TEXT
);

CREATE INDEX IF NOT EXISTS idx_orchestrations_key
	ON orchestrations(domain, complexity, priority);
`

// Journal provides SQLite-backed, append-only storage of orchestration
// outcomes. It is an audit record: the engine never reads scheduling
// state back from it.
type Journal struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// DefaultJournalPath returns the journal location under the user's XDG
// data directory.
func DefaultJournalPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "stratum", "journal.db")
}

// OpenJournal opens (and if needed creates) the journal database at the
// given path, creating parent directories as required.
func OpenJournal(dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	// WAL mode allows concurrent readers while the engine appends.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := conn.Exec(journalSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}

	return &Journal{db: conn, dbPath: dbPath}, nil
}

// Append records one orchestration outcome with its executions.
func (j *Journal) Append(task *models.BusinessTask, result *models.OrchestrationResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("begin journal transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO orchestrations (task_id, domain, complexity, priority, status, duration_ms, confidence, impact, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Domain, string(task.Complexity), string(task.Priority),
		string(result.Status), result.Duration.Milliseconds(), result.Confidence,
		string(result.Impact), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert orchestration: %w", err)
	}

	orchID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("orchestration row id: %w", err)
	}

	for _, exec := range result.Executions {
		if _, err := tx.Exec(
			`INSERT INTO executions (orchestration_id, subtask_id, worker_id, status, quality, error)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			orchID, exec.SubtaskID, exec.WorkerID, string(exec.Status), exec.Quality, exec.Error,
		); err != nil {
			return fmt.Errorf("insert execution: %w", err)
		}
	}

	return tx.Commit()
}

// PatternRow is one aggregated journal row keyed like an orchestration
// pattern. Used by the patterns CLI command.
type PatternRow struct {
	Domain        string
	Complexity    string
	Priority      string
	Executions    int
	Successes     int
	AvgDurationMS float64
	AvgConfidence float64
}

// AggregatePatterns aggregates journal contents per (domain,
// complexity, priority), optionally filtered by domain.
func (j *Journal) AggregatePatterns(domain string) ([]PatternRow, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	query := `
		SELECT domain, complexity, priority,
		       COUNT(*),
		       SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END),
		       AVG(duration_ms),
		       AVG(confidence)
		FROM orchestrations`
	var args []any
	if domain != "" {
		query += " WHERE domain = ?"
		args = append(args, domain)
	}
	query += " GROUP BY domain, complexity, priority ORDER BY domain, complexity, priority"

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate journal: %w", err)
	}
	defer rows.Close()

	var out []PatternRow
	for rows.Next() {
		var r PatternRow
		if err := rows.Scan(&r.Domain, &r.Complexity, &r.Priority, &r.Executions, &r.Successes, &r.AvgDurationMS, &r.AvgConfidence); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
