package alert

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/havenmon/sysmond/internal/errors"
	"codeberg.org/havenmon/sysmond/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

const defaultDirPerm = 0o755

// Journal is an optional sqlite audit log of notified alert events.
// It records what was sent, not alert state: after a restart the
// engine still starts with every sensor inactive.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// NewJournal opens (or creates) the journal database.
func NewJournal(dbPath string) (*Journal, error) {
	errFactory := errors.New()

	if dbPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	logger.Debug().Str("path", dbPath).Msg("Initializing alert journal")

	if err := os.MkdirAll(filepath.Dir(dbPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS alerts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            notified_at INTEGER NOT NULL,
            sensor_id TEXT NOT NULL,
            name TEXT NOT NULL,
            value TEXT,
            threshold REAL
        )
    `)
	if err != nil {
		return errors.New().Wrap(ErrStorageInit, err)
	}

	return nil
}

// Notify implements Sink. Write failures are logged and swallowed so a
// broken journal never blocks alerting.
func (j *Journal) Notify(event Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var threshold any
	if event.Threshold != nil {
		threshold = *event.Threshold
	}

	_, err := j.db.Exec(`
        INSERT INTO alerts (notified_at, sensor_id, name, value, threshold)
        VALUES (?, ?, ?, ?, ?)
    `,
		event.At.Unix(),
		event.SensorID,
		event.Name,
		stringify(event.Value),
		threshold,
	)
	if err != nil {
		logger.ErrorWithCode(errors.New().Wrap(ErrStorageAccess, err)).Msg("Failed to journal alert")
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}
	return nil
}
