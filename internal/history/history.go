package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/TheBluWiz/disk-burnin/internal/burnin"
)

// Store es el registro histórico de ejecuciones. Cada quema inserta su resumen en
// una base SQLite local para poder comparar pasadas sucesivas del mismo dispositivo.
type Store struct {
	db *sql.DB
}

// Entry es el resumen persistido de una ejecución
type Entry struct {
	ID            int64
	Started       time.Time
	Dir           string
	TotalMB       int
	Verdict       string
	Failures      int
	ThroughputMBs float64
	Elapsed       time.Duration
}

// DefaultPath devuelve la ruta por defecto de la base de datos del historial
func DefaultPath() string {
	if cache, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cache, "disk-burnin", "history.db")
	}
	return filepath.Join(os.TempDir(), "disk_burnin_history.db")
}

// Open abre (o crea) la base del historial
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("error al crear directorio: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error al abrir base de datos: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS burn_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started INTEGER NOT NULL,
			dir TEXT NOT NULL,
			total_mb INTEGER NOT NULL,
			verdict TEXT NOT NULL,
			failures INTEGER NOT NULL,
			throughput_mbs REAL NOT NULL,
			elapsed_ms INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error al crear tabla: %w", err)
	}

	return &Store{db: db}, nil
}

// Record inserta el resumen de una ejecución terminada
func (s *Store) Record(dir string, result *burnin.Result) error {
	_, err := s.db.Exec(
		"INSERT INTO burn_runs (started, dir, total_mb, verdict, failures, throughput_mbs, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?, ?)",
		result.StartTime.UnixNano(),
		dir,
		result.TotalMB,
		result.Verdict(),
		len(result.Failures),
		result.ThroughputMBs,
		result.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("error al registrar ejecución: %w", err)
	}
	return nil
}

// Recent devuelve las últimas ejecuciones registradas, la más nueva primero
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		"SELECT id, started, dir, total_mb, verdict, failures, throughput_mbs, elapsed_ms FROM burn_runs ORDER BY started DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("error al consultar historial: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var started, elapsedMS int64
		if err := rows.Scan(&e.ID, &started, &e.Dir, &e.TotalMB, &e.Verdict, &e.Failures, &e.ThroughputMBs, &elapsedMS); err != nil {
			return nil, fmt.Errorf("error al leer historial: %w", err)
		}
		e.Started = time.Unix(0, started)
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close cierra la base de datos
func (s *Store) Close() error {
	return s.db.Close()
}
