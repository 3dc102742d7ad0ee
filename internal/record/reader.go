package record

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cwbudde/algo-worklet/internal/monitor"
)

// Reader queries a frame database.
type Reader struct {
	db *sql.DB
}

// OpenReader opens the database at path for reading.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Reader{db: db}, nil
}

// Sessions lists recorded sessions, oldest first.
func (r *Reader) Sessions() ([]Session, error) {
	rows, err := r.db.Query(`SELECT id, COALESCE(module, ''), sample_rate, started_at FROM sessions ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var started int64
		if err := rows.Scan(&s.ID, &s.Module, &s.SampleRate, &started); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.StartedAt = time.UnixMilli(started).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// Frames returns the frames of session in emission order.
func (r *Reader) Frames(session string) ([]monitor.Frame, error) {
	rows, err := r.db.Query(`SELECT seq, stream_ns, bands, freqs FROM frames WHERE session_id = ? ORDER BY seq`, session)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var out []monitor.Frame
	for rows.Next() {
		var seq, ns int64
		var bands int
		var blob []byte
		if err := rows.Scan(&seq, &ns, &bands, &blob); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		freqs, err := decodeFreqs(blob, bands)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", seq, err)
		}
		out = append(out, monitor.Frame{Seq: uint64(seq), Time: time.Duration(ns), Freqs: freqs})
	}
	return out, rows.Err()
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}
