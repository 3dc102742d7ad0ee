// Package record persists frequency frames to SQLite. Each Recorder writes
// one session, identified by an xid, into a shared database.
package record

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-worklet/internal/monitor"
)

// ErrClosed is returned when writing to a recorder after Close.
var ErrClosed = errors.New("recorder closed")

const schema = `
	CREATE TABLE IF NOT EXISTS sessions
	(
		id          VARCHAR(20) NOT NULL PRIMARY KEY,
		module      VARCHAR(200),
		sample_rate FLOAT NOT NULL,
		started_at  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS frames
	(
		session_id VARCHAR(20) NOT NULL,
		seq        INTEGER NOT NULL,
		stream_ns  INTEGER NOT NULL,
		bands      INTEGER NOT NULL,
		freqs      BLOB NOT NULL,
		PRIMARY KEY (session_id, seq)
	);
`

// Session describes one recorded run.
type Session struct {
	ID         string
	Module     string
	SampleRate float64
	StartedAt  time.Time
}

// Recorder buffers frames and writes them in batches. It implements
// monitor.Sink and is safe for concurrent use.
type Recorder struct {
	cfg     Config
	log     *logrus.Logger
	db      *sql.DB
	insert  *sql.Stmt
	session Session

	mu      sync.Mutex
	pending []monitor.Frame
	written int
	closed  bool
}

var _ monitor.Sink = (*Recorder)(nil)

// Open opens or creates the database at path and starts a new session.
func Open(path string, module string, sampleRate float64, opts ...Option) (*Recorder, error) {
	cfg := ApplyOptions(opts...)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection keeps transactions and prepared statements together.
	db.SetMaxOpenConns(1)

	r, err := newRecorder(db, cfg, module, sampleRate)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"function": "Open",
		"path":     path,
		"session":  r.session.ID,
	}).Info("Recording frames")

	return r, nil
}

func newRecorder(db *sql.DB, cfg Config, module string, sampleRate float64) (*Recorder, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	session := Session{
		ID:         xid.New().String(),
		Module:     module,
		SampleRate: sampleRate,
		StartedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := db.Exec(`INSERT INTO sessions (id, module, sample_rate, started_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.Module, session.SampleRate, session.StartedAt.UnixMilli()); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	insert, err := db.Prepare(`INSERT INTO frames (session_id, seq, stream_ns, bands, freqs) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	return &Recorder{cfg: cfg, log: cfg.Logger, db: db, insert: insert, session: session}, nil
}

// Session returns the session this recorder writes.
func (r *Recorder) Session() Session {
	return r.session
}

// Written returns how many frames have been committed.
func (r *Recorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// WriteFrame buffers f and flushes once a batch is full.
func (r *Recorder) WriteFrame(f monitor.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.pending = append(r.pending, f)
	if len(r.pending) >= r.cfg.BatchSize {
		return r.flush()
	}
	return nil
}

// Flush writes all buffered frames in one transaction.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	return r.flush()
}

func (r *Recorder) flush() error {
	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt := tx.Stmt(r.insert)
	for _, f := range r.pending {
		if _, err := stmt.Exec(r.session.ID, int64(f.Seq), int64(f.Time), len(f.Freqs), encodeFreqs(f.Freqs)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert frame %d: %w", f.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.written += len(r.pending)
	r.log.WithFields(logrus.Fields{
		"function": "flush",
		"session":  r.session.ID,
		"frames":   len(r.pending),
	}).Debug("Flushed frames")
	r.pending = r.pending[:0]
	return nil
}

// Close flushes pending frames and closes the database. It is idempotent.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	err := r.flush()
	err = errors.Join(err, r.insert.Close(), r.db.Close())

	r.log.WithFields(logrus.Fields{
		"function": "Close",
		"session":  r.session.ID,
		"frames":   r.written,
	}).Info("Recording closed")
	return err
}

func encodeFreqs(freqs []float32) []byte {
	out := make([]byte, 4*len(freqs))
	for i, v := range freqs {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func decodeFreqs(b []byte, bands int) ([]float32, error) {
	if len(b) != 4*bands {
		return nil, fmt.Errorf("frame blob holds %d bytes, want %d", len(b), 4*bands)
	}
	out := make([]float32, bands)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out, nil
}
