package snip

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hazyhaar/snipcss/dbopen"
)

// Sink receives the finished extraction result. All storage failures
// surface as *WriteError; the pipeline does not retry.
type Sink interface {
	Write(ctx context.Context, res *Result) error
}

// FileSink writes the artifact to a file, atomically via temp file and
// rename so a failed run never leaves a truncated artifact behind.
type FileSink struct {
	Path string
}

// NewFileSink creates a file sink for the given destination path.
func NewFileSink(path string) *FileSink { return &FileSink{Path: path} }

func (s *FileSink) Write(ctx context.Context, res *Result) error {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".snipcss-*")
	if err != nil {
		return &WriteError{Dest: s.Path, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(res.Artifact); err != nil {
		tmp.Close()
		return &WriteError{Dest: s.Path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Dest: s.Path, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return &WriteError{Dest: s.Path, Err: err}
	}
	return nil
}

// StdoutSink writes the artifact text to a writer, os.Stdout by default.
type StdoutSink struct {
	w io.Writer
}

// NewStdoutSink creates a stdout sink. A nil writer means os.Stdout.
func NewStdoutSink(w io.Writer) *StdoutSink {
	if w == nil {
		w = os.Stdout
	}
	return &StdoutSink{w: w}
}

func (s *StdoutSink) Write(ctx context.Context, res *Result) error {
	if _, err := io.WriteString(s.w, res.Artifact); err != nil {
		return &WriteError{Dest: "stdout", Err: err}
	}
	return nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS extractions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	url        TEXT NOT NULL,
	xpath      TEXT NOT NULL,
	artifact   TEXT NOT NULL,
	rules      INTEGER NOT NULL,
	warnings   INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
`

// SQLiteSink records every extraction run in a local database, artifact
// included, so batch runs can be audited later.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink wraps an open database handle, applying the extractions
// schema. The caller keeps ownership of db unless Close is used.
func NewSQLiteSink(db *sql.DB) (*SQLiteSink, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("snip: sqlite schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// OpenSQLiteSink opens (or creates) the database at path and wraps it.
func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(sqliteSchema))
	if err != nil {
		return nil, err
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Write(ctx context.Context, res *Result) error {
	_, err := dbopen.Exec(ctx, s.db, `
		INSERT INTO extractions (url, xpath, artifact, rules, warnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		res.URL, res.XPath, res.Artifact, res.Rules, len(res.Warnings),
		res.FinishedAt.Unix(),
	)
	if err != nil {
		return &WriteError{Dest: "sqlite", Err: err}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteSink) Close() error { return s.db.Close() }

// SinksFromConfig builds the configured sink list.
func SinksFromConfig(cfgs []SinkConfig) ([]Sink, error) {
	var sinks []Sink
	for _, sc := range cfgs {
		switch sc.Type {
		case "file":
			if sc.Path == "" {
				return nil, fmt.Errorf("snip: file sink requires a path")
			}
			sinks = append(sinks, NewFileSink(sc.Path))
		case "stdout":
			sinks = append(sinks, NewStdoutSink(nil))
		case "sqlite":
			if sc.Path == "" {
				return nil, fmt.Errorf("snip: sqlite sink requires a path")
			}
			s, err := OpenSQLiteSink(sc.Path)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, s)
		default:
			return nil, fmt.Errorf("snip: unknown sink type %q", sc.Type)
		}
	}
	return sinks, nil
}
