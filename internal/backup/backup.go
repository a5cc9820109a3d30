package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dmhmr/internal/validate"
)

// ErrBackupIO indicates the backup destination could not be written. The
// failure never rolls back a submitted record; the snapshot is retried on its
// own.
var ErrBackupIO = errors.New("backup write failed")

// Ref identifies one written backup snapshot.
type Ref struct {
	Name string
	Path string
}

// Metadata captures submission context stored alongside the record.
type Metadata struct {
	SubmittedAt time.Time `json:"submitted_at"`
	Attempts    int       `json:"attempts"`
	ResultCode  string    `json:"result_code,omitempty"`
	TaskID      int64     `json:"task_id,omitempty"`
}

// Snapshot is the persisted backup document.
type Snapshot struct {
	Name     string           `json:"name"`
	Record   *validate.Record `json:"record"`
	Metadata Metadata         `json:"metadata"`
}

// Writer persists canonical snapshots of submitted records under
// deterministic names.
type Writer struct {
	dir string
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Name derives the deterministic backup identity for a record:
// {asset}_{client}_{ex date as ddMMMyyyy}_{ACT|EST}. The same logical record
// always maps to the same name, so a rewrite overwrites rather than
// duplicates.
func Name(rec *validate.Record) string {
	return fmt.Sprintf("%s_%s_%s_%s",
		rec.AssetID(),
		rec.Header.ClientID,
		rec.ExDate().Format("02Jan2006"),
		rec.TypeTag,
	)
}

// Write persists the record snapshot plus submission metadata as JSON and
// returns its identity. Writing the same record twice yields the same Ref
// and a single artifact.
func (w *Writer) Write(rec *validate.Record, meta Metadata) (Ref, error) {
	name := Name(rec)
	path := filepath.Join(w.dir, name+".json")

	snapshot := Snapshot{Name: name, Record: rec, Metadata: meta}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return Ref{}, fmt.Errorf("encode backup %s: %w", name, err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Ref{}, fmt.Errorf("%w: %s: %v", ErrBackupIO, w.dir, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return Ref{}, fmt.Errorf("%w: %s: %v", ErrBackupIO, path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return Ref{}, fmt.Errorf("%w: %s: %v", ErrBackupIO, path, err)
	}

	return Ref{Name: name, Path: path}, nil
}

// Read loads a snapshot back by name.
func (w *Writer) Read(name string) (*Snapshot, error) {
	path := filepath.Join(w.dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", name, err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode backup %s: %w", name, err)
	}
	return &snapshot, nil
}
