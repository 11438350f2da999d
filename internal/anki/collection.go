package anki

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/f3rmion/plecoise/internal/annotate"
	_ "modernc.org/sqlite"
)

var (
	// ErrUnknownModel is returned when a note type id is not in the collection.
	ErrUnknownModel = errors.New("unknown note type")
	// ErrNoteNotFound is returned when an update targets a missing note.
	ErrNoteNotFound = errors.New("note not found")
)

// Model represents an Anki note type (model).
type Model struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Fields []Field `json:"flds"`
	CSS    string  `json:"css"`
	// Legacy is true when the model lives in the col.models JSON rather than
	// the notetypes table.
	Legacy bool `json:"-"`
}

// Field represents a field in a note type.
type Field struct {
	Name string `json:"name"`
	Ord  int    `json:"ord"`
}

// FieldNames returns the field names ordered by ordinal.
func (m *Model) FieldNames() []string {
	fields := append([]Field(nil), m.Fields...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Ord < fields[j].Ord })

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// Note is one row of the notes table.
type Note struct {
	ID      int64
	ModelID int64
	Flds    string
}

// Fields returns the note's fields split on annotate.FieldSeparator.
func (n Note) Fields() []string {
	return strings.Split(n.Flds, annotate.FieldSeparator)
}

// NoteUpdate replaces the flds column of one note.
type NoteUpdate struct {
	ID   int64
	Flds string
}

// Collection is an open Anki SQLite collection.
type Collection struct {
	name       string
	db         *sql.DB
	path       string
	compressed string // original .anki21b location, empty for plain collections
	dirty      bool

	modelsOnce sync.Once
	models     map[int64]*Model
	modelsErr  error
}

func openCollection(ctx context.Context, name, path, compressed string) (*Collection, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// The repacked file has to be self-contained, without a -wal sidecar.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = DELETE"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	return &Collection{
		name:       name,
		db:         db,
		path:       path,
		compressed: compressed,
	}, nil
}

// Name returns the archive entry name of the collection.
func (c *Collection) Name() string {
	return c.name
}

// Notes returns every note ordered by id.
func (c *Collection) Notes(ctx context.Context) ([]Note, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT id, mid, flds FROM notes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var note Note
		if err := rows.Scan(&note.ID, &note.ModelID, &note.Flds); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, note)
	}

	return notes, rows.Err()
}

// Models returns all note types keyed by id.
func (c *Collection) Models(ctx context.Context) (map[int64]*Model, error) {
	c.modelsOnce.Do(func() {
		c.models, c.modelsErr = c.loadModels(ctx)
	})
	return c.models, c.modelsErr
}

// FieldNames returns the field names of a note type ordered by ordinal.
func (c *Collection) FieldNames(ctx context.Context, modelID int64) ([]string, error) {
	models, err := c.Models(ctx)
	if err != nil {
		return nil, err
	}
	model, ok := models[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownModel, modelID)
	}
	return model.FieldNames(), nil
}

func (c *Collection) loadModels(ctx context.Context) (map[int64]*Model, error) {
	models, err := c.loadLegacyModels(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) > 0 {
		return models, nil
	}
	return c.loadNotetypes(ctx)
}

// loadLegacyModels loads models from the col table.
func (c *Collection) loadLegacyModels(ctx context.Context) (map[int64]*Model, error) {
	var raw sql.NullString
	row := c.db.QueryRowContext(ctx, "SELECT models FROM col")
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading collection: %w", err)
	}
	if strings.TrimSpace(raw.String) == "" {
		return nil, nil
	}

	var modelsMap map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw.String), &modelsMap); err != nil {
		return nil, fmt.Errorf("parsing models: %w", err)
	}

	models := make(map[int64]*Model, len(modelsMap))
	for _, modelJSON := range modelsMap {
		var model Model
		if err := json.Unmarshal(modelJSON, &model); err != nil {
			continue // Skip malformed models
		}
		model.Legacy = true
		models[model.ID] = &model
	}

	return models, nil
}

// loadNotetypes loads models from the notetypes and fields tables used by
// schema 18 collections.
func (c *Collection) loadNotetypes(ctx context.Context) (map[int64]*Model, error) {
	models := make(map[int64]*Model)

	rows, err := c.db.QueryContext(ctx, "SELECT id, name FROM notetypes")
	if err != nil {
		if isMissingTable(err) {
			return models, nil
		}
		return nil, fmt.Errorf("querying notetypes: %w", err)
	}
	for rows.Next() {
		var model Model
		if err := rows.Scan(&model.ID, &model.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning notetype: %w", err)
		}
		models[model.ID] = &model
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = c.db.QueryContext(ctx, "SELECT ntid, ord, name FROM fields ORDER BY ntid, ord")
	if err != nil {
		return nil, fmt.Errorf("querying fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ntid int64
		var field Field
		if err := rows.Scan(&ntid, &field.Ord, &field.Name); err != nil {
			return nil, fmt.Errorf("scanning field: %w", err)
		}
		if model, ok := models[ntid]; ok {
			model.Fields = append(model.Fields, field)
		}
	}

	return models, rows.Err()
}

func isMissingTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}

// UpdateNotes writes all updates in one transaction and marks the notes as
// modified at mod. Nothing is written if any update fails.
func (c *Collection) UpdateNotes(ctx context.Context, updates []NoteUpdate, mod time.Time) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE notes SET flds = ?, mod = ?, usn = -1 WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		res, err := stmt.ExecContext(ctx, u.Flds, mod.Unix(), u.ID)
		if err != nil {
			return fmt.Errorf("updating note %d: %w", u.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating note %d: %w", u.ID, err)
		}
		if n == 0 {
			return fmt.Errorf("updating note %d: %w", u.ID, ErrNoteNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing updates: %w", err)
	}
	c.dirty = true
	return nil
}

// InjectCSS appends css to the stylesheet of every legacy note type that does
// not already contain it. It returns how many note types were changed and how
// many schema 18 note types were left alone.
func (c *Collection) InjectCSS(ctx context.Context, css string) (changed, skipped int, err error) {
	var raw sql.NullString
	if err := c.db.QueryRowContext(ctx, "SELECT models FROM col").Scan(&raw); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("reading collection: %w", err)
	}

	if strings.TrimSpace(raw.String) == "" {
		models, err := c.Models(ctx)
		if err != nil {
			return 0, 0, err
		}
		return 0, len(models), nil
	}

	// Decode into raw fields so unknown model keys survive the rewrite.
	var modelsMap map[string]map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw.String), &modelsMap); err != nil {
		return 0, 0, fmt.Errorf("parsing models: %w", err)
	}

	for id, model := range modelsMap {
		var current string
		if rawCSS, ok := model["css"]; ok {
			if err := json.Unmarshal(rawCSS, &current); err != nil {
				return 0, 0, fmt.Errorf("parsing css of model %s: %w", id, err)
			}
		}
		if strings.Contains(current, css) {
			continue
		}

		updated := css
		if current != "" {
			updated = current + "\n\n" + css
		}
		encoded, err := json.Marshal(updated)
		if err != nil {
			return 0, 0, fmt.Errorf("marshaling css: %w", err)
		}
		model["css"] = encoded
		changed++
	}

	if changed == 0 {
		return 0, 0, nil
	}

	modelsJSON, err := json.Marshal(modelsMap)
	if err != nil {
		return 0, 0, fmt.Errorf("marshaling models: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, "UPDATE col SET models = ?", string(modelsJSON)); err != nil {
		return 0, 0, fmt.Errorf("updating models: %w", err)
	}

	c.dirty = true
	c.modelsOnce = sync.Once{}
	return changed, 0, nil
}

// Close closes the database. Changes to a compressed collection are written
// back into its archive entry.
func (c *Collection) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	if c.compressed == "" {
		return nil
	}
	defer os.Remove(c.path)

	if !c.dirty {
		return nil
	}
	if err := compressTo(c.path, c.compressed); err != nil {
		return fmt.Errorf("compressing %s: %w", c.name, err)
	}
	return nil
}
