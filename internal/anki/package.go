// Package anki handles reading and writing Anki .apkg files.
package anki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// CollectionPrefix identifies the SQLite collection entries of a package.
const CollectionPrefix = "collection"

var (
	// ErrNoCollection is returned when a package holds no collection entry.
	ErrNoCollection = errors.New("no collection found in package")
	// ErrIllegalPath is returned for archive entries that would escape the
	// extraction directory.
	ErrIllegalPath = errors.New("illegal file path")
)

// Entry describes one file of the package archive.
type Entry struct {
	Name     string
	Method   uint16
	Modified time.Time
}

// Package is an extracted Anki .apkg file.
type Package struct {
	path    string
	tempDir string
	entries []Entry
}

// Open extracts the .apkg at path into a temporary directory.
func Open(ctx context.Context, path string) (*Package, error) {
	pkg := &Package{path: path}

	tempDir, err := os.MkdirTemp("", "plecoise-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	pkg.tempDir = tempDir

	if err := os.Mkdir(pkg.entriesDir(), 0o755); err != nil {
		pkg.Close()
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	if err := os.Mkdir(pkg.workDir(), 0o755); err != nil {
		pkg.Close()
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	if err := pkg.extract(ctx); err != nil {
		pkg.Close()
		return nil, err
	}

	return pkg, nil
}

func (p *Package) entriesDir() string { return filepath.Join(p.tempDir, "entries") }
func (p *Package) workDir() string    { return filepath.Join(p.tempDir, "work") }

// entryPath returns the extracted location of an entry, refusing names that
// resolve outside the extraction directory.
func (p *Package) entryPath(name string) (string, error) {
	root := filepath.Clean(p.entriesDir())
	fpath := filepath.Join(root, name)
	if !strings.HasPrefix(fpath, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrIllegalPath, name)
	}
	return fpath, nil
}

// extract unzips the .apkg file.
func (p *Package) extract(ctx context.Context) error {
	r, err := zip.OpenReader(p.path)
	if err != nil {
		return fmt.Errorf("opening zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		fpath, err := p.entryPath(f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", f.Name, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", f.Name, err)
		}
		if err := extractFile(f, fpath); err != nil {
			return fmt.Errorf("extracting %s: %w", f.Name, err)
		}

		p.entries = append(p.entries, Entry{
			Name:     f.Name,
			Method:   f.Method,
			Modified: f.Modified,
		})
	}

	return nil
}

func extractFile(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Path returns the path the package was opened from.
func (p *Package) Path() string {
	return p.path
}

// Entries returns the archive entries in their original order.
func (p *Package) Entries() []Entry {
	return p.entries
}

// Collections returns the names of all collection entries in archive order.
// Newer exports carry both a legacy placeholder and a .anki21b collection.
func (p *Package) Collections() []string {
	var names []string
	for _, e := range p.entries {
		if strings.HasPrefix(e.Name, CollectionPrefix) {
			names = append(names, e.Name)
		}
	}
	return names
}

// OpenCollection opens the named collection entry for reading and writing.
func (p *Package) OpenCollection(ctx context.Context, name string) (*Collection, error) {
	found := false
	for _, e := range p.entries {
		if e.Name == name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoCollection, name)
	}

	fpath, err := p.entryPath(name)
	if err != nil {
		return nil, err
	}

	if !IsCompressed(name) {
		return openCollection(ctx, name, fpath, "")
	}

	dbPath, err := decompressTo(fpath, p.workDir())
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", name, err)
	}
	return openCollection(ctx, name, dbPath, fpath)
}

// SaveAs writes the package, including any changes made through its
// collections, to a new .apkg file. The file appears at path only once it is
// complete.
func (p *Package) SaveAs(ctx context.Context, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".plecoise-*.apkg")
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := true
	defer func() {
		if cleanup {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, e := range p.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.writeEntry(zw, e); err != nil {
			return fmt.Errorf("writing %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("creating zip: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("moving output file into place: %w", err)
	}

	cleanup = false
	return nil
}

func (p *Package) writeEntry(zw *zip.Writer, e Entry) error {
	fpath, err := p.entryPath(e.Name)
	if err != nil {
		return err
	}

	file, err := os.Open(fpath)
	if err != nil {
		return err
	}
	defer file.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     e.Name,
		Method:   e.Method,
		Modified: e.Modified,
	})
	if err != nil {
		return err
	}

	_, err = io.Copy(w, file)
	return err
}

// Close removes the extracted files.
func (p *Package) Close() error {
	if p.tempDir != "" {
		return os.RemoveAll(p.tempDir)
	}
	return nil
}
