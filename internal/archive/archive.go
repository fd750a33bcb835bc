// Package archive discovers zip archives on disk and streams their entries.
package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Ext is the extension an archive file must carry.
const Ext = ".zip"

// Listing is the result of scanning a root directory.
type Listing struct {
	Archives []string // absolute-or-root-relative paths, sorted by name
	Skipped  []string // file names without the archive extension
}

// List scans dir (non-recursively) for archives. Sub-directories are ignored.
func List(dir string) (Listing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Listing{}, eris.Wrapf(err, "archive: read dir %s", dir)
	}

	var l Listing
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), Ext) {
			l.Skipped = append(l.Skipped, e.Name())
			continue
		}
		l.Archives = append(l.Archives, filepath.Join(dir, e.Name()))
	}
	sort.Strings(l.Archives)
	return l, nil
}

// Archive is an open zip archive.
type Archive struct {
	Path string
	r    *zip.ReadCloser
}

// Open opens the archive at path.
func Open(path string) (*Archive, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, eris.Wrapf(err, "archive: open %s", path)
	}
	return &Archive{Path: path, r: r}, nil
}

// Entry is one file inside an archive.
type Entry struct {
	Name string
	f    *zip.File
}

// Open returns a reader over the decompressed entry contents.
func (e Entry) Open() (io.ReadCloser, error) {
	rc, err := e.f.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "archive: open entry %s", e.Name)
	}
	return rc, nil
}

// Entries returns the file entries in archive order, skipping directories.
func (a *Archive) Entries() []Entry {
	entries := make([]Entry, 0, len(a.r.File))
	for _, f := range a.r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, Entry{Name: f.Name, f: f})
	}
	return entries
}

// Close releases the archive.
func (a *Archive) Close() error {
	return a.r.Close()
}
