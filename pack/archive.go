package pack

import (
	"bytes"
	"io/ioutil"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

// Archive is a read-only container of pack entries addressed by
// slash-separated paths such as assets/minecraft/models/block/stone.json.
type Archive interface {
	Name() string
	List() []string
	Read(path string) ([]byte, error)
}

type ZipArchive struct {
	name  string
	files map[string]*zip.File
}

// OpenZip indexes a zip held in memory. Packs zipped with an enclosing
// folder (MyPack/assets/...) are indexed from their assets/ directory.
func OpenZip(name string, data []byte) (*ZipArchive, error) {
	if len(data) == 0 {
		return nil, &ArchiveError{Name: name, Err: errors.New("empty archive")}
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ArchiveError{Name: name, Err: err}
	}
	a := &ZipArchive{name: name, files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		p := strings.TrimPrefix(strings.Replace(f.Name, "\\", "/", -1), "/")
		if i := strings.Index(p, "/assets/"); i >= 0 && !strings.HasPrefix(p, "assets/") {
			p = p[i+1:]
		}
		a.files[p] = f
	}
	return a, nil
}

func (a *ZipArchive) Name() string { return a.name }

func (a *ZipArchive) List() []string {
	names := make([]string, 0, len(a.files))
	for n := range a.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (a *ZipArchive) Read(path string) ([]byte, error) {
	f, ok := a.files[path]
	if !ok {
		return nil, ErrNotFound
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer rc.Close()
	data, err := ioutil.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return data, nil
}

// MemArchive is an archive built in memory, used for synthetic packs and
// tests.
type MemArchive struct {
	name    string
	entries map[string][]byte
}

func NewMemArchive(name string, entries map[string]string) *MemArchive {
	a := &MemArchive{name: name, entries: make(map[string][]byte, len(entries))}
	for k, v := range entries {
		a.entries[k] = []byte(v)
	}
	return a
}

func (a *MemArchive) Put(path string, data []byte) {
	a.entries[path] = data
}

func (a *MemArchive) Name() string { return a.name }

func (a *MemArchive) List() []string {
	names := make([]string, 0, len(a.entries))
	for n := range a.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (a *MemArchive) Read(path string) ([]byte, error) {
	data, ok := a.entries[path]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

// ZipBytes packs a MemArchive into zip bytes.
func (a *MemArchive) ZipBytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range a.List() {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(a.entries[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
