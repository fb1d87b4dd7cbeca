package provider

import (
	"archive/zip"
	"io"
	"os"
	"sync"
)

// Archive serves assets from a zip archive.
// The central directory is indexed once at open time.
type Archive struct {
	closer io.Closer
	files  map[string]*zip.File
	label  string
	mu     sync.Mutex
}

// OpenArchive opens the zip file at path. Close releases it.
func OpenArchive(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	a, err := NewArchive(f, info.Size(), "archive:"+path)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// NewArchive reads a zip archive from r.
func NewArchive(r io.ReaderAt, size int64, label string) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name, ok := clean(f.Name)
		if !ok {
			continue
		}
		files[name] = f
	}
	return &Archive{files: files, label: label}, nil
}

// Has reports whether the archive contains name.
func (a *Archive) Has(name string) bool {
	name, ok := clean(name)
	if !ok {
		return false
	}
	_, found := a.files[name]
	return found
}

// Read decompresses name.
func (a *Archive) Read(name string) ([]byte, error) {
	cleaned, ok := clean(name)
	if !ok {
		return nil, notExist("read", name)
	}
	f, found := a.files[cleaned]
	if !found {
		return nil, notExist("read", name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Len returns the number of files in the archive.
func (a *Archive) Len() int {
	return len(a.files)
}

// Describe implements Describer.
func (a *Archive) Describe() string {
	return a.label
}

// Close releases the archive file if it was opened with OpenArchive.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
