package provider

import (
	"io/fs"
)

// Embedded serves assets from an io/fs.FS such as an embed.FS.
type Embedded struct {
	fsys  fs.FS
	label string
}

// NewEmbedded wraps fsys. Use fs.Sub to strip a directory prefix first.
func NewEmbedded(fsys fs.FS, label string) *Embedded {
	return &Embedded{fsys: fsys, label: label}
}

// Has reports whether name is a regular file.
func (p *Embedded) Has(name string) bool {
	name, ok := clean(name)
	if !ok {
		return false
	}
	info, err := fs.Stat(p.fsys, name)
	return err == nil && info.Mode().IsRegular()
}

// Read returns the contents of name.
func (p *Embedded) Read(name string) ([]byte, error) {
	cleaned, ok := clean(name)
	if !ok {
		return nil, notExist("read", name)
	}
	return fs.ReadFile(p.fsys, cleaned)
}

// Describe implements Describer.
func (p *Embedded) Describe() string {
	return "embedded:" + p.label
}
