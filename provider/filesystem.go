package provider

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Filesystem serves assets from a billy.Filesystem.
type Filesystem struct {
	bfs   billy.Filesystem
	label string
}

// NewFilesystem wraps an existing billy filesystem.
func NewFilesystem(bfs billy.Filesystem, label string) *Filesystem {
	return &Filesystem{bfs: bfs, label: label}
}

// NewDirectory serves assets from a directory on the local disk.
func NewDirectory(root string) *Filesystem {
	return &Filesystem{bfs: osfs.New(root), label: "dir:" + root}
}

// Has reports whether name is a regular file.
func (p *Filesystem) Has(name string) bool {
	name, ok := clean(name)
	if !ok {
		return false
	}
	info, err := p.bfs.Stat(name)
	return err == nil && !info.IsDir()
}

// Read returns the contents of name.
func (p *Filesystem) Read(name string) ([]byte, error) {
	cleaned, ok := clean(name)
	if !ok {
		return nil, notExist("read", name)
	}
	return util.ReadFile(p.bfs, cleaned)
}

// Describe implements Describer.
func (p *Filesystem) Describe() string {
	return p.label
}

// Unwrap returns the underlying billy.Filesystem.
func (p *Filesystem) Unwrap() billy.Filesystem {
	return p.bfs
}

// Memory is an in-memory provider. Populate it with Put before registering.
type Memory struct {
	*Filesystem
}

// NewMemory creates an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{Filesystem: &Filesystem{bfs: memfs.New(), label: "memory"}}
}

// Put stores data under name, creating parent directories.
func (m *Memory) Put(name string, data []byte) error {
	cleaned, ok := clean(name)
	if !ok {
		return notExist("put", name)
	}
	return util.WriteFile(m.bfs, cleaned, data, 0o644)
}

// PutString is Put for text assets.
func (m *Memory) PutString(name, data string) error {
	return m.Put(name, []byte(data))
}
