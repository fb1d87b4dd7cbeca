package provider

import (
	"io/fs"
	"path"
	"strings"
)

// Provider is the capability the cache consumes to fetch bytes.
type Provider interface {
	// Has reports whether the local path exists in this provider.
	Has(name string) bool

	// Read returns the full contents of the local path.
	// A missing path returns an error matching fs.ErrNotExist.
	Read(name string) ([]byte, error)
}

// Describer is optionally implemented by providers for diagnostics.
type Describer interface {
	Describe() string
}

// Describe returns a human-readable label for p.
func Describe(p Provider) string {
	if d, ok := p.(Describer); ok {
		return d.Describe()
	}
	return "provider"
}

// clean normalizes a local path to the slash-separated, unrooted form
// io/fs expects. It reports false for paths escaping the provider root.
func clean(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return "", false
	}
	return name, fs.ValidPath(name)
}

func notExist(op, name string) error {
	return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
}
