// Package ident implements the two-part resource identifier.
//
// An identifier names a provider chain and a path local to it:
//
//	file://materials/stone.mat
//	^^^^   ^^^^^^^^^^^^^^^^^^^
//	provider     local path
//
// The separator is the fixed token "://". Parsing splits on its first
// occurrence, so a path containing the separator keeps everything after the
// first one. Path legality is not checked here; providers decide that.
package ident

import (
	"path"
	"strings"

	"github.com/wippyai/assetcache/errors"
)

// Separator joins the provider name and the local path.
const Separator = "://"

// ID is an immutable resource identifier. The zero value is Invalid.
type ID struct {
	Provider string
	Path     string
}

// Invalid is the sentinel returned when parsing fails.
var Invalid = ID{}

// New builds an identifier from its parts. A provider name containing the
// separator cannot round-trip through Parse; such an identifier is not Valid.
func New(provider, localPath string) ID {
	return ID{Provider: provider, Path: localPath}
}

// Parse splits text on the first separator.
func Parse(text string) (ID, error) {
	provider, localPath, found := strings.Cut(text, Separator)
	if !found {
		return Invalid, errors.MalformedIdentifier(text, "missing separator "+Separator)
	}
	if provider == "" {
		return Invalid, errors.MalformedIdentifier(text, "empty provider name")
	}
	if localPath == "" {
		return Invalid, errors.MalformedIdentifier(text, "empty local path")
	}
	return ID{Provider: provider, Path: localPath}, nil
}

// MustParse is like Parse but panics on malformed text.
// Intended for constants and tests.
func MustParse(text string) ID {
	id, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return id
}

// String formats the identifier; it is the inverse of Parse.
func (id ID) String() string {
	return id.Provider + Separator + id.Path
}

// Valid reports whether both parts are non-empty and the provider name is
// free of the separator.
func (id ID) Valid() bool {
	return id.Provider != "" && id.Path != "" && !strings.Contains(id.Provider, Separator)
}

// Ext returns the lower-cased extension of the local path without the dot.
func (id ID) Ext() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(id.Path), "."))
}

// Sibling returns an identifier under the same provider with the local path
// replaced by rel, resolved against the directory of this identifier.
// An absolute rel ("/x") is taken from the provider root.
func (id ID) Sibling(rel string) ID {
	if strings.HasPrefix(rel, "/") {
		return ID{Provider: id.Provider, Path: strings.TrimPrefix(path.Clean(rel), "/")}
	}
	return ID{Provider: id.Provider, Path: path.Join(path.Dir(id.Path), rel)}
}
