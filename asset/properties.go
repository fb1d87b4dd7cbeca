package asset

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tailscale/hujson"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/resource"
)

// Section names every properties tree carries.
const (
	SectionDependencies = "dependencies"
	SectionProperties   = "properties"
)

// Properties is a resource holding a structured tree parsed from JSONC or
// YAML. The tree always has "dependencies" and "properties" objects; values
// under them are read with the typed accessors.
type Properties struct {
	resource.Base
	tree   map[string]any
	logger *zap.Logger
}

// Compile parses data by identifier extension. YAML is used for .yaml and
// .yml; everything else is parsed as JSON with comments and trailing commas.
// Invalid data leaves an empty tree.
func (p *Properties) Compile(l *resource.Loader, data []byte) error {
	p.logger = l.Logger()
	return p.parse(data)
}

func (p *Properties) parse(data []byte) error {
	tree, err := decodeTree(p.Identifier().Ext(), data)
	if err != nil {
		tree = nil
		err = errors.Compile(p.Identifier().String(), err)
	}
	p.tree = withSections(tree)
	return err
}

func decodeTree(ext string, data []byte) (map[string]any, error) {
	tree := map[string]any{}
	if len(data) == 0 {
		return tree, nil
	}

	switch ext {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("invalid JSONC: %w", err)
		}
		if err := json.Unmarshal(standardized, &tree); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	if tree == nil {
		// "null" documents
		tree = map[string]any{}
	}
	return tree, nil
}

func withSections(tree map[string]any) map[string]any {
	if tree == nil {
		tree = map[string]any{}
	}
	for _, name := range []string{SectionDependencies, SectionProperties} {
		if _, ok := tree[name].(map[string]any); !ok {
			tree[name] = map[string]any{}
		}
	}
	return tree
}

func (p *Properties) log() *zap.Logger {
	if p.logger == nil {
		return zap.NewNop()
	}
	return p.logger
}

// Section returns a top-level object of the tree, or nil if absent.
func (p *Properties) Section(name string) map[string]any {
	m, _ := p.tree[name].(map[string]any)
	return m
}

// Dependency returns the identifier text stored under dependencies[key].
func (p *Properties) Dependency(key string) (string, bool) {
	s, ok := p.Section(SectionDependencies)[key].(string)
	return s, ok && s != ""
}

// Dependencies returns the dependency keys in sorted order.
func (p *Properties) Dependencies() []string {
	deps := p.Section(SectionDependencies)
	keys := make([]string, 0, len(deps))
	for k := range deps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Property returns the raw value stored under properties[key].
func (p *Properties) Property(key string) (any, bool) {
	v, ok := p.Section(SectionProperties)[key]
	return v, ok
}

// Has reports whether properties[key] is set.
func (p *Properties) Has(key string) bool {
	_, ok := p.Property(key)
	return ok
}

func (p *Properties) lookup(key, want string) (any, bool) {
	v, ok := p.Property(key)
	if !ok {
		p.log().Warn("missing property",
			zap.String("resource", p.Identifier().String()),
			zap.String("key", key),
			zap.String("want", want))
	}
	return v, ok
}

func (p *Properties) mismatch(key, want string, v any) {
	p.log().Warn("property has wrong type",
		zap.String("resource", p.Identifier().String()),
		zap.String("key", key),
		zap.String("want", want),
		zap.String("got", fmt.Sprintf("%T", v)))
}

// String returns properties[key] as a string, or def.
func (p *Properties) String(key, def string) string {
	v, ok := p.lookup(key, "string")
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		p.mismatch(key, "string", v)
		return def
	}
	return s
}

// Float returns properties[key] as a float64, or def.
func (p *Properties) Float(key string, def float64) float64 {
	v, ok := p.lookup(key, "number")
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		p.mismatch(key, "number", v)
		return def
	}
	return f
}

// Int returns properties[key] truncated to an int, or def.
func (p *Properties) Int(key string, def int) int {
	v, ok := p.lookup(key, "number")
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		p.mismatch(key, "number", v)
		return def
	}
	return int(f)
}

// Bool returns properties[key] as a bool, or def.
func (p *Properties) Bool(key string, def bool) bool {
	v, ok := p.lookup(key, "bool")
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		p.mismatch(key, "bool", v)
		return def
	}
	return b
}

// Floats returns properties[key] as a list of numbers, or nil.
func (p *Properties) Floats(key string) []float64 {
	v, ok := p.lookup(key, "list")
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		p.mismatch(key, "list", v)
		return nil
	}
	out := make([]float64, 0, len(list))
	for _, item := range list {
		f, ok := toFloat(item)
		if !ok {
			p.mismatch(key, "list of numbers", item)
			return nil
		}
		out = append(out, f)
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
