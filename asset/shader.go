package asset

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/resource"
)

// Shader stage names.
const (
	StageVertex   = "vertex"
	StageFragment = "fragment"
	StageGeometry = "geometry"
)

// Macros are the preprocessor values shaders are compiled against. Install
// them on the cache with resource.WithService.
type Macros map[string]any

// Shader is a multi-stage shader source:
//
//	// lines before the first #stage are shared by every stage
//	#stage vertex
//	...
//	#if MAX_POINT_LIGHTS > 0
//	...
//	#else
//	...
//	#endif
//	#stage fragment
//	...
//
// #if conditions are expr expressions evaluated against the Macros service.
// Every stage is prefixed with one #define line per macro. Vertex and
// fragment stages are required.
type Shader struct {
	resource.Base
	stages map[string]string
}

// Compile preprocesses the source against the Macros service.
func (s *Shader) Compile(l *resource.Loader, data []byte) error {
	macros, _ := resource.Service[Macros](l)
	stages, err := preprocess(data, macros)
	if err != nil {
		return errors.Compile(s.Identifier().String(), err)
	}
	for _, required := range []string{StageVertex, StageFragment} {
		if _, ok := stages[required]; !ok {
			return errors.CompileDetail(s.Identifier().String(), "missing %s stage", required)
		}
	}
	s.stages = stages
	return nil
}

// Stage returns the preprocessed source of one stage.
func (s *Shader) Stage(name string) (string, bool) {
	src, ok := s.stages[name]
	return src, ok
}

// Stages returns the compiled stage names in sorted order.
func (s *Shader) Stages() []string {
	names := make([]string, 0, len(s.stages))
	for name := range s.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type condFrame struct {
	active     bool // this branch emits lines
	parent     bool // the enclosing block emits lines
	seenElse   bool
	line       int
	matchTaken bool
}

func preprocess(data []byte, macros Macros) (map[string]string, error) {
	env := make(map[string]any, len(macros))
	for k, v := range macros {
		env[k] = v
	}

	var (
		shared  strings.Builder
		bodies  = map[string]*strings.Builder{}
		current *strings.Builder
		stack   []condFrame
	)
	emitting := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		directive, arg := splitDirective(line)

		switch directive {
		case "#stage":
			if len(stack) > 0 {
				return nil, fmt.Errorf("line %d: #stage inside #if opened on line %d", lineNo, stack[len(stack)-1].line)
			}
			switch arg {
			case StageVertex, StageFragment, StageGeometry:
			default:
				return nil, fmt.Errorf("line %d: unknown stage %q", lineNo, arg)
			}
			if _, dup := bodies[arg]; dup {
				return nil, fmt.Errorf("line %d: duplicate stage %q", lineNo, arg)
			}
			current = &strings.Builder{}
			bodies[arg] = current
			continue

		case "#if":
			parent := emitting()
			ok := false
			if parent {
				var err error
				if ok, err = evalCondition(arg, env); err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
			}
			stack = append(stack, condFrame{active: parent && ok, parent: parent, line: lineNo, matchTaken: ok})
			continue

		case "#else":
			if len(stack) == 0 {
				return nil, fmt.Errorf("line %d: #else without #if", lineNo)
			}
			top := &stack[len(stack)-1]
			if top.seenElse {
				return nil, fmt.Errorf("line %d: duplicate #else", lineNo)
			}
			top.seenElse = true
			top.active = top.parent && !top.matchTaken
			continue

		case "#endif":
			if len(stack) == 0 {
				return nil, fmt.Errorf("line %d: #endif without #if", lineNo)
			}
			stack = stack[:len(stack)-1]
			continue
		}

		if !emitting() {
			continue
		}
		target := current
		if target == nil {
			target = &shared
		}
		target.WriteString(line)
		target.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("#if on line %d is never closed", stack[len(stack)-1].line)
	}

	preamble := definePreamble(macros)
	stages := make(map[string]string, len(bodies))
	for name, body := range bodies {
		stages[name] = preamble + shared.String() + body.String()
	}
	return stages, nil
}

func splitDirective(line string) (string, string) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", ""
	}
	name, arg, _ := strings.Cut(trimmed, " ")
	switch name {
	case "#stage", "#if", "#else", "#endif":
		return name, strings.TrimSpace(arg)
	}
	return "", ""
}

func evalCondition(cond string, env map[string]any) (bool, error) {
	if cond == "" {
		return false, fmt.Errorf("#if needs a condition")
	}
	program, err := expr.Compile(cond, expr.Env(env), expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", cond, err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", cond, err)
	}
	b, _ := out.(bool)
	return b, nil
}

func definePreamble(macros Macros) string {
	if len(macros) == 0 {
		return ""
	}
	names := make([]string, 0, len(macros))
	for name := range macros {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "#define %s %s\n", name, defineValue(macros[name]))
	}
	return b.String()
}

func defineValue(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
