package asset

import (
	"github.com/dop251/goja"

	"github.com/wippyai/assetcache/errors"
	"github.com/wippyai/assetcache/resource"
)

// Script is JavaScript source compiled once into a goja program. The
// program is immutable and can run on any number of runtimes.
type Script struct {
	resource.Base
	program *goja.Program
	source  string
}

// Compile compiles the source with goja. Syntax errors leave Program nil.
func (s *Script) Compile(_ *resource.Loader, data []byte) error {
	program, err := goja.Compile(s.Identifier().String(), string(data), false)
	if err != nil {
		return errors.Compile(s.Identifier().String(), err)
	}
	s.program = program
	s.source = string(data)
	return nil
}

// Program returns the compiled program, or nil if compilation failed.
func (s *Script) Program() *goja.Program {
	return s.program
}

// Source returns the script text.
func (s *Script) Source() string {
	return s.source
}

// Run executes the program on vm and returns the completion value.
func (s *Script) Run(vm *goja.Runtime) (goja.Value, error) {
	if s.program == nil {
		return nil, errors.InvalidInput(errors.PhaseCompile, "script "+s.Identifier().String()+" did not compile")
	}
	return vm.RunProgram(s.program)
}
