package program

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lodestar-ml/lodestar/internal/tensor"
)

// Conventional file names inside a model directory.
const (
	ProgramFileName = "program.json"
	ParamsFileName  = "params.bin"
)

// Model is a loaded program plus its parameters. Both are immutable
// after load and safe to share between predictor clones.
type Model struct {
	Program *Program
	Params  map[string]tensor.Tensor
}

// Load reads a model from a directory laid out as program.json +
// params.bin.
func Load(dir string) (*Model, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("model dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("model dir %q is not a directory", dir)
	}
	return LoadFiles(filepath.Join(dir, ProgramFileName), filepath.Join(dir, ParamsFileName))
}

// LoadFiles reads a model from an explicit program/parameter file pair.
func LoadFiles(progPath, paramPath string) (*Model, error) {
	progRaw, err := os.ReadFile(progPath)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	prog, err := ParseProgram(progRaw)
	if err != nil {
		return nil, err
	}

	paramRaw, err := os.ReadFile(paramPath)
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	params, err := ReadParams(paramRaw)
	if err != nil {
		return nil, err
	}

	m := &Model{Program: prog, Params: params}
	if err := m.checkBindings(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadBundle reads a single-file model bundle.
func LoadBundle(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	prog, params, err := ReadBundle(raw)
	if err != nil {
		return nil, err
	}
	m := &Model{Program: prog, Params: params}
	if err := m.checkBindings(); err != nil {
		return nil, err
	}
	return m, nil
}

// checkBindings verifies every op input resolves to a feed target, a
// parameter, or a prior op output.
func (m *Model) checkBindings() error {
	known := make(map[string]bool, len(m.Program.Inputs)+len(m.Params))
	for _, in := range m.Program.Inputs {
		known[in] = true
	}
	for name := range m.Params {
		known[name] = true
	}
	for i, op := range m.Program.Ops {
		for _, in := range op.Inputs {
			if !known[in] {
				return fmt.Errorf("op %d (%s): input %q is not a feed, parameter or prior output",
					i, op.Type, in)
			}
		}
		for _, out := range op.Outputs {
			known[out] = true
		}
	}
	for _, out := range m.Program.Outputs {
		if !known[out] {
			return fmt.Errorf("program output %q is never produced", out)
		}
	}
	return nil
}
