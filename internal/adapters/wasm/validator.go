package wasm

import (
	"context"
	"errors"

	"github.com/tetratelabs/wazero"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

var errEmptyModule = errors.New("empty module")

// Validator decodes and validates contract binaries without instantiating
// them. Host imports are not resolved, so chain intrinsics need no stubs.
type Validator struct{}

// NewValidator creates a new Validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateBinary returns an InvalidBinaryError when code is not a valid
// WebAssembly module
func (v *Validator) ValidateBinary(ctx context.Context, path string, code []byte) error {
	if len(code) == 0 {
		return &domain.InvalidBinaryError{Path: path, Err: errEmptyModule}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer runtime.Close(ctx)

	compiled, err := runtime.CompileModule(ctx, code)
	if err != nil {
		return &domain.InvalidBinaryError{Path: path, Err: err}
	}
	return compiled.Close(ctx)
}

// Ensure the validator implements the interface
var _ usecase.BinaryValidator = (*Validator)(nil)
