package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrNoTestFiles is returned when test file discovery finds nothing
	ErrNoTestFiles = errors.New("no test files found")

	// ErrNodeNotRunning is returned when a node operation needs a running instance
	ErrNodeNotRunning = errors.New("node is not running")

	// ErrUnknownNode is returned when a node name is not configured
	ErrUnknownNode = errors.New("unknown node")
)

// ArtifactKind distinguishes the two contract artifacts
type ArtifactKind string

const (
	ArtifactABI  ArtifactKind = "ABI"
	ArtifactWASM ArtifactKind = "WASM"
)

// AmbiguousArtifactError is returned when directory discovery finds more than
// one artifact of a kind
type AmbiguousArtifactError struct {
	Directory string
	Kind      ArtifactKind
	Matches   []string
}

func (e *AmbiguousArtifactError) Error() string {
	field := "abi"
	if e.Kind == ArtifactWASM {
		field = "wasm"
	}
	return fmt.Sprintf("found multiple %ss at %s (%s) - either ensure there is only 1 or specify %q manually",
		e.Kind, e.Directory, strings.Join(e.Matches, ", "), field)
}

// ParseError is returned when an interface description is not valid JSON
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse ABI %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidBinaryError is returned when a contract binary is not a valid module
type InvalidBinaryError struct {
	Path string
	Err  error
}

func (e *InvalidBinaryError) Error() string {
	return fmt.Sprintf("invalid WASM %s: %v", e.Path, e.Err)
}

func (e *InvalidBinaryError) Unwrap() error {
	return e.Err
}

// FileUnavailableError is returned when a file expected to exist cannot be read
type FileUnavailableError struct {
	Path string
	Err  error
}

func (e *FileUnavailableError) Error() string {
	return fmt.Sprintf("file unavailable %s: %v", e.Path, e.Err)
}

func (e *FileUnavailableError) Unwrap() error {
	return e.Err
}

// TransactionError wraps a failure reported by the transaction client
type TransactionError struct {
	Actions []string
	Err     error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction [%s] failed: %v", strings.Join(e.Actions, ", "), e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
