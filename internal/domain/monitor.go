package domain

import (
	"github.com/sourcenetwork/immutable"
)

// Fingerprint identifies the observed version of a file. With the mtime
// detector it is the modification time, with the hash detector a content
// digest. The zero value means "never observed".
type Fingerprint string

// IsZero reports whether the fingerprint has never been set
func (f Fingerprint) IsZero() bool {
	return f == ""
}

// MonitoredContract is a contract account whose compiled artifacts are watched
type MonitoredContract struct {
	Account  string `yaml:"account" json:"account"`
	Contract string `yaml:"contract,omitempty" json:"contract,omitempty"` // directory to discover artifacts in
	ABIPath  string `yaml:"abi,omitempty" json:"abi,omitempty"`
	WASMPath string `yaml:"wasm,omitempty" json:"wasm,omitempty"`

	ABILastSeen  Fingerprint `yaml:"-" json:"-"`
	WASMLastSeen Fingerprint `yaml:"-" json:"-"`
}

// HasArtifactPaths returns true when both artifact paths are known
func (c *MonitoredContract) HasArtifactPaths() bool {
	return c.ABIPath != "" && c.WASMPath != ""
}

// MonitoredFile is an arbitrary watched file. It may not exist yet.
type MonitoredFile struct {
	Path     string
	LastSeen Fingerprint
}

// ContractChange describes which artifacts of a contract changed since the
// last diff pass. The half that did not change is None.
type ContractChange struct {
	Account  string
	ABIPath  immutable.Option[string]
	WASMPath immutable.Option[string]
}

// NewContractChange builds a change record, leaving empty paths unset
func NewContractChange(account, abiPath, wasmPath string) ContractChange {
	change := ContractChange{
		Account:  account,
		ABIPath:  immutable.None[string](),
		WASMPath: immutable.None[string](),
	}
	if abiPath != "" {
		change.ABIPath = immutable.Some(abiPath)
	}
	if wasmPath != "" {
		change.WASMPath = immutable.Some(wasmPath)
	}
	return change
}

// ChangeSet is the result of one diff pass over contracts and files
type ChangeSet struct {
	Contracts []ContractChange
	Files     []*MonitoredFile
}

// Empty returns true if nothing changed
func (c *ChangeSet) Empty() bool {
	return c == nil || (len(c.Contracts) == 0 && len(c.Files) == 0)
}

// HasContractChanges returns true if any contract artifact changed. A tick
// with a contract change always requires a fresh snapshot afterwards.
func (c *ChangeSet) HasContractChanges() bool {
	return c != nil && len(c.Contracts) > 0
}
