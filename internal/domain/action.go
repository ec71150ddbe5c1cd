package domain

import (
	"fmt"
	"strings"
)

const (
	// DefaultSystemAccount hosts the setcode and setabi actions
	DefaultSystemAccount = "eosio"
	// DefaultPermission is the permission used to authorize redeploys
	DefaultPermission = "active"

	ActionSetCode = "setcode"
	ActionSetABI  = "setabi"
)

// PermissionLevel is an actor@permission authorization
type PermissionLevel struct {
	Actor      string `yaml:"actor" json:"actor"`
	Permission string `yaml:"permission" json:"permission"`
}

// String renders the level as actor@permission
func (p PermissionLevel) String() string {
	return fmt.Sprintf("%s@%s", p.Actor, p.Permission)
}

// ParsePermissionLevel parses "actor@permission". A bare actor gets the
// active permission.
func ParsePermissionLevel(s string) (PermissionLevel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PermissionLevel{}, fmt.Errorf("empty permission level")
	}
	actor, permission, found := strings.Cut(s, "@")
	if !found {
		return PermissionLevel{Actor: actor, Permission: DefaultPermission}, nil
	}
	if actor == "" || permission == "" {
		return PermissionLevel{}, fmt.Errorf("invalid permission level %q", s)
	}
	return PermissionLevel{Actor: actor, Permission: permission}, nil
}

// Action is a single chain action. Data is either one of the typed payloads
// below or a JSON-compatible map that the transaction client encodes with
// the contract's on-chain ABI.
type Action struct {
	Account       string            `json:"account"`
	Name          string            `json:"name"`
	Authorization []PermissionLevel `json:"authorization"`
	Data          any               `json:"data"`
}

// SetCodeData is the payload of eosio::setcode
type SetCodeData struct {
	Account   string `json:"account"`
	VMType    uint8  `json:"vmtype"`
	VMVersion uint8  `json:"vmversion"`
	Code      string `json:"code"` // hex
}

// SetABIData is the payload of eosio::setabi
type SetABIData struct {
	Account string `json:"account"`
	ABI     string `json:"abi"` // hex of the binary ABI
}

// TransactionReceipt is what the transaction client reports back
type TransactionReceipt struct {
	TransactionID string
	Actions       int
}

// TableQuery selects rows from a contract table
type TableQuery struct {
	Code  string `yaml:"code" json:"code"`
	Scope string `yaml:"scope" json:"scope"`
	Table string `yaml:"table" json:"table"`
	Limit uint32 `yaml:"limit,omitempty" json:"limit,omitempty"`
}
