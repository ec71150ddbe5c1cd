package antelope

import (
	"context"
	"encoding/json"
	"fmt"

	eos "github.com/eoscanada/eos-go"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

// ABICodec packs JSON ABI files into the binary form setabi expects
type ABICodec struct{}

// NewABICodec creates a new ABICodec
func NewABICodec() *ABICodec {
	return &ABICodec{}
}

// EncodeABI parses data as a JSON ABI and returns its binary serialization
func (c *ABICodec) EncodeABI(_ context.Context, path string, data []byte) ([]byte, error) {
	var abi eos.ABI
	if err := json.Unmarshal(data, &abi); err != nil {
		return nil, &domain.ParseError{Path: path, Err: err}
	}

	packed, err := eos.MarshalBinary(abi)
	if err != nil {
		return nil, fmt.Errorf("failed to pack ABI %s: %w", path, err)
	}
	return packed, nil
}

// Ensure the codec implements the interface
var _ usecase.ABIEncoder = (*ABICodec)(nil)
