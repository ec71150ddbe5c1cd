package antelope

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	eos "github.com/eoscanada/eos-go"
	"github.com/eoscanada/eos-go/system"
	"github.com/samber/lo"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/domain/config"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

// Client pushes transactions and reads tables over the nodeos HTTP API
type Client struct {
	api *eos.API
	log *slog.Logger
}

// NewClient creates a client for cfg.Chain.URL signing with cfg.Chain.Keys
func NewClient(ctx context.Context, cfg *config.RuntimeConfig, log *slog.Logger) (*Client, error) {
	api := eos.New(cfg.Chain.URL)

	keyBag := eos.NewKeyBag()
	for i, key := range cfg.Chain.Keys {
		if err := keyBag.ImportPrivateKey(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to import signing key #%d: %w", i+1, err)
		}
	}
	api.SetSigner(keyBag)

	return &Client{
		api: api,
		log: log.With("component", "antelope"),
	}, nil
}

// Transact signs and pushes actions as a single transaction
func (c *Client) Transact(ctx context.Context, actions []domain.Action) (*domain.TransactionReceipt, error) {
	if len(actions) == 0 {
		return nil, fmt.Errorf("no actions to submit")
	}

	abis := make(map[string]*eos.ABI)
	eosActions := make([]*eos.Action, 0, len(actions))
	for _, action := range actions {
		converted, err := c.convertAction(ctx, action, abis)
		if err != nil {
			return nil, fmt.Errorf("%s::%s: %w", action.Account, action.Name, err)
		}
		eosActions = append(eosActions, converted)
	}

	resp, err := c.api.SignPushActions(ctx, eosActions...)
	if err != nil {
		return nil, err
	}

	c.log.Debug("transaction pushed", "id", resp.TransactionID, "actions", len(actions))
	return &domain.TransactionReceipt{TransactionID: resp.TransactionID, Actions: len(actions)}, nil
}

// GetTableRows returns the decoded rows of a contract table
func (c *Client) GetTableRows(ctx context.Context, query domain.TableQuery) ([]map[string]any, error) {
	scope := lo.CoalesceOrEmpty(query.Scope, query.Code)
	resp, err := c.api.GetTableRows(ctx, eos.GetTableRowsRequest{
		Code:  query.Code,
		Scope: scope,
		Table: query.Table,
		Limit: lo.Ternary(query.Limit > 0, query.Limit, 100),
		JSON:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s/%s: %w", query.Code, scope, query.Table, err)
	}

	var rows []map[string]any
	if len(resp.Rows) > 0 {
		if err := json.Unmarshal(resp.Rows, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode rows of %s: %w", query.Table, err)
		}
	}
	return rows, nil
}

func (c *Client) convertAction(ctx context.Context, action domain.Action, abis map[string]*eos.ABI) (*eos.Action, error) {
	out := &eos.Action{
		Account: eos.AN(action.Account),
		Name:    eos.ActN(action.Name),
		Authorization: lo.Map(action.Authorization, func(p domain.PermissionLevel, _ int) eos.PermissionLevel {
			return eos.PermissionLevel{Actor: eos.AN(p.Actor), Permission: eos.PN(p.Permission)}
		}),
	}

	switch data := action.Data.(type) {
	case domain.SetCodeData:
		code, err := hex.DecodeString(data.Code)
		if err != nil {
			return nil, fmt.Errorf("invalid code hex: %w", err)
		}
		out.ActionData = eos.NewActionData(system.SetCode{
			Account:   eos.AN(data.Account),
			VMType:    data.VMType,
			VMVersion: data.VMVersion,
			Code:      eos.HexBytes(code),
		})
	case domain.SetABIData:
		abi, err := hex.DecodeString(data.ABI)
		if err != nil {
			return nil, fmt.Errorf("invalid abi hex: %w", err)
		}
		out.ActionData = eos.NewActionData(system.SetABI{
			Account: eos.AN(data.Account),
			ABI:     eos.HexBytes(abi),
		})
	default:
		encoded, err := c.encodeWithChainABI(ctx, action, abis)
		if err != nil {
			return nil, err
		}
		out.ActionData = eos.NewActionDataFromHexData(encoded)
	}
	return out, nil
}

// encodeWithChainABI serializes generic action data with the ABI currently
// set on the contract account
func (c *Client) encodeWithChainABI(ctx context.Context, action domain.Action, abis map[string]*eos.ABI) ([]byte, error) {
	abi, ok := abis[action.Account]
	if !ok {
		resp, err := c.api.GetABI(ctx, eos.AN(action.Account))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch ABI of %s: %w", action.Account, err)
		}
		abi = &resp.ABI
		abis[action.Account] = abi
	}

	payload, err := json.Marshal(lo.Ternary[any](action.Data == nil, map[string]any{}, action.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal action data: %w", err)
	}
	encoded, err := abi.EncodeAction(eos.ActN(action.Name), payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode action data: %w", err)
	}
	return encoded, nil
}

// Ensure the client implements the interfaces
var (
	_ usecase.TransactionClient = (*Client)(nil)
	_ usecase.TableReader       = (*Client)(nil)
)
