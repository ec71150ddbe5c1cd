package usecase

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/lo"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/domain/config"
)

// ApplyDeployment installs changed contract artifacts on chain
type ApplyDeployment struct {
	tx        TransactionClient
	abi       ABIEncoder
	validator BinaryValidator
	log       *slog.Logger

	systemAccount string
	permission    string
	validateWASM  bool
}

// NewApplyDeployment creates a new ApplyDeployment use case
func NewApplyDeployment(
	cfg *config.RuntimeConfig,
	tx TransactionClient,
	abi ABIEncoder,
	validator BinaryValidator,
	log *slog.Logger,
) *ApplyDeployment {
	return &ApplyDeployment{
		tx:            tx,
		abi:           abi,
		validator:     validator,
		log:           log,
		systemAccount: lo.Ternary(cfg.Chain.SystemAccount != "", cfg.Chain.SystemAccount, domain.DefaultSystemAccount),
		permission:    lo.Ternary(cfg.Chain.Permission != "", cfg.Chain.Permission, domain.DefaultPermission),
		validateWASM:  cfg.Watch.ValidateWASM,
	}
}

// BuildActions builds the setcode and/or setabi actions for a change.
// setcode always comes first.
func (uc *ApplyDeployment) BuildActions(ctx context.Context, change domain.ContractChange) ([]domain.Action, error) {
	auth := []domain.PermissionLevel{{Actor: change.Account, Permission: uc.permission}}
	var actions []domain.Action

	if change.WASMPath.HasValue() {
		path := change.WASMPath.Value()
		code, err := os.ReadFile(path)
		if err != nil {
			return nil, &domain.FileUnavailableError{Path: path, Err: err}
		}
		if uc.validateWASM && uc.validator != nil {
			if err := uc.validator.ValidateBinary(ctx, path, code); err != nil {
				return nil, err
			}
		}

		actions = append(actions, domain.Action{
			Account:       uc.systemAccount,
			Name:          domain.ActionSetCode,
			Authorization: auth,
			Data: domain.SetCodeData{
				Account:   change.Account,
				VMType:    0,
				VMVersion: 0,
				Code:      hex.EncodeToString(code),
			},
		})
	}

	if change.ABIPath.HasValue() {
		path := change.ABIPath.Value()
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, &domain.FileUnavailableError{Path: path, Err: err}
		}
		encoded, err := uc.abi.EncodeABI(ctx, path, raw)
		if err != nil {
			return nil, err
		}

		actions = append(actions, domain.Action{
			Account:       uc.systemAccount,
			Name:          domain.ActionSetABI,
			Authorization: auth,
			Data: domain.SetABIData{
				Account: change.Account,
				ABI:     hex.EncodeToString(encoded),
			},
		})
	}

	return actions, nil
}

// Apply builds the actions for change and submits them as a single
// transaction. Nothing is submitted when neither artifact changed.
// Failures are returned as-is and never retried here.
func (uc *ApplyDeployment) Apply(ctx context.Context, change domain.ContractChange) (*domain.TransactionReceipt, error) {
	actions, err := uc.BuildActions(ctx, change)
	if err != nil {
		return nil, fmt.Errorf("failed to build redeploy for %s: %w", change.Account, err)
	}
	if len(actions) == 0 {
		return nil, nil
	}

	names := lo.Map(actions, func(a domain.Action, _ int) string { return a.Name })
	uc.log.Debug("submitting redeploy", "account", change.Account, "actions", names)

	receipt, err := uc.tx.Transact(ctx, actions)
	if err != nil {
		return nil, &domain.TransactionError{Actions: names, Err: err}
	}
	return receipt, nil
}
