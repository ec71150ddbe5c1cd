package suite

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/samber/lo"
	"github.com/trebuchet-org/rtt/internal/domain"
)

func (l *Loader) caseFunc(tc *CaseConfig) domain.TestFunc {
	return func(ctx context.Context) error {
		for i, step := range tc.Steps {
			var err error
			switch step.Kind() {
			case "table":
				err = l.checkTable(ctx, step)
			default:
				err = l.pushAction(ctx, step)
			}
			if err != nil {
				return fmt.Errorf("step #%d (%s): %w", i+1, step.describe(), err)
			}
		}
		return nil
	}
}

func (l *Loader) pushAction(ctx context.Context, step *StepConfig) error {
	account, name, err := splitAction(step.Action)
	if err != nil {
		return err
	}

	auth, err := step.authorization()
	if err != nil {
		return err
	}

	data := step.Data
	if data == nil {
		data = map[string]any{}
	}

	_, err = l.tx.Transact(ctx, []domain.Action{{
		Account:       account,
		Name:          name,
		Authorization: auth,
		Data:          data,
	}})

	if step.ExpectError == "" {
		return err
	}
	if err == nil {
		return fmt.Errorf("expected error containing %q, transaction succeeded", step.ExpectError)
	}
	if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(step.ExpectError)) {
		return fmt.Errorf("expected error containing %q, got: %w", step.ExpectError, err)
	}
	return nil
}

func (l *Loader) checkTable(ctx context.Context, step *StepConfig) error {
	rows, err := l.tables.GetTableRows(ctx, *step.Table)
	if err != nil {
		return err
	}

	if step.Rows != nil && len(rows) != *step.Rows {
		return fmt.Errorf("expected %d rows in %s, found %d", *step.Rows, step.Table.Table, len(rows))
	}

	if step.Contains != nil {
		_, found := lo.Find(rows, func(row map[string]any) bool {
			return rowContains(row, step.Contains)
		})
		if !found {
			return fmt.Errorf("no row in %s matches %v", step.Table.Table, step.Contains)
		}
	}
	return nil
}

// authorization parses the step's auth list. Without one the contract
// account authorizes its own action.
func (s *StepConfig) authorization() ([]domain.PermissionLevel, error) {
	if len(s.Auth) == 0 {
		account, _, _ := splitAction(s.Action)
		return []domain.PermissionLevel{{Actor: account, Permission: domain.DefaultPermission}}, nil
	}

	levels := make([]domain.PermissionLevel, 0, len(s.Auth))
	for _, a := range s.Auth {
		level, err := domain.ParsePermissionLevel(a)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, nil
}

func (s *StepConfig) describe() string {
	if s.Table != nil {
		return "table " + s.Table.Code + "/" + s.Table.Table
	}
	return s.Action
}

// rowContains reports whether every expected field equals the row's field.
// Values are compared by their printed form so YAML integers match JSON
// numbers and numeric strings.
func rowContains(row, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := row[key]
		if !ok {
			return false
		}
		if reflect.DeepEqual(got, want) {
			continue
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
