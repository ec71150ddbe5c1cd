package interactive

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/rtt/internal/domain/config"
	"github.com/trebuchet-org/rtt/internal/usecase"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectTestFile selects a test file from a list
func (s *SelectorAdapter) SelectTestFile(ctx context.Context, candidates []string, prompt string) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("no test files provided for selection")
	}

	// If only one match, return it directly
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	// In non-interactive mode, we can't select
	if s.config.NonInteractive {
		return "", fmt.Errorf("%d test files match, interactive selection not available in non-interactive mode: %s",
			len(candidates), strings.Join(candidates, ", "))
	}

	options := s.formatOptions(candidates)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             prompt,
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(candidates),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}

	return candidates[index], nil
}

// formatOptions renders "name (dir)" with paths relative to the project root
func (s *SelectorAdapter) formatOptions(candidates []string) []string {
	options := make([]string, len(candidates))
	for i, path := range candidates {
		rel := path
		if s.config.ProjectRoot != "" {
			if r, err := filepath.Rel(s.config.ProjectRoot, path); err == nil {
				rel = r
			}
		}
		name := color.New(color.FgWhite, color.Bold).Sprint(filepath.Base(rel))
		dir := color.New(color.FgBlue).Sprint(filepath.Dir(rel))
		options[i] = fmt.Sprintf("%s (%s)", name, dir)
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		// Empty search shows all items
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		// First try simple substring match
		if strings.Contains(item, input) {
			return true
		}

		// Then try fuzzy match
		return len(fuzzy.Find(input, []string{item})) > 0
	}
}

// Ensure the adapter implements the interface
var _ usecase.TestFileSelector = (*SelectorAdapter)(nil)
