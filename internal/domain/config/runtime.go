package config

import (
	"time"

	"github.com/trebuchet-org/rtt/internal/domain"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Execution settings
	Debug          bool
	NonInteractive bool
	Timeout        time.Duration
	Once           bool // never enter watch mode

	// Resolved configurations
	Chain ChainConfig
	Watch WatchConfig
	Nodes []*domain.NodeInstance
}

// ChainConfig describes how to reach and sign for the chain
type ChainConfig struct {
	URL           string
	SystemAccount string
	Permission    string
	Keys          []string
}

// Detector names
const (
	DetectorMtime = "mtime"
	DetectorHash  = "hash"
)

// WatchConfig tunes the watch loop
type WatchConfig struct {
	PollInterval     time.Duration
	SettleDelay      time.Duration // per node instance
	SourceExtensions []string
	Detector         string
	ValidateWASM     bool
	Notify           bool
	NotifyDebounce   time.Duration
}
