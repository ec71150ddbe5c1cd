package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/rtt/internal/domain"
	"github.com/trebuchet-org/rtt/internal/domain/config"
)

// Built-in defaults used when neither rtt.toml nor flags/env say otherwise
const (
	DefaultChainURL       = "http://127.0.0.1:8888"
	DefaultPollInterval   = time.Second
	DefaultSettleDelay    = time.Second
	DefaultNotifyDebounce = 200 * time.Millisecond

	// DevKey is the well-known key of a fresh local eosio chain
	DevKey = "5KQwrPbwdL6PhXujxW37FSSQZ1JiwsST4cqQzDeyXtP79zkvFD3"

	defaultNodeName = "nodeos"
)

// DefaultSourceExtensions are the test file extensions that enable watch mode
var DefaultSourceExtensions = []string{".yaml", ".yml"}

// Provider creates RuntimeConfig for Wire dependency injection.
// Precedence: flags and RTT_* env, then rtt.toml, then built-in defaults.
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		projectRoot = FindProjectRoot()
	}
	projectRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	loadEnvFiles(projectRoot)

	file, err := loadProjectFile(projectRoot)
	if err != nil {
		return nil, err
	}
	if file == nil {
		file = &ProjectFile{}
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, ".rtt"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		Timeout:        v.GetDuration("timeout"),
		Once:           v.GetBool("once"),
		Nodes:          buildNodes(file.Nodes),
	}

	cfg.Chain = config.ChainConfig{
		URL:           firstNonEmpty(v.GetString("chain_url"), file.Chain.URL, cfg.Nodes[0].URL()),
		SystemAccount: firstNonEmpty(file.Chain.SystemAccount, domain.DefaultSystemAccount),
		Permission:    firstNonEmpty(file.Chain.Permission, domain.DefaultPermission),
		Keys:          file.Chain.Keys,
	}
	if len(cfg.Chain.Keys) == 0 {
		cfg.Chain.Keys = []string{DevKey}
	}

	cfg.Watch = config.WatchConfig{
		PollInterval:     firstPositive(v.GetDuration("poll_interval"), file.Watch.PollInterval, DefaultPollInterval),
		SettleDelay:      firstPositive(v.GetDuration("settle_delay"), file.Watch.SettleDelay, DefaultSettleDelay),
		SourceExtensions: lo.Ternary(len(file.Watch.SourceExtensions) > 0, file.Watch.SourceExtensions, DefaultSourceExtensions),
		Detector:         firstNonEmpty(v.GetString("detector"), file.Watch.Detector, config.DetectorMtime),
		ValidateWASM:     boolSetting(v, "validate_wasm", file.Watch.ValidateWASM, true),
		Notify:           boolSetting(v, "notify", file.Watch.Notify, true),
		NotifyDebounce:   firstPositive(file.Watch.NotifyDebounce, DefaultNotifyDebounce),
	}

	if cfg.Watch.Detector != config.DetectorMtime && cfg.Watch.Detector != config.DetectorHash {
		return nil, fmt.Errorf("unknown change detector %q (expected %s or %s)", cfg.Watch.Detector, config.DetectorMtime, config.DetectorHash)
	}

	return cfg, nil
}

// buildNodes converts [[node]] entries into instances, falling back to a
// single local nodeos
func buildNodes(sections []NodeSection) []*domain.NodeInstance {
	if len(sections) == 0 {
		return []*domain.NodeInstance{{Name: defaultNodeName, HTTPAddr: "127.0.0.1:8888"}}
	}
	return lo.Map(sections, func(s NodeSection, i int) *domain.NodeInstance {
		return &domain.NodeInstance{
			Name:      nodeName(i, s.Name),
			Binary:    s.Binary,
			HTTPAddr:  lo.Ternary(s.HTTPAddr != "", s.HTTPAddr, fmt.Sprintf("127.0.0.1:%d", 8888+i)),
			DataDir:   s.DataDir,
			ConfigDir: s.ConfigDir,
			Args:      s.Args,
		}
	})
}

func nodeName(i int, name string) string {
	if name != "" {
		return name
	}
	if i == 0 {
		return defaultNodeName
	}
	return fmt.Sprintf("%s%d", defaultNodeName, i)
}

// boolSetting lets a flag or env value override the file value
func boolSetting(v *viper.Viper, key string, fromFile *bool, fallback bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	if fromFile != nil {
		return *fromFile
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstPositive(values ...time.Duration) time.Duration {
	for _, d := range values {
		if d > 0 {
			return d
		}
	}
	return 0
}

// FindProjectRoot walks up from the current directory to find rtt.toml.
// Falls back to the current directory when none is found.
func FindProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("RTT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults. Keys that rtt.toml can also set have no viper default.
	v.SetDefault("timeout", "5m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("once", false)
	v.SetDefault("project_root", projectRoot)

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})

	return v
}
