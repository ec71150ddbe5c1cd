package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ProjectFileName is the project configuration file looked up from the
// working directory upwards
const ProjectFileName = "rtt.toml"

// ProjectFile represents the raw rtt.toml structure
type ProjectFile struct {
	Chain ChainSection  `toml:"chain"`
	Watch WatchSection  `toml:"watch"`
	Nodes []NodeSection `toml:"node" validate:"dive"`
}

// ChainSection is the [chain] table
type ChainSection struct {
	URL           string   `toml:"url" validate:"omitempty,url"`
	SystemAccount string   `toml:"system_account" validate:"omitempty,max=12"`
	Permission    string   `toml:"permission" validate:"omitempty,max=12"`
	Keys          []string `toml:"keys" validate:"dive,required"`
}

// WatchSection is the [watch] table
type WatchSection struct {
	PollInterval     time.Duration `toml:"poll_interval" validate:"gte=0"`
	SettleDelay      time.Duration `toml:"settle_delay" validate:"gte=0"`
	Detector         string        `toml:"detector" validate:"omitempty,oneof=mtime hash"`
	SourceExtensions []string      `toml:"source_extensions" validate:"dive,startswith=."`
	ValidateWASM     *bool         `toml:"validate_wasm"`
	Notify           *bool         `toml:"notify"`
	NotifyDebounce   time.Duration `toml:"notify_debounce" validate:"gte=0"`
}

// NodeSection is one [[node]] entry
type NodeSection struct {
	Name      string   `toml:"name" validate:"omitempty,alphanum"`
	Binary    string   `toml:"binary"`
	HTTPAddr  string   `toml:"http_addr" validate:"omitempty,hostname_port"`
	DataDir   string   `toml:"data_dir"`
	ConfigDir string   `toml:"config_dir"`
	Args      []string `toml:"args"`
}

// loadEnvFiles loads .env and .env.local from the project root when present
func loadEnvFiles(projectRoot string) {
	for _, name := range []string{".env", ".env.local"} {
		envFile := filepath.Join(projectRoot, name)
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
		}
	}
}

// loadProjectFile loads and validates rtt.toml.
// Returns (nil, nil) when the file does not exist.
func loadProjectFile(projectRoot string) (*ProjectFile, error) {
	path := filepath.Join(projectRoot, ProjectFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	var file ProjectFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ProjectFileName, err)
	}

	file.Chain.URL = os.ExpandEnv(file.Chain.URL)
	for i, key := range file.Chain.Keys {
		file.Chain.Keys[i] = strings.TrimSpace(os.ExpandEnv(key))
	}
	for i := range file.Nodes {
		file.Nodes[i].Binary = os.ExpandEnv(file.Nodes[i].Binary)
		file.Nodes[i].DataDir = os.ExpandEnv(file.Nodes[i].DataDir)
		file.Nodes[i].ConfigDir = os.ExpandEnv(file.Nodes[i].ConfigDir)
	}

	if err := validateProjectFile(&file); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ProjectFileName, err)
	}
	return &file, nil
}

// validateProjectFile checks field formats and cross-field rules
func validateProjectFile(file *ProjectFile) error {
	validate := validator.New()
	if err := validate.Struct(file); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s' (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}

	names := make(map[string]bool, len(file.Nodes))
	addrs := make(map[string]bool, len(file.Nodes))
	for i, node := range file.Nodes {
		name := nodeName(i, node.Name)
		if names[name] {
			return fmt.Errorf("node %s is declared more than once", name)
		}
		names[name] = true
		if node.HTTPAddr != "" {
			if addrs[node.HTTPAddr] {
				return fmt.Errorf("http_addr %s is used by more than one node", node.HTTPAddr)
			}
			addrs[node.HTTPAddr] = true
		}
	}
	return nil
}
