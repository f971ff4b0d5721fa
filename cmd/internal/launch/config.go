package launch

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the launch routing configuration, loaded once at startup from
// a YAML file. Rule order in the file is the routing precedence.
type Config struct {
	Title       string  `yaml:"title"`
	Description string  `yaml:"description"`
	Views       ViewSet `yaml:"views"`
	Rules       []Rule  `yaml:"rules"`
	DefaultView ViewRef `yaml:"default_view"`
	FailedView  ViewRef `yaml:"failed_view"`
}

// LoadConfig reads and validates a launch configuration file.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("launch: read config: %w", err)
	}
	return ParseConfig(raw)
}

// ParseConfig parses and validates YAML launch configuration.
func ParseConfig(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("launch: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the startup guarantees: the default and failure
// destinations must render, and every view template must be a rooted
// path. Rules referencing unknown views are tolerated here and skipped at
// resolution time.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("launch: config: title is required")
	}
	if len(c.Views) == 0 {
		return fmt.Errorf("launch: config: at least one view is required")
	}
	for name, tmpl := range c.Views {
		if !strings.HasPrefix(tmpl, "/") {
			return fmt.Errorf("launch: config: view %q template must start with /", name)
		}
	}
	if _, err := c.Views.Resolve(c.DefaultView.View, c.DefaultView.Args); err != nil {
		return fmt.Errorf("launch: config: default_view: %w", err)
	}
	if _, err := c.Views.Resolve(c.FailedView.View, c.FailedView.Args); err != nil {
		return fmt.Errorf("launch: config: failed_view: %w", err)
	}
	for i, r := range c.Rules {
		if strings.TrimSpace(r.View) == "" {
			return fmt.Errorf("launch: config: rule %d: view is required", i)
		}
		for _, p := range r.Params {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("launch: config: rule %d: empty parameter name", i)
			}
		}
	}
	return nil
}

// FailedURL renders the configured failure destination. Validate
// guarantees this cannot fail after startup.
func (c Config) FailedURL() string {
	dest, err := c.Views.Resolve(c.FailedView.View, c.FailedView.Args)
	if err != nil {
		return "/"
	}
	return dest
}
