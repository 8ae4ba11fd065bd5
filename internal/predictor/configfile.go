package predictor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LoadConfigFile reads a configuration file into a config variant based
// on its extension. Supports .yaml/.yml, .json and .toml. Fields absent
// from the file keep the given defaults, so callers typically pass
// Default*Config() as the starting value:
//
//	cfg := DefaultAnalysisConfig()
//	err := LoadConfigFile("model.yaml", &cfg)
func LoadConfigFile(path string, cfg any) error {
	if path == "" {
		return fmt.Errorf("empty config path")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(raw, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
	return nil
}
