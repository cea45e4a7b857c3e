package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// LoadUserConfig decodes the TOML file at path over the defaults. A missing
// file yields the defaults.
func LoadUserConfig(path string) (*UserConfig, error) {
	cfg := DefaultUserConfig()

	if !FileExists(path) {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return cfg, nil
}

// CreateDefaultUserConfig writes the commented template to path. An existing
// file is left alone unless force is set.
func CreateDefaultUserConfig(path string, force bool) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	if FileExists(path) && !force {
		return errors.Errorf("config file already exists: %s", path)
	}

	content := GenerateUserConfigTemplate()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return errors.Wrap(err, "failed to write config")
	}

	return nil
}
