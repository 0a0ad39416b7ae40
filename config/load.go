package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables that override the file,
// e.g. SAVESNAP_WATCHED_ROOT or SAVESNAP_GRACE_PERIOD.
const EnvPrefix = "SAVESNAP_"

// Load reads path (if non-empty) and then applies SAVESNAP_* environment overrides.
func Load(path string) (File, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return File{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// SAVESNAP_GRACE_PERIOD -> grace_period
	transform := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", transform), nil); err != nil {
		return File{}, fmt.Errorf("load env: %w", err)
	}

	var f File
	if err := k.Unmarshal("", &f); err != nil {
		return File{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return f, nil
}

// Write stores f as YAML at path. An existing file is never replaced.
func Write(path string, f File) error {
	data, err := yamlv3.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("config file %s already exists", path)
		}
		return fmt.Errorf("creating config file: %w", err)
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	return out.Close()
}
