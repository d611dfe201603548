// Package config loads the cuckoo configuration document.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kairos-io/go-cuckoo/pkg/constants"
	"github.com/kairos-io/go-cuckoo/pkg/types"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Load reads the configuration at path. An empty path means the default
// cuckoo.yaml in the working directory, which may be absent.
func Load(fs afero.Fs, path string) (*types.Config, error) {
	explicit := path != ""
	if !explicit {
		path = constants.DefaultConfigFile
	}

	f, err := fs.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			slog.Debug("No configuration file found", "path", path)
			return &types.Config{}, nil
		}
		return nil, err
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	slog.Debug("Loaded configuration", "path", path, "keys", len(cfg.VerifiedBoot.Keys),
		"keyblocks", len(cfg.VerifiedBoot.Keyblocks), "kernels", len(cfg.Kernels), "partitions", len(cfg.Partitions))
	return cfg, nil
}

// Decode parses a configuration document. Unknown fields are errors, including inside list entries.
func Decode(r io.Reader) (*types.Config, error) {
	cfg := &types.Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// Kernel returns the kernel named name.
func Kernel(cfg *types.Config, name string) (types.KernelConfig, error) {
	for _, k := range cfg.Kernels {
		if k.Name == name {
			return k, nil
		}
	}
	return types.KernelConfig{}, fmt.Errorf("kernel %s not found in configuration", name)
}
