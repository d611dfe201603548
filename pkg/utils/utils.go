package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/afero"
)

// Runner runs external tools such as openssl and futility.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host.
type ExecRunner struct {
	Logger *slog.Logger
}

// Run executes name with args and returns the combined output.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Running command", "cmd", name, "args", strings.Join(args, " "))

	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		logger.Debug("Command failed", "cmd", name, "output", string(out))
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// Exists reports whether path exists on fs.
func Exists(fs afero.Fs, path string) (bool, error) {
	_, err := fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// RequireFiles fails listing every path in paths that does not exist.
func RequireFiles(fs afero.Fs, paths ...string) error {
	var errs []error
	for _, p := range paths {
		ok, err := Exists(fs, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w", p, os.ErrNotExist))
		}
	}
	return errors.Join(errs...)
}

// MoveFile renames src to dst, copying when a rename is not possible.
func MoveFile(fs afero.Fs, src, dst string) error {
	if err := fs.Rename(src, dst); err == nil {
		return nil
	}
	data, err := afero.ReadFile(fs, src)
	if err != nil {
		return err
	}
	if err = afero.WriteFile(fs, dst, data, 0o600); err != nil {
		return err
	}
	return fs.Remove(src)
}
