// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package kernel packs signed ChromeOS kernel partition images with futility.
package kernel

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/kairos-io/go-cuckoo/pkg/constants"
	"github.com/kairos-io/go-cuckoo/pkg/layout"
	"github.com/kairos-io/go-cuckoo/pkg/types"
	"github.com/kairos-io/go-cuckoo/pkg/utils"
	"github.com/spf13/afero"
)

// bootloaderStubSize is the size of the zeroed bootloader written when none is configured.
const bootloaderStubSize = 512

var architectures = map[string]struct{}{
	"x86":     {},
	"x86_64":  {},
	"amd64":   {},
	"arm":     {},
	"aarch64": {},
	"arm64":   {},
	"mips":    {},
}

// Packer packs kernel partition images.
type Packer struct {
	// Directory holding the .keyblock and .vbprivk files.
	KeyDir string
	// Directory receiving images of kernels without an explicit output.
	PackageDir string
	// Planned partitions; a kernel named like a partition must fit in it.
	Partitions []layout.PartitionSpec

	Fs     afero.Fs
	Runner utils.Runner
	Logger *slog.Logger
}

// build holds the state of a single Pack call.
type build struct {
	*Packer
	ctx    context.Context
	kernel types.KernelConfig

	// fields initialized during build
	scratchDir     string
	keyblockPath   string
	privateKeyPath string
	cmdlinePath    string
	bootloaderPath string
	outputPath     string
}

// PackAll packs every kernel in order and returns the output paths.
func (p *Packer) PackAll(ctx context.Context, kernels []types.KernelConfig) ([]string, error) {
	outputs := make([]string, 0, len(kernels))
	for _, k := range kernels {
		out, err := p.Pack(ctx, k)
		if err != nil {
			return outputs, fmt.Errorf("kernel %s: %w", k.Name, err)
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// Pack builds one kernel partition image and returns its path.
//
// Build process is as follows:
//   - check the kernel image, keyblock and private key exist
//   - write the kernel command line and bootloader stub to a scratch dir
//   - run futility vbutil_kernel --pack
//   - check the packed image fits the partition of the same name, if any.
func (p *Packer) Pack(ctx context.Context, k types.KernelConfig) (string, error) {
	p.defaults()

	b := &build{Packer: p, ctx: ctx, kernel: k}

	var err error
	b.scratchDir, err = afero.TempDir(p.Fs, "", "cuckoo")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := p.Fs.RemoveAll(b.scratchDir); err != nil {
			p.Logger.Warn("failed to remove scratch dir", "path", b.scratchDir, "error", err)
		}
	}()

	for _, step := range []func() error{
		b.checkInputs,
		b.generateCmdline,
		b.generateBootloader,
		b.pack,
		b.checkFit,
	} {
		if err = step(); err != nil {
			return "", err
		}
	}

	p.Logger.Info("Packed kernel", "kernel", k.Name, "path", b.outputPath)
	return b.outputPath, nil
}

func (b *build) checkInputs() error {
	if b.kernel.Image == "" {
		return fmt.Errorf("no kernel image configured")
	}
	if b.kernel.Keyblock == "" || b.kernel.SignPrivate == "" {
		return fmt.Errorf("keyblock and signprivate are required")
	}
	if b.kernel.Arch == "" {
		b.kernel.Arch = "x86"
	}
	if _, ok := architectures[b.kernel.Arch]; !ok {
		return fmt.Errorf("unsupported architecture %q", b.kernel.Arch)
	}
	if b.kernel.Version == 0 {
		b.kernel.Version = 1
	}

	b.keyblockPath = filepath.Join(b.KeyDir, b.kernel.Keyblock+constants.KeyblockExt)
	b.privateKeyPath = filepath.Join(b.KeyDir, b.kernel.SignPrivate+constants.PrivateKeyExt)

	b.outputPath = b.kernel.Output
	if b.outputPath == "" {
		b.outputPath = filepath.Join(b.PackageDir, b.kernel.Name+".kpart")
	}

	paths := []string{b.kernel.Image, b.keyblockPath, b.privateKeyPath}
	if b.kernel.Bootloader != "" {
		paths = append(paths, b.kernel.Bootloader)
	}
	b.Logger.Debug("Checking kernel inputs", "kernel", b.kernel.Name, "paths", paths)
	return utils.RequireFiles(b.Fs, paths...)
}

func (b *build) generateCmdline() error {
	b.Logger.Debug("Using cmdline", "kernel", b.kernel.Name, "cmdline", b.kernel.Cmdline)
	b.cmdlinePath = filepath.Join(b.scratchDir, "cmdline")
	return afero.WriteFile(b.Fs, b.cmdlinePath, []byte(b.kernel.Cmdline), 0o600)
}

func (b *build) generateBootloader() error {
	if b.kernel.Bootloader != "" {
		b.Logger.Debug("Using bootloader", "path", b.kernel.Bootloader)
		b.bootloaderPath = b.kernel.Bootloader
		return nil
	}
	b.Logger.Debug("Using zeroed bootloader stub")
	b.bootloaderPath = filepath.Join(b.scratchDir, "bootloader.bin")
	return afero.WriteFile(b.Fs, b.bootloaderPath, make([]byte, bootloaderStubSize), 0o600)
}

func (b *build) pack() error {
	if dir := filepath.Dir(b.outputPath); dir != "" {
		if err := b.Fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b.Logger.Info("Packing kernel", "kernel", b.kernel.Name, "image", b.kernel.Image, "keyblock", b.keyblockPath)
	_, err := b.Runner.Run(b.ctx, "futility", "vbutil_kernel",
		"--pack", b.outputPath,
		"--keyblock", b.keyblockPath,
		"--signprivate", b.privateKeyPath,
		"--version", strconv.Itoa(b.kernel.Version),
		"--config", b.cmdlinePath,
		"--bootloader", b.bootloaderPath,
		"--vmlinuz", b.kernel.Image,
		"--arch", b.kernel.Arch,
	)
	if err != nil {
		return fmt.Errorf("error packing kernel: %w", err)
	}
	return nil
}

func (b *build) checkFit() error {
	for _, part := range b.Partitions {
		if part.Name != b.kernel.Name || part.RemainingSpace() {
			continue
		}
		info, err := b.Fs.Stat(b.outputPath)
		if err != nil {
			return err
		}
		limit := part.SizeSectors * constants.SectorSize
		if info.Size() > limit {
			return fmt.Errorf("packed image is %d bytes, partition %s holds %d", info.Size(), part.Name, limit)
		}
		b.Logger.Debug("Kernel fits its partition", "kernel", b.kernel.Name, "size", info.Size(), "limit", limit)
	}
	return nil
}

func (p *Packer) defaults() {
	if p.Fs == nil {
		p.Fs = afero.NewOsFs()
	}
	if p.Runner == nil {
		p.Runner = utils.ExecRunner{Logger: p.Logger}
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.PackageDir == "" {
		p.PackageDir = constants.DefaultKernelPackageDir
	}
}
