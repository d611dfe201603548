// Package keys builds the vboot signing key hierarchy with openssl and futility.
package keys

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/kairos-io/go-cuckoo/pkg/constants"
	"github.com/kairos-io/go-cuckoo/pkg/types"
	"github.com/kairos-io/go-cuckoo/pkg/utils"
	"github.com/spf13/afero"
)

// Generator creates keys and keyblocks under KeyDir.
type Generator struct {
	// Directory receiving the .vbpubk, .vbprivk and .keyblock files.
	KeyDir string
	Fs     afero.Fs
	Runner utils.Runner
	Logger *slog.Logger
}

// Generate creates every key, then every keyblock, in order.
//
// All keys are checked up front so a bad algorithm does not leave a half
// generated hierarchy behind.
func (g *Generator) Generate(ctx context.Context, keys []types.KeyConfig, keyblocks []types.KeyblockConfig) error {
	g.defaults()

	for _, key := range keys {
		if _, err := AlgorithmID(key.RSALength, key.HashAlg); err != nil {
			return fmt.Errorf("key %s: %w", key.Name, err)
		}
	}

	for _, key := range keys {
		if err := g.GenerateKey(ctx, key); err != nil {
			return fmt.Errorf("key %s: %w", key.Name, err)
		}
	}

	for _, keyblock := range keyblocks {
		if err := g.GenerateKeyblock(ctx, keyblock); err != nil {
			return fmt.Errorf("keyblock %s: %w", keyblock.Name, err)
		}
	}

	return nil
}

// GenerateKey creates <name>.vbpubk and <name>.vbprivk in KeyDir.
// Intermediates (.pem, .crt, .keyb) stay in the temp subdirectory.
func (g *Generator) GenerateKey(ctx context.Context, key types.KeyConfig) error {
	g.defaults()

	alg, err := AlgorithmID(key.RSALength, key.HashAlg)
	if err != nil {
		return err
	}

	tempDir := filepath.Join(g.KeyDir, constants.KeyScratchSubdir)
	if err = g.Fs.MkdirAll(tempDir, 0o700); err != nil {
		return err
	}

	base := filepath.Join(tempDir, key.Name)
	pemPath := base + constants.RSAKeyExt
	crtPath := base + constants.CertificateExt
	keybPath := base + constants.PreprocessedExt
	pubPath := base + constants.PublicKeyExt
	privPath := base + constants.PrivateKeyExt

	g.Logger.Info("Generating RSA keypair", "key", key.Name, "path", pemPath, "bits", key.RSALength)
	if _, err = g.Runner.Run(ctx, "openssl", "genrsa", "-F4", "-out", pemPath, strconv.Itoa(key.RSALength)); err != nil {
		return err
	}

	g.Logger.Info("Generating certificate", "key", key.Name, "path", crtPath)
	if _, err = g.Runner.Run(ctx, "openssl", "req", "-batch", "-new", "-x509", "-key", pemPath, "-out", crtPath); err != nil {
		return err
	}

	g.Logger.Debug("Pre-processing RSA public key", "key", key.Name, "path", keybPath)
	if err = g.writeKeyb(crtPath, keybPath); err != nil {
		return err
	}

	algName, _ := AlgorithmName(alg)
	g.Logger.Info("Packing public key", "key", key.Name, "algorithm", alg, "name", algName)
	if _, err = g.Runner.Run(ctx, "futility", "vbutil_key", "--pack", pubPath, "--key", keybPath,
		"--version", "1", "--algorithm", strconv.Itoa(alg)); err != nil {
		return err
	}

	g.Logger.Info("Packing private key", "key", key.Name)
	if _, err = g.Runner.Run(ctx, "futility", "vbutil_key", "--pack", privPath, "--key", pemPath,
		"--algorithm", strconv.Itoa(alg)); err != nil {
		return err
	}

	for _, ext := range []string{constants.PublicKeyExt, constants.PrivateKeyExt} {
		if err = utils.MoveFile(g.Fs, base+ext, filepath.Join(g.KeyDir, key.Name+ext)); err != nil {
			return err
		}
	}

	return nil
}

// GenerateKeyblock packs <name>.keyblock from already generated keys.
func (g *Generator) GenerateKeyblock(ctx context.Context, keyblock types.KeyblockConfig) error {
	g.defaults()

	dataPub := filepath.Join(g.KeyDir, keyblock.DataPubKey+constants.PublicKeyExt)
	signPriv := filepath.Join(g.KeyDir, keyblock.SignPrivate+constants.PrivateKeyExt)
	if err := utils.RequireFiles(g.Fs, dataPub, signPriv); err != nil {
		return err
	}

	out := filepath.Join(g.KeyDir, keyblock.Name+constants.KeyblockExt)
	g.Logger.Info("Generating keyblock", "keyblock", keyblock.Name, "path", out, "flags", keyblock.Flags)
	_, err := g.Runner.Run(ctx, "futility", "vbutil_keyblock", "--pack", out,
		"--flags", strconv.Itoa(keyblock.Flags),
		"--datapubkey", dataPub,
		"--signprivate", signPriv)
	return err
}

func (g *Generator) writeKeyb(crtPath, keybPath string) error {
	pub, err := LoadPublicKey(g.Fs, crtPath)
	if err != nil {
		return err
	}
	f, err := g.Fs.Create(keybPath)
	if err != nil {
		return err
	}
	if err = DumpRSAPublicKey(pub, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (g *Generator) defaults() {
	if g.Fs == nil {
		g.Fs = afero.NewOsFs()
	}
	if g.Runner == nil {
		g.Runner = utils.ExecRunner{Logger: g.Logger}
	}
	if g.Logger == nil {
		g.Logger = slog.Default()
	}
}
