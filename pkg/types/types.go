package types

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config is the cuckoo configuration document.
type Config struct {
	VerifiedBoot VerifiedBoot  `yaml:"verified_boot"`
	Kernels      KernelList    `yaml:"kernels"`
	Device       Device        `yaml:"device"`
	Partitions   PartitionList `yaml:"partitions"`
}

// VerifiedBoot describes the signing key hierarchy.
type VerifiedBoot struct {
	// Directory receiving the packed .vbpubk, .vbprivk and .keyblock files.
	KeyDir    string       `yaml:"key_dir"`
	Keys      KeyList      `yaml:"keys"`
	Keyblocks KeyblockList `yaml:"keyblocks"`
}

// KeyConfig is one RSA key of the hierarchy.
type KeyConfig struct {
	Name string `yaml:"name"`
	// RSA modulus length in bits.
	RSALength int `yaml:"rsa_length"`
	// Hash algorithm name, SHA1, SHA256 or SHA512.
	HashAlg string `yaml:"hash_alg"`
}

// KeyblockConfig binds a data public key to flags, signed by a private key.
type KeyblockConfig struct {
	Name        string `yaml:"name"`
	Flags       int    `yaml:"flags"`
	DataPubKey  string `yaml:"datapubkey"`
	SignPrivate string `yaml:"signprivate"`
}

// KernelConfig describes a kernel partition image to pack.
type KernelConfig struct {
	Name string `yaml:"name"`
	// Path to the kernel image (bzImage / Image).
	Image string `yaml:"image"`
	// Keyblock name, resolved to <key_dir>/<keyblock>.keyblock.
	Keyblock string `yaml:"keyblock"`
	// Private key name, resolved to <key_dir>/<signprivate>.vbprivk.
	SignPrivate string `yaml:"signprivate"`
	// Kernel command line.
	Cmdline string `yaml:"cmdline"`
	// Target architecture passed to futility, x86 or arm.
	Arch string `yaml:"arch"`
	// Optional bootloader stub; a zeroed 512 byte stub is used when empty.
	Bootloader string `yaml:"bootloader"`
	// Kernel version stored in the preamble.
	Version int `yaml:"version"`
	// Output file, defaults to <package dir>/<name>.kpart.
	Output string `yaml:"output"`
}

// Device describes the target block device.
type Device struct {
	Path string `yaml:"path"`
	// Overrides device discovery when non-zero.
	Sectors int64 `yaml:"sectors"`
}

// PartitionConfig is a raw partition declaration before validation.
type PartitionConfig struct {
	Name string `yaml:"name"`
	// Shorthand (kernel, rootfs, ...) or a literal GUID.
	Type string `yaml:"type"`
	// Sectors, a size with a K/M/G/T suffix, or -1 for the remaining space.
	Size SizeValue `yaml:"size"`
	// Kernel-only boot attributes.
	Priority   *int  `yaml:"priority,omitempty"`
	Tries      *int  `yaml:"tries,omitempty"`
	Successful *bool `yaml:"successful,omitempty"`
}

// SizeValue keeps the size as written, integer or string.
type SizeValue string

func (s *SizeValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", node.Line)
	}
	*s = SizeValue(node.Value)
	return nil
}

// KeyList keeps keys in document order.
type KeyList []KeyConfig

func (l *KeyList) UnmarshalYAML(node *yaml.Node) error {
	items, err := decodeNamed(node, func(k *KeyConfig, name string) { k.Name = name })
	*l = items
	return err
}

// KeyblockList keeps keyblocks in document order.
type KeyblockList []KeyblockConfig

func (l *KeyblockList) UnmarshalYAML(node *yaml.Node) error {
	items, err := decodeNamed(node, func(k *KeyblockConfig, name string) { k.Name = name })
	*l = items
	return err
}

// KernelList keeps kernels in document order.
type KernelList []KernelConfig

func (l *KernelList) UnmarshalYAML(node *yaml.Node) error {
	items, err := decodeNamed(node, func(k *KernelConfig, name string) { k.Name = name })
	*l = items
	return err
}

// PartitionList keeps partitions in document order, which is also the layout order.
type PartitionList []PartitionConfig

func (l *PartitionList) UnmarshalYAML(node *yaml.Node) error {
	items, err := decodeNamed(node, func(p *PartitionConfig, name string) { p.Name = name })
	*l = items
	return err
}

// decodeNamed accepts either a mapping of name to entry, kept in document
// order, or a sequence of entries carrying their own name field.
func decodeNamed[T any](node *yaml.Node, setName func(*T, string)) ([]T, error) {
	switch node.Kind {
	case yaml.MappingNode:
		items := make([]T, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			var item T
			if value.Kind != yaml.ScalarNode || value.Tag != "!!null" {
				if err := decodeStrict(value, &item); err != nil {
					return nil, fmt.Errorf("%s: %w", key.Value, err)
				}
			}
			setName(&item, key.Value)
			items = append(items, item)
		}
		return items, nil
	case yaml.SequenceNode:
		items := make([]T, 0, len(node.Content))
		for _, value := range node.Content {
			var item T
			if err := decodeStrict(value, &item); err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("line %d: expected a mapping or a sequence", node.Line)
}

// decodeStrict decodes node into out, rejecting fields out does not have.
// Node.Decode does not inherit KnownFields from the outer decoder, so the
// entry is re-encoded and read back through a strict decoder.
func decodeStrict(node *yaml.Node, out any) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err = dec.Decode(out); err != nil {
		return fmt.Errorf("entry at line %d: %w", node.Line, err)
	}
	return nil
}
