package constants

import (
	"strings"
)

// PartitionType is a GPT partition type GUID in its canonical string form.
type PartitionType string

const (
	Name = "cuckoo"
	// DefaultConfigFile is looked up in the working directory when --config is not given.
	DefaultConfigFile = "cuckoo.yaml"
	// DefaultKernelPackageDir is where packed kernel partitions land unless a kernel sets its own output.
	DefaultKernelPackageDir = "/tmp"

	// SectorSize is the only logical sector size the layout planner emits.
	SectorSize = 512
	// AlignmentSectors is 1 MiB expressed in 512-byte sectors.
	AlignmentSectors = 2048
	// FirstUsableSector is the first sector after the primary GPT header and table reserve.
	FirstUsableSector = 2048
	// ReservedTrailingSectors covers the secondary GPT header and partition table.
	ReservedTrailingSectors = 34

	// StatePartitionName is the fixed first partition of every layout.
	StatePartitionName = "STATE"
	// StatePartitionSectors is the size of the STATE partition.
	StatePartitionSectors = 2048

	// MaxBootAttribute is the largest value the firmware can store in the priority and tries fields.
	MaxBootAttribute = 15
	// BootAttributeFirstBit is the GPT attribute bit holding the lowest priority bit.
	BootAttributeFirstBit = 48
	// BootAttributeLastBit is the GPT attribute bit holding the successful flag.
	BootAttributeLastBit = 56

	// List of well-known partition types.
	ChromeOSKernel    PartitionType = "FE3A2A5D-4F32-41A7-B725-ACCC3285A309"
	ChromeOSRootFS    PartitionType = "3CB8E202-3B7E-47DD-8A3C-7FF2A13CFCEC"
	ChromeOSFirmware  PartitionType = "CAB6E88E-ABF3-4102-A07A-D4BB9BE3C1D3"
	ChromeOSFutureUse PartitionType = "2E0A753D-9E48-43B0-8337-B15192CB1B5E"
	ChromeOSMiniOS    PartitionType = "09845860-705F-4BB5-B16C-8A8A099CAF52"
	ChromeOSHibernate PartitionType = "3F0F8318-F146-4E6B-8222-C28C8F02E0D5"
	BasicData         PartitionType = "EBD0A0A2-B9E5-4433-87C0-68B6B72699C7"
	PlainDmCrypt      PartitionType = "7FFEC5C9-2D00-49B7-8941-3EA10A5586B7"
	LUKS              PartitionType = "CA7D7CCB-63ED-4C53-861C-1742536059CC"
	EFISystem         PartitionType = "C12A7328-F81F-11D2-BA4B-00A0C93EC93B"

	// StatePartitionType is the type of the fixed STATE partition.
	StatePartitionType = BasicData

	// File extensions produced by futility and the key generator.
	PublicKeyExt     = ".vbpubk"
	PrivateKeyExt    = ".vbprivk"
	KeyblockExt      = ".keyblock"
	RSAKeyExt        = ".pem"
	CertificateExt   = ".crt"
	PreprocessedExt  = ".keyb"
	KeyScratchSubdir = "temp"
)

var partitionTypes = map[string]PartitionType{
	"kernel":    ChromeOSKernel,
	"rootfs":    ChromeOSRootFS,
	"firmware":  ChromeOSFirmware,
	"future":    ChromeOSFutureUse,
	"minios":    ChromeOSMiniOS,
	"hibernate": ChromeOSHibernate,
	"basicdata": BasicData,
	"dm-crypt":  PlainDmCrypt,
	"luks":      LUKS,
	"efi":       EFISystem,
}

// LookupPartitionType returns the GUID for a shorthand such as "kernel" or "rootfs".
func LookupPartitionType(shorthand string) (PartitionType, bool) {
	t, ok := partitionTypes[strings.ToLower(shorthand)]
	return t, ok
}

// PartitionTypeShorthands returns the known shorthands, in display order.
func PartitionTypeShorthands() []string {
	// DO NOT REARRANGE
	return []string{
		"kernel",
		"rootfs",
		"firmware",
		"future",
		"minios",
		"hibernate",
		"basicdata",
		"dm-crypt",
		"luks",
		"efi",
	}
}
