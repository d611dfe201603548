// Package layout plans ChromeOS style GPT layouts and renders them as sfdisk scripts.
package layout

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/kairos-io/go-cuckoo/pkg/constants"
	"github.com/kairos-io/go-cuckoo/pkg/types"
)

// PartitionSpec is a validated partition declaration.
type PartitionSpec struct {
	Name string
	// Resolved GUID, or the literal type string when it is not a known shorthand.
	Type constants.PartitionType
	// Positive sizes are exact, negative sizes take the remaining space.
	SizeSectors int64
	// Only set for kernel partitions.
	Boot *BootAttributes
}

// IsKernel reports whether the partition carries a ChromeOS kernel.
func (p PartitionSpec) IsKernel() bool {
	return isKernelType(resolveType(string(p.Type)))
}

// isKernelType compares against the kernel GUID ignoring case, as sfdisk does.
func isKernelType(t constants.PartitionType) bool {
	return strings.EqualFold(string(t), string(constants.ChromeOSKernel))
}

// RemainingSpace reports whether the partition takes everything left before the trailing reserve.
func (p PartitionSpec) RemainingSpace() bool {
	return p.SizeSectors < 0
}

// NewPartitionSpec validates and normalizes one raw partition declaration.
//
// With strictTypes set, a type that is neither a shorthand nor a GUID is
// rejected instead of being passed through to sfdisk.
func NewPartitionSpec(raw types.PartitionConfig, strictTypes bool) (PartitionSpec, error) {
	spec := PartitionSpec{Name: raw.Name}

	if strings.TrimSpace(raw.Type) == "" {
		return spec, partitionError(raw.Name, ErrUnresolvedType, "no type given")
	}
	spec.Type = resolveType(raw.Type)
	if strictTypes {
		if _, err := uuid.Parse(string(spec.Type)); err != nil {
			return spec, partitionError(raw.Name, ErrUnresolvedType, "%q is not a shorthand or a GUID", raw.Type)
		}
	}

	size, err := ParseSize(string(raw.Size))
	if err != nil {
		return spec, partitionError(raw.Name, ErrInvalidSize, "%v", err)
	}
	spec.SizeSectors = size

	if !isKernelType(spec.Type) {
		if raw.Priority != nil || raw.Tries != nil || raw.Successful != nil {
			slog.Debug("Ignoring boot attributes on non-kernel partition", "partition", raw.Name, "type", spec.Type)
		}
		return spec, nil
	}

	if raw.Priority == nil {
		return spec, partitionError(raw.Name, ErrInvalidAttribute, "kernel partition without priority")
	}
	if raw.Tries == nil {
		return spec, partitionError(raw.Name, ErrInvalidAttribute, "kernel partition without tries")
	}
	boot := &BootAttributes{
		Priority: *raw.Priority,
		Tries:    *raw.Tries,
	}
	if raw.Successful != nil {
		boot.Successful = *raw.Successful
	}
	if err := boot.Validate(); err != nil {
		return spec, &PartitionError{Partition: raw.Name, Err: ErrInvalidAttribute, Detail: err.Error()}
	}
	spec.Boot = boot

	return spec, nil
}

// NewPartitionSpecs converts raw declarations in order and validates the set as a whole.
func NewPartitionSpecs(raws []types.PartitionConfig, strictTypes bool) ([]PartitionSpec, error) {
	specs := make([]PartitionSpec, 0, len(raws))
	for _, raw := range raws {
		spec, err := NewPartitionSpec(raw, strictTypes)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if err := ValidateSpecs(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// resolveType replaces a shorthand by its GUID and passes anything else through.
func resolveType(t string) constants.PartitionType {
	if guid, ok := constants.LookupPartitionType(strings.TrimSpace(t)); ok {
		return guid
	}
	return constants.PartitionType(strings.TrimSpace(t))
}

var sizeUnits = map[string]int64{
	"K": 1 << 10,
	"M": 1 << 20,
	"G": 1 << 30,
	"T": 1 << 40,
}

// ParseSize converts a configured size to sectors.
//
// Plain integers are sectors; a K, M, G or T suffix (optionally followed by
// "iB") is a binary byte size that must be a whole number of sectors. Any
// negative integer, or "remaining", asks for the rest of the device.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("no size given")
	}
	if strings.EqualFold(s, "remaining") {
		return -1, nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n == 0 {
			return 0, fmt.Errorf("size must not be zero")
		}
		return n, nil
	}

	number := strings.TrimSuffix(strings.TrimSuffix(s, "iB"), "B")
	if number == "" {
		return 0, fmt.Errorf("cannot parse size %q", s)
	}
	unit, ok := sizeUnits[strings.ToUpper(number[len(number)-1:])]
	if !ok {
		return 0, fmt.Errorf("cannot parse size %q", s)
	}
	n, err := strconv.ParseInt(number[:len(number)-1], 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("cannot parse size %q", s)
	}
	if n == 0 {
		return 0, fmt.Errorf("size must not be zero")
	}
	if n > (1<<63-1)/unit {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	bytes := n * unit
	if bytes%constants.SectorSize != 0 {
		return 0, fmt.Errorf("size %q is not a multiple of %d bytes", s, constants.SectorSize)
	}
	return bytes / constants.SectorSize, nil
}
