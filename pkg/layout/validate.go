package layout

import (
	"strings"
	"unicode/utf16"

	"github.com/kairos-io/go-cuckoo/pkg/constants"
)

// maxNameLength is the GPT partition name field, 36 UTF-16 code units.
const maxNameLength = 36

// ValidateSpecs checks the rules that hold for the declaration set as a whole.
func ValidateSpecs(specs []PartitionSpec) error {
	seen := map[string]struct{}{constants.StatePartitionName: {}}
	remaining := ""

	for _, spec := range specs {
		if err := validateName(spec.Name); err != nil {
			return err
		}
		if _, ok := seen[spec.Name]; ok {
			return partitionError(spec.Name, ErrInvalidName, "declared more than once")
		}
		seen[spec.Name] = struct{}{}

		if spec.SizeSectors == 0 {
			return partitionError(spec.Name, ErrInvalidSize, "size must not be zero")
		}
		if spec.RemainingSpace() {
			if remaining != "" {
				return partitionError(spec.Name, ErrInvalidSize, "%q already takes the remaining space", remaining)
			}
			remaining = spec.Name
		}

		if spec.Boot != nil && spec.IsKernel() {
			if err := spec.Boot.Validate(); err != nil {
				return &PartitionError{Partition: spec.Name, Err: ErrInvalidAttribute, Detail: err.Error()}
			}
		}
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return partitionError(name, ErrInvalidName, "name must not be empty")
	}
	if strings.ContainsAny(name, ",=\"\\ \t\n") {
		return partitionError(name, ErrInvalidName, "name must not contain spaces, commas, quotes or '='")
	}
	if len(utf16.Encode([]rune(name))) > maxNameLength {
		return partitionError(name, ErrInvalidName, "name longer than %d UTF-16 characters", maxNameLength)
	}
	return nil
}

// AlignUp rounds sector up to the next 1 MiB boundary, leaving aligned values unchanged.
func AlignUp(sector int64) int64 {
	if sector%constants.AlignmentSectors == 0 {
		return sector
	}
	return (sector/constants.AlignmentSectors + 1) * constants.AlignmentSectors
}

// resolveSize returns the size to place at start, given the last usable
// boundary end. Remaining-space sizes are only known here, since they depend
// on where the cursor landed.
func resolveSize(spec PartitionSpec, start, end int64) (int64, error) {
	size := spec.SizeSectors
	switch {
	case size == 0:
		return 0, partitionError(spec.Name, ErrInvalidSize, "size must not be zero")
	case size < 0:
		size = end - start
		if size <= 0 {
			return 0, partitionError(spec.Name, ErrOutOfSpace, "no space left at sector %d (usable end %d)", start, end)
		}
	}
	if size > end-start {
		return 0, partitionError(spec.Name, ErrOutOfSpace, "start %d + size %d exceeds usable end %d", start, size, end)
	}
	return size, nil
}
