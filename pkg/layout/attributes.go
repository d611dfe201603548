package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kairos-io/go-cuckoo/pkg/constants"
)

// BootAttributes is the ChromeOS kernel boot-selection metadata.
type BootAttributes struct {
	// Relative boot preference, higher boots first.
	Priority int
	// Boot attempts left before the kernel is given up on.
	Tries int
	// Set once a boot from this kernel was confirmed good.
	Successful bool
}

// Validate checks that priority and tries fit in their 4 bit fields.
func (a BootAttributes) Validate() error {
	if a.Priority < 0 || a.Priority > constants.MaxBootAttribute {
		return fmt.Errorf("priority %d out of range [0,%d]", a.Priority, constants.MaxBootAttribute)
	}
	if a.Tries < 0 || a.Tries > constants.MaxBootAttribute {
		return fmt.Errorf("tries %d out of range [0,%d]", a.Tries, constants.MaxBootAttribute)
	}
	return nil
}

// IsZero reports the inert boot state, which needs no attribute bits.
func (a BootAttributes) IsZero() bool {
	return a.Priority == 0 && a.Tries == 0 && !a.Successful
}

// Bits returns the 9 bit attribute field, most significant bit first as the
// firmware reads it: reversed priority, reversed tries, then the successful flag.
func (a BootAttributes) Bits() uint16 {
	field := reverse4(a.Priority) << 5
	field |= reverse4(a.Tries) << 1
	if a.Successful {
		field |= 1
	}
	return field
}

// Positions returns the GPT attribute bit numbers set by a, ascending.
func (a BootAttributes) Positions() []int {
	field := a.Bits()
	var positions []int
	bit := constants.BootAttributeFirstBit
	for mask := uint16(0b100000000); mask != 0; mask >>= 1 {
		if field&mask != 0 {
			positions = append(positions, bit)
		}
		bit++
	}
	return positions
}

// Fragment returns the sfdisk attrs clause for a, or "" for the inert state.
func (a BootAttributes) Fragment() string {
	if a.IsZero() {
		return ""
	}
	bits := make([]string, 0, 9)
	for _, bit := range a.Positions() {
		bits = append(bits, strconv.Itoa(bit))
	}
	return `attrs="GUID:` + strings.Join(bits, ",") + `"`
}

// reverse4 mirrors the low 4 bits of v.
func reverse4(v int) uint16 {
	var r uint16
	for i := 0; i < 4; i++ {
		r <<= 1
		r |= uint16(v>>i) & 1
	}
	return r
}
