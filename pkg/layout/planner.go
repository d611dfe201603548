package layout

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/kairos-io/go-cuckoo/pkg/constants"
)

// Entry is one placed partition.
type Entry struct {
	Name  string
	Type  constants.PartitionType
	Start int64
	Size  int64
	// sfdisk attrs clause, empty unless this is a kernel with a non-inert boot state.
	Attributes string
}

// End returns the first sector after the partition.
func (e Entry) End() int64 {
	return e.Start + e.Size
}

// String renders the entry as an sfdisk script line.
func (e Entry) String() string {
	line := fmt.Sprintf("start=%d, size=%d, type=%s, name=%s", e.Start, e.Size, e.Type, e.Name)
	if e.Attributes != "" {
		line += ", " + e.Attributes
	}
	return line
}

// Layout is a complete, validated partition layout.
type Layout struct {
	TotalSectors int64
	entries      []Entry
}

// Entries returns the placed partitions in layout order, STATE first.
func (l *Layout) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Lookup returns the placed partition called name.
func (l *Layout) Lookup(name string) (Entry, bool) {
	for _, e := range l.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// WriteTo writes the sfdisk script for the layout.
func (l *Layout) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("label: gpt\n")
	buf.WriteString("unit: sectors\n")
	fmt.Fprintf(&buf, "sector-size: %d\n", constants.SectorSize)
	for _, e := range l.entries {
		buf.WriteString(e.String())
		buf.WriteByte('\n')
	}
	return buf.WriteTo(w)
}

func (l *Layout) String() string {
	var buf bytes.Buffer
	_, _ = l.WriteTo(&buf)
	return buf.String()
}

// Planner places partitions on a device of TotalSectors 512-byte sectors.
type Planner struct {
	TotalSectors int64
	Logger       *slog.Logger
}

// Plan is a shortcut for a Planner with the default logger.
func Plan(totalSectors int64, specs []PartitionSpec) (*Layout, error) {
	return (&Planner{TotalSectors: totalSectors}).Plan(specs)
}

// Plan walks specs in order and returns the layout.
//
// The pass is all or nothing: the first failing partition aborts planning and
// no layout is returned. specs are never modified.
func (p *Planner) Plan(specs []PartitionSpec) (*Layout, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := ValidateSpecs(specs); err != nil {
		return nil, err
	}

	end := p.TotalSectors - constants.ReservedTrailingSectors
	layout := &Layout{TotalSectors: p.TotalSectors}

	cursor := int64(constants.FirstUsableSector)
	if constants.StatePartitionSectors > end-cursor {
		return nil, partitionError(constants.StatePartitionName, ErrOutOfSpace,
			"device of %d sectors has no room for the state partition", p.TotalSectors)
	}
	layout.entries = append(layout.entries, Entry{
		Name:  constants.StatePartitionName,
		Type:  constants.StatePartitionType,
		Start: cursor,
		Size:  constants.StatePartitionSectors,
	})
	cursor = AlignUp(cursor + constants.StatePartitionSectors)

	for _, spec := range specs {
		entry := Entry{
			Name:  spec.Name,
			Type:  resolveType(string(spec.Type)),
			Start: cursor,
		}

		size, err := resolveSize(spec, entry.Start, end)
		if err != nil {
			return nil, err
		}
		entry.Size = size

		if isKernelType(entry.Type) && spec.Boot != nil {
			entry.Attributes = spec.Boot.Fragment()
		}

		logger.Debug("Placed partition", "name", entry.Name, "type", entry.Type,
			"start", entry.Start, "size", entry.Size, "attrs", entry.Attributes)

		layout.entries = append(layout.entries, entry)
		cursor = AlignUp(entry.End())
	}

	return layout, nil
}
