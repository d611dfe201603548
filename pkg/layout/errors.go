package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is returned for zero sizes, unparsable sizes and ambiguous remaining-space declarations.
	ErrInvalidSize = errors.New("invalid partition size")
	// ErrOutOfSpace is returned when a partition would end past the trailing GPT reserve.
	ErrOutOfSpace = errors.New("partition does not fit on the device")
	// ErrInvalidAttribute is returned when a kernel priority or tries value is out of range.
	ErrInvalidAttribute = errors.New("invalid kernel boot attribute")
	// ErrUnresolvedType is returned in strict mode for types that are neither a shorthand nor a GUID.
	ErrUnresolvedType = errors.New("unresolved partition type")
	// ErrInvalidName is returned for empty, duplicate or unencodable partition names.
	ErrInvalidName = errors.New("invalid partition name")
)

// PartitionError reports which partition failed and why.
type PartitionError struct {
	Partition string
	Err       error
	Detail    string
}

func (e *PartitionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("partition %q: %v", e.Partition, e.Err)
	}
	return fmt.Sprintf("partition %q: %v: %s", e.Partition, e.Err, e.Detail)
}

func (e *PartitionError) Unwrap() error {
	return e.Err
}

func partitionError(name string, err error, format string, args ...any) error {
	return &PartitionError{
		Partition: name,
		Err:       err,
		Detail:    fmt.Sprintf(format, args...),
	}
}
