package brcache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for calls that cannot mean anything,
	// e.g. a forced fetch without a compute function.
	ErrInvalidArgument = errors.New("brcache: invalid argument")

	// ErrSerialization covers codec failures on write, undecodable payloads on
	// read and raw payloads that would be ambiguous with the envelope.
	ErrSerialization = errors.New("brcache: serialization failure")

	// ErrCompression covers Deflate/Inflate failures of the compressor.
	ErrCompression = errors.New("brcache: compression failure")
)

// OpError describes a failed encode/decode step. Kind is one of the sentinels
// above, Err the underlying cause; errors.Is matches both.
// Provider errors are never wrapped in an OpError.
type OpError struct {
	Op   string // "write", "read", "write_multi", ...
	Key  string // logical key
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	switch {
	case e.Err != nil && e.Key != "":
		return fmt.Sprintf("%v: %s %q: %v", e.Kind, e.Op, e.Key, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Op, e.Err)
	case e.Key != "":
		return fmt.Sprintf("%v: %s %q", e.Kind, e.Op, e.Key)
	default:
		return fmt.Sprintf("%v: %s", e.Kind, e.Op)
	}
}

func (e *OpError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func opErr(op, key string, kind, err error) error {
	return &OpError{Op: op, Key: key, Kind: kind, Err: err}
}
