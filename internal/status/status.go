// Package status implements the finite error taxonomy every package in the
// content pipeline reports through. It mirrors the Status sum type used
// throughout the originating engine rather than a generic error string.
package status

import "fmt"

// Kind enumerates the distinct failure categories the pipeline can report.
type Kind int

const (
	OK Kind = iota
	Error
	NotImplemented
	FailedInstantiate
	FailedLoadLibrary
	FailedLoadSymbol
	FailedOpenFile
	FailedFindFile
	FailedParse
	FailedRead
	FailedWrite
	FailedEncode
	FailedDecode
	FailedResize
	FailedCompress
	FailedDecompress
	FailedCompile
	InvalidData
	InvalidParameter
	InvalidState
	NoProperty
	NoMethod
	NoClass
	NoValue
	NoAsset
	ExitCode0
	ExitCode1
)

var names = map[Kind]string{
	OK:                 "ok",
	Error:              "error",
	NotImplemented:     "not_implemented",
	FailedInstantiate:  "failed_instantiate",
	FailedLoadLibrary:  "failed_load_library",
	FailedLoadSymbol:   "failed_load_symbol",
	FailedOpenFile:     "failed_open_file",
	FailedFindFile:     "failed_find_file",
	FailedParse:        "failed_parse",
	FailedRead:         "failed_read",
	FailedWrite:        "failed_write",
	FailedEncode:       "failed_encode",
	FailedDecode:       "failed_decode",
	FailedResize:       "failed_resize",
	FailedCompress:     "failed_compress",
	FailedDecompress:   "failed_decompress",
	FailedCompile:      "failed_compile",
	InvalidData:        "invalid_data",
	InvalidParameter:   "invalid_parameter",
	InvalidState:       "invalid_state",
	NoProperty:         "no_property",
	NoMethod:           "no_method",
	NoClass:            "no_class",
	NoValue:            "no_value",
	NoAsset:            "no_asset",
	ExitCode0:          "exit_code_0",
	ExitCode1:          "exit_code_1",
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return "unknown"
}

// Status is the error type carried across the pipeline. It is an ordinary
// Go error so it composes with errors.Is/errors.As and %w wrapping, but its
// identity is its Kind, not its message.
type Status struct {
	Kind Kind
	// Msg is a debug-only free-form detail. Never branch on it.
	Msg   string
	Cause error
}

func New(kind Kind, format string, args ...interface{}) *Status {
	return &Status{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...interface{}) *Status {
	return &Status{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func (s *Status) Error() string {
	if s.Cause != nil {
		if s.Msg == "" {
			return fmt.Sprintf("%s: %v", s.Kind, s.Cause)
		}
		return fmt.Sprintf("%s: %s: %v", s.Kind, s.Msg, s.Cause)
	}
	if s.Msg == "" {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s: %s", s.Kind, s.Msg)
}

func (s *Status) Unwrap() error { return s.Cause }

// Is reports whether err is a Status carrying kind, looking through wrapping.
func Is(err error, kind Kind) bool {
	var s *Status
	for err != nil {
		if st, ok := err.(*Status); ok {
			s = st
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return s != nil && s.Kind == kind
}

// IsEarlyExit reports whether err is one of the ExitCode0/ExitCode1
// early-exit signals emitted by CLI hook processors (spec §7).
func IsEarlyExit(err error) (code int, ok bool) {
	var s *Status
	if st, matches := err.(*Status); matches {
		s = st
	} else {
		return 0, false
	}
	switch s.Kind {
	case ExitCode0:
		return 0, true
	case ExitCode1:
		return 1, true
	}
	return 0, false
}
