package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Version identifies the schema revision that produced a ledger record
type Version int

const (
	// Empty means there was no record at all
	Empty Version = iota
	// V1 is the untagged shape written before records carried a version line
	V1
	// V2 is the first tagged shape; pending is always present and stakes are escrowed
	V2
	// V3 added the cancel-consent flags
	V3
	// V4 added the rejected flag
	V4
	// V5 renamed every field to the current snake_case names
	V5

	Current = V5
)

// MaxTagLength bounds the version line, newline excluded
const MaxTagLength = 16

var (
	ErrUnrecognizedVersion = errors.New("unrecognized ledger schema version")
	ErrFutureVersion       = errors.New("ledger schema version is newer than this build understands")
	ErrCorruptRecord       = errors.New("corrupt ledger record")
)

// Tag returns the version line written at the top of a record
func (v Version) Tag() string {
	return fmt.Sprintf("v%d", int(v))
}

func (v Version) String() string {
	if v == Empty {
		return "empty"
	}
	return v.Tag()
}

// ParseTag interprets a version line
func ParseTag(tag string) (Version, error) {
	digits, ok := strings.CutPrefix(tag, "v")
	if !ok || digits == "" || digits[0] == '0' || strings.Trim(digits, "0123456789") != "" {
		return Empty, fmt.Errorf("%w: %q", ErrUnrecognizedVersion, tag)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < int(V1) {
		return Empty, fmt.Errorf("%w: %q", ErrUnrecognizedVersion, tag)
	}
	if n > int(Current) {
		return Empty, fmt.Errorf("%w: %q (current is %s)", ErrFutureVersion, tag, Current.Tag())
	}
	return Version(n), nil
}
