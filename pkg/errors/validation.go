package errors

import (
	"strings"
	"unicode"
)

// MaxNameLength bounds application names and input file names.
const MaxNameLength = 256

// ValidateAppName checks that an application name can be used as a diagram
// element id. Names become XML attribute values and parts of composite ids
// (out_<name>_<row>), so control characters are rejected.
func ValidateAppName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "app name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidName, "app name too long (max %d characters)", MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "app name %q contains control characters", name)
		}
	}
	return nil
}

// ValidateFileName validates an input file name picked up by the batch
// driver. It must be a plain basename: no separators, no traversal and no
// hidden files.
func ValidateFileName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "file name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidName, "file name too long (max %d characters)", MaxNameLength)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return New(ErrCodeInvalidName, "file name %q cannot contain path separators", name)
	}
	if name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidName, "file name %q cannot be a hidden file", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "file name %q contains control characters", name)
		}
	}
	return nil
}
