package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds endpoint, protocol and function identifiers.
const maxIDLength = 512

// ValidateID validates an entity identifier (endpoint, protocol or function id).
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - No leading or trailing whitespace
//   - Maximum length of 512 bytes
//
// kind names the entity in the error message, e.g. "endpoint".
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidEndpoint, "%s id cannot be empty", kind)
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidEndpoint, "%s id too long (max %d characters)", kind, maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidEndpoint, "%s id %q contains invalid control characters", kind, id)
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidEndpoint, "%s id %q has surrounding whitespace", kind, id)
	}

	return nil
}

// ValidateFocus validates a focus selection. At most one of self or the
// from/to pair may be set.
func ValidateFocus(self, from, to string) error {
	if self != "" && (from != "" || to != "") {
		return New(ErrCodeInvalidFilter, "focus self cannot be combined with from/to")
	}
	for _, id := range []string{self, from, to} {
		if id == "" {
			continue
		}
		if err := ValidateID("focus", id); err != nil {
			return Wrap(ErrCodeInvalidFilter, err, "invalid focus filter")
		}
	}
	return nil
}

// ValidateBoundaryKinds validates a list of boundary request kinds: every
// kind must be "namespace" or "app", and at most one "app" is allowed.
func ValidateBoundaryKinds(kinds []string) error {
	apps := 0
	for _, k := range kinds {
		switch k {
		case "namespace":
		case "app":
			apps++
		default:
			return New(ErrCodeInvalidBoundary, "unknown boundary kind: %q (want namespace or app)", k)
		}
	}
	if apps > 1 {
		return New(ErrCodeInvalidBoundary, "at most one app boundary is allowed, got %d", apps)
	}
	return nil
}

// ValidatePath validates a user-supplied file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
