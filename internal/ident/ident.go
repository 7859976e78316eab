// Package ident validates entry and user identifiers and produces
// replacements for identifiers that are not standard UUIDs.
package ident

import (
	"regexp"

	"github.com/gofrs/uuid/v5"
)

var uuidRe = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Valid reports whether id is a hyphenated 8-4-4-4-12 hex UUID (any case).
func Valid(id string) bool {
	return uuidRe.MatchString(id)
}

// New returns a fresh random UUID string.
func New() (string, error) {
	u, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Repair returns id unchanged when it is valid, otherwise a freshly generated
// replacement. replaced reports whether a replacement was produced.
// On generator failure the original id is returned with the error.
func Repair(id string) (out string, replaced bool, err error) {
	if Valid(id) {
		return id, false, nil
	}
	fresh, err := New()
	if err != nil {
		return id, false, err
	}
	return fresh, true, nil
}
