//go:build cgo

package store

import (
	"errors"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// mattnUniqueViolation inspects err for a github.com/mattn/go-sqlite3
// error. matched reports whether err was such an error.
func mattnUniqueViolation(err error) (ok, matched bool) {
	var mattnErr sqlite3.Error
	if errors.As(err, &mattnErr) {
		return mattnErr.ExtendedCode == sqlite3.ErrConstraintUnique, true
	}
	return false, false
}
