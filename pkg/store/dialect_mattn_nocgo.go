//go:build !cgo

package store

// Keep the driver registered under "sqlite3" even without cgo; it then
// fails at open time with its own explanatory error.
import _ "github.com/mattn/go-sqlite3"

// mattnUniqueViolation never matches without cgo: go-sqlite3 only defines
// its Error type when built with cgo.
func mattnUniqueViolation(err error) (ok, matched bool) {
	return false, false
}
