// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as services
// and handlers to distinguish between failure scenarios without looking at
// driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own and are not an admin. Handlers should translate
// this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrLoginExists is returned when a user is created with a login that is
// already taken.
var ErrLoginExists = errors.New("login already exists")

// ErrTokenMismatch is returned when a refresh token rotation finds that the
// persisted value is no longer the one presented: it was superseded by a
// concurrent refresh or cleared by logout.
var ErrTokenMismatch = errors.New("refresh token mismatch")

// isDuplicateKey reports whether err is a MySQL unique constraint violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// isMissingParent reports whether err is a MySQL foreign key violation on
// insert, i.e. the referenced row does not exist.
func isMissingParent(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1452
}
