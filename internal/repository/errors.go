// Package repository defines the persistence interfaces and their MySQL
// implementations, plus the sentinel errors shared across stores. Handlers
// compare against these sentinels with errors.Is and translate them to
// HTTP status codes at their own boundary.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a uniqueness
// constraint, such as signing up an existing user id or uploading a file
// whose name is already taken.
var ErrDuplicate = errors.New("already exists")
