// Package repository defines sentinel errors shared across the
// repositories. Higher layers compare against these values with
// errors.Is to translate persistence failures into HTTP responses
// without inspecting driver-specific error strings themselves.
package repository

import "errors"

// ErrCourseNotFound indicates that a course was not located in the DB.
var ErrCourseNotFound = errors.New("course not found")

// ErrRegistrationNotFound indicates that a registration row does not exist.
var ErrRegistrationNotFound = errors.New("registration not found")

// ErrNoSeatsAvailable is returned by the seat ledger when a reserve is
// attempted on a course whose available_seats counter is already zero.
var ErrNoSeatsAvailable = errors.New("no seats available")

// ErrSeatOverflow is returned by the seat ledger when a release would
// push available_seats past total_seats. The counter is left untouched;
// this indicates a consistency fault (for example a double release) and
// handlers must surface it as an internal error, never as a normal
// validation rejection.
var ErrSeatOverflow = errors.New("seat counter overflow")

// ErrDuplicateRegistration is returned when a registration already
// exists for the same (student, course) pair. The registrations table
// carries a UNIQUE constraint, so the error is reliable even when two
// requests race past the read check.
var ErrDuplicateRegistration = errors.New("already registered for this course")

// ErrRollNumberExists is returned when creating a user whose roll
// number is already taken.
var ErrRollNumberExists = errors.New("roll number already exists")

// ErrAlreadySubscribed is returned when a student subscribes to a
// course they are already subscribed to.
var ErrAlreadySubscribed = errors.New("already subscribed to this course")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")
