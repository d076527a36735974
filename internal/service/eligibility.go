// Package service implements the registration eligibility and seat
// consistency engine. Handlers call into RegistrationService for every
// operation that can move a seat counter; the pure checks in this file
// are shared between the registration flow and the admin audit report.
package service

import (
    "fmt"
    "strings"

    "github.com/iliyamo/course-registration/internal/model"
    "github.com/iliyamo/course-registration/internal/repository"
)

// ScheduleConflictError reports that a candidate course meets at the
// same time as a course the student is already approved for. Only the
// first conflict found is reported.
type ScheduleConflictError struct {
    CourseCode string // code of the already-approved conflicting course
    Day        string // weekday on which the slots collide
}

func (e *ScheduleConflictError) Error() string {
    return fmt.Sprintf("schedule conflict with %s on %s", e.CourseCode, e.Day)
}

// PrerequisiteError reports the direct prerequisites a student has no
// approved registration for.
type PrerequisiteError struct {
    Missing []model.CourseRef
}

func (e *PrerequisiteError) Error() string {
    codes := make([]string, 0, len(e.Missing))
    for _, ref := range e.Missing {
        codes = append(codes, ref.Code)
    }
    return "prerequisites not met: " + strings.Join(codes, ", ")
}

// FindScheduleConflict compares every slot of the candidate schedule
// against every slot of every already-approved course and returns the
// first conflict found, or nil. The scan order is deterministic:
// enrolled courses in the order given, then candidate slots, then the
// enrolled course's slots.
func FindScheduleConflict(candidate []model.Slot, enrolled []repository.EnrolledCourse) *ScheduleConflictError {
    for _, existing := range enrolled {
        for _, newSlot := range candidate {
            for _, oldSlot := range existing.Schedule {
                if newSlot.Overlaps(oldSlot) {
                    return &ScheduleConflictError{CourseCode: existing.Code, Day: newSlot.Day}
                }
            }
        }
    }
    return nil
}

// UnmetPrerequisites returns the subset of prereqs whose course ID is
// absent from the completed set, preserving input order. Only direct
// prerequisites are considered; chains are not traversed.
func UnmetPrerequisites(prereqs []model.CourseRef, completed map[uint64]struct{}) []model.CourseRef {
    var missing []model.CourseRef
    for _, ref := range prereqs {
        if _, ok := completed[ref.ID]; !ok {
            missing = append(missing, ref)
        }
    }
    return missing
}

// SeatDelta returns the seat-counter adjustment a status transition
// requires: -1 when a seat is consumed, +1 when one is freed, 0 when
// the transition does not touch the ledger.
func SeatDelta(from, to string) int {
    switch {
    case from == to:
        return 0
    case to == model.StatusApproved:
        return -1
    case from == model.StatusApproved:
        return +1
    }
    return 0
}
