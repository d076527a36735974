package model

import "time"

// Registration statuses.  A registration is created directly as
// APPROVED by a successful registration attempt; admins may toggle it
// to REJECTED and back.  An APPROVED registration holds exactly one
// seat of its course; a REJECTED one holds none.
const (
    StatusApproved = "APPROVED"
    StatusRejected = "REJECTED"
)

// ValidStatus reports whether s is a status a registration may hold.
func ValidStatus(s string) bool {
    return s == StatusApproved || s == StatusRejected
}

// Registration is the join entity between a student and a course.  At
// most one row may exist per (student, course) pair; the table carries
// a UNIQUE constraint enforcing this.  Its status must always agree
// with the seat it did or did not consume, which is why every status
// change runs through the registration service inside a transaction.
//
// Fields:
//  ID        - primary key identifier.
//  StudentID - the registering student.
//  CourseID  - the course registered for.
//  Status    - APPROVED or REJECTED.
//  CreatedAt - when the registration was created.
//  UpdatedAt - when the status last changed.
type Registration struct {
    ID        uint64    `json:"id"`
    StudentID uint64    `json:"student_id"`
    CourseID  uint64    `json:"course_id"`
    Status    string    `json:"status"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}
