// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names declared durable on the broker.
const (
    RegistrationApprovedQueue = "registration.approved"
    SeatReleasedQueue         = "seat.released"
)

// RegistrationApprovedEvent is published after a registration commits
// with an approved seat. It carries enough information for downstream
// consumers to log or notify without querying the primary database.
type RegistrationApprovedEvent struct {
    RegistrationID uint64 `json:"registration_id"`
    StudentID      uint64 `json:"student_id"`
    CourseID       uint64 `json:"course_id"`
    CourseCode     string `json:"course_code"`
    CourseTitle    string `json:"course_title"`
    SeatsLeft      uint32 `json:"seats_left"`
    ApprovedAt     string `json:"approved_at"`
}

// SeatReleasedEvent is published when a cancellation or rejection frees
// a seat. Subscribers holds the roll numbers on the course's
// notification list at the time of release, so a downstream notifier
// can reach students waiting for a seat.
type SeatReleasedEvent struct {
    CourseID    uint64   `json:"course_id"`
    CourseCode  string   `json:"course_code"`
    CourseTitle string   `json:"course_title"`
    SeatsLeft   uint32   `json:"seats_left"`
    Subscribers []string `json:"subscribers"`
    ReleasedAt  string   `json:"released_at"`
}
