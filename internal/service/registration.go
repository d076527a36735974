package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/iliyamo/course-registration/internal/model"
    "github.com/iliyamo/course-registration/internal/queue"
    "github.com/iliyamo/course-registration/internal/repository"
)

// ErrInvalidStatus is returned when a status update names a status a
// registration cannot hold.
var ErrInvalidStatus = errors.New("invalid registration status")

// EventPublisher publishes domain events after a transaction commits.
// Publish failures must not fail the request; implementations log and
// return the error so callers can ignore it.
type EventPublisher interface {
    PublishRegistrationApproved(ctx context.Context, ev queue.RegistrationApprovedEvent) error
    PublishSeatReleased(ctx context.Context, ev queue.SeatReleasedEvent) error
}

// RegistrationService orchestrates registration attempts and status
// changes. Every mutation runs inside a single transaction that holds a
// row lock on the course, so the eligibility checks, the seat counter
// and the registration row always agree.
type RegistrationService struct {
    db      *sql.DB
    courses *repository.CourseRepo
    regs    *repository.RegistrationRepo
    events  EventPublisher // may be nil; events are then skipped
}

// NewRegistrationService constructs the service. The events publisher
// is optional.
func NewRegistrationService(db *sql.DB, courses *repository.CourseRepo, regs *repository.RegistrationRepo, events EventPublisher) *RegistrationService {
    if db == nil || courses == nil || regs == nil {
        panic("nil dependency passed to NewRegistrationService")
    }
    return &RegistrationService{db: db, courses: courses, regs: regs, events: events}
}

// Register runs a registration attempt for a student. Checks run in the
// source order: course exists, seats remain, no duplicate, no schedule
// conflict, prerequisites met. Only then is the registration inserted
// and the seat reserved, all inside one transaction.
//
// Failures map to the typed errors of this package and the repository
// sentinels. A failure after the insert (the reserve step) is a
// consistency fault: the transaction is rolled back and the wrapped
// error is surfaced as internal, never as a validation rejection.
func (s *RegistrationService) Register(ctx context.Context, studentID, courseID uint64) (*model.Registration, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Locks the course row until commit; concurrent attempts for the
    // same course serialize here.
    course, err := s.courses.GetForUpdateTx(ctx, tx, courseID)
    if err != nil {
        return nil, err
    }
    if course.AvailableSeats == 0 {
        return nil, repository.ErrNoSeatsAvailable
    }

    exists, err := s.regs.ExistsTx(ctx, tx, studentID, courseID)
    if err != nil {
        return nil, err
    }
    if exists {
        return nil, repository.ErrDuplicateRegistration
    }

    enrolled, err := s.regs.ApprovedWithSchedulesTx(ctx, tx, studentID)
    if err != nil {
        return nil, err
    }
    if conflict := FindScheduleConflict(course.Schedule, enrolled); conflict != nil {
        return nil, conflict
    }

    completed := make(map[uint64]struct{}, len(enrolled))
    for _, e := range enrolled {
        completed[e.CourseID] = struct{}{}
    }
    if missing := UnmetPrerequisites(course.Prerequisites, completed); len(missing) > 0 {
        return nil, &PrerequisiteError{Missing: missing}
    }

    reg := &model.Registration{
        StudentID: studentID,
        CourseID:  courseID,
        Status:    model.StatusApproved,
    }
    if err := s.regs.CreateTx(ctx, tx, reg); err != nil {
        return nil, err
    }

    remaining, err := s.courses.ReserveSeatTx(ctx, tx, courseID)
    if err != nil {
        // The seat check passed under the same row lock, so this is a
        // consistency fault, not a user error. The rollback undoes the
        // insert; nothing is left half-applied.
        return nil, fmt.Errorf("seat reserve failed after registration insert for course %d: %w", courseID, err)
    }
    // Observed legacy behavior: the subscriber list is flushed when the
    // last seat is taken, not when one frees up. Kept as-is; see
    // DESIGN.md.
    if remaining == 0 {
        if err := s.courses.ClearSubscribersTx(ctx, tx, courseID); err != nil {
            return nil, fmt.Errorf("subscriber clear failed for course %d: %w", courseID, err)
        }
    }

    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    if s.events != nil {
        ev := queue.RegistrationApprovedEvent{
            RegistrationID: reg.ID,
            StudentID:      studentID,
            CourseID:       course.ID,
            CourseCode:     course.Code,
            CourseTitle:    course.Title,
            SeatsLeft:      remaining,
            ApprovedAt:     time.Now().UTC().Format(time.RFC3339),
        }
        if err := s.events.PublishRegistrationApproved(ctx, ev); err != nil {
            log.Printf("registration: publish approved event failed: %v", err)
        }
    }
    return reg, nil
}

// UpdateStatus toggles a registration between APPROVED and REJECTED,
// applying the compensating seat adjustment. Toggling to APPROVED goes
// through the guarded reserve and fails with ErrNoSeatsAvailable when
// the course is full; the ledger is never oversold. A no-op transition
// makes no ledger call.
func (s *RegistrationService) UpdateStatus(ctx context.Context, regID uint64, newStatus string) (*model.Registration, error) {
    if !model.ValidStatus(newStatus) {
        return nil, ErrInvalidStatus
    }
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    reg, err := s.regs.GetForUpdateTx(ctx, tx, regID)
    if err != nil {
        return nil, err
    }
    if reg.Status == newStatus {
        if err := tx.Commit(); err != nil {
            return nil, err
        }
        committed = true
        return reg, nil
    }

    course, err := s.courses.GetForUpdateTx(ctx, tx, reg.CourseID)
    if err != nil {
        return nil, err
    }

    var released *queue.SeatReleasedEvent
    switch SeatDelta(reg.Status, newStatus) {
    case -1:
        remaining, err := s.courses.ReserveSeatTx(ctx, tx, course.ID)
        if err != nil {
            return nil, err
        }
        if remaining == 0 {
            if err := s.courses.ClearSubscribersTx(ctx, tx, course.ID); err != nil {
                return nil, err
            }
        }
    case +1:
        ev, err := s.releaseSeatTx(ctx, tx, course)
        if err != nil {
            return nil, err
        }
        released = ev
    }

    if err := s.regs.UpdateStatusTx(ctx, tx, regID, newStatus); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    reg.Status = newStatus

    s.publishReleased(ctx, released)
    return reg, nil
}

// Cancel removes a registration. Only the owning student or an admin
// may cancel; anyone else gets repository.ErrForbidden. Cancelling an
// APPROVED registration frees its seat; a REJECTED one leaves the
// counter alone. Deleting the row also removes it from the student's
// registered list.
func (s *RegistrationService) Cancel(ctx context.Context, regID, callerID uint64, callerRole string) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    reg, err := s.regs.GetForUpdateTx(ctx, tx, regID)
    if err != nil {
        return err
    }
    if reg.StudentID != callerID && callerRole != model.RoleAdmin {
        return repository.ErrForbidden
    }

    var released *queue.SeatReleasedEvent
    if reg.Status == model.StatusApproved {
        course, err := s.courses.GetForUpdateTx(ctx, tx, reg.CourseID)
        if err != nil {
            return err
        }
        if released, err = s.releaseSeatTx(ctx, tx, course); err != nil {
            return err
        }
    }
    if err := s.regs.DeleteTx(ctx, tx, regID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true

    s.publishReleased(ctx, released)
    return nil
}

// releaseSeatTx frees one seat of the locked course and builds the
// seat-released event with the current subscriber roll numbers. The
// capped ledger turns a double release into ErrSeatOverflow.
func (s *RegistrationService) releaseSeatTx(ctx context.Context, tx *sql.Tx, course *model.Course) (*queue.SeatReleasedEvent, error) {
    remaining, err := s.courses.ReleaseSeatTx(ctx, tx, course.ID)
    if err != nil {
        return nil, err
    }
    rolls, err := s.courses.SubscriberRollsTx(ctx, tx, course.ID)
    if err != nil {
        return nil, err
    }
    return &queue.SeatReleasedEvent{
        CourseID:    course.ID,
        CourseCode:  course.Code,
        CourseTitle: course.Title,
        SeatsLeft:   remaining,
        Subscribers: rolls,
        ReleasedAt:  time.Now().UTC().Format(time.RFC3339),
    }, nil
}

func (s *RegistrationService) publishReleased(ctx context.Context, ev *queue.SeatReleasedEvent) {
    if ev == nil || s.events == nil {
        return
    }
    if err := s.events.PublishSeatReleased(ctx, *ev); err != nil {
        log.Printf("registration: publish seat released event failed: %v", err)
    }
}

// PrerequisiteIssue is one entry of the audit report: an APPROVED
// registration whose student lacks approved registrations for one or
// more of the course's direct prerequisites.
type PrerequisiteIssue struct {
    StudentID  uint64            `json:"student_id"`
    Name       string            `json:"name"`
    RollNumber string            `json:"roll_number"`
    Course     model.CourseRef   `json:"course"`
    Missing    []model.CourseRef `json:"unmet_prerequisites"`
}

// PrerequisiteAudit re-runs the prerequisite verifier across every
// APPROVED registration, excluding the audited registration itself from
// the student's completed set. It is a read-only batch view over the
// same check the registration flow uses.
func (s *RegistrationService) PrerequisiteAudit(ctx context.Context) ([]PrerequisiteIssue, error) {
    rows, err := s.regs.ListApprovedForAudit(ctx)
    if err != nil {
        return nil, err
    }
    issues := make([]PrerequisiteIssue, 0)
    for _, row := range rows {
        completed, err := s.regs.ApprovedCourseIDs(ctx, row.StudentID, row.RegistrationID)
        if err != nil {
            return nil, err
        }
        missing := UnmetPrerequisites(row.Prerequisites, completed)
        if len(missing) == 0 {
            continue
        }
        issues = append(issues, PrerequisiteIssue{
            StudentID:  row.StudentID,
            Name:       row.StudentName,
            RollNumber: row.RollNumber,
            Course:     row.Course,
            Missing:    missing,
        })
    }
    return issues, nil
}
