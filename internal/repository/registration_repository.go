package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/iliyamo/course-registration/internal/model"
)

// RegistrationRepo provides CRUD operations for registrations. A
// registration ties one student to one course and tracks whether the
// seat it consumed is currently held (APPROVED) or not (REJECTED).
// Mutating methods take an open transaction because the registration
// service must change a registration and the course seat counter as a
// single unit.
type RegistrationRepo struct {
    db *sql.DB
}

// NewRegistrationRepo returns a RegistrationRepo bound to the given database.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

// CreateTx inserts a registration within the caller's transaction and
// populates the generated ID and timestamps on the given record. The
// UNIQUE(student_id, course_id) constraint turns a racing duplicate
// into ErrDuplicateRegistration even when the read check passed.
func (r *RegistrationRepo) CreateTx(ctx context.Context, tx *sql.Tx, reg *model.Registration) error {
    const q = `INSERT INTO registrations (student_id, course_id, status) VALUES (?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, reg.StudentID, reg.CourseID, reg.Status)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrDuplicateRegistration
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    reg.ID = uint64(id)
    const sel = `SELECT created_at, updated_at FROM registrations WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, reg.ID).Scan(&reg.CreatedAt, &reg.UpdatedAt)
}

// GetByID returns a registration by its identifier, or
// ErrRegistrationNotFound.
func (r *RegistrationRepo) GetByID(ctx context.Context, id uint64) (*model.Registration, error) {
    return scanRegistration(r.db.QueryRowContext(ctx,
        `SELECT id, student_id, course_id, status, created_at, updated_at
         FROM registrations WHERE id = ?`, id))
}

// GetForUpdateTx loads a registration inside an existing transaction
// with a row lock, so that concurrent status changes on the same
// registration serialize.
func (r *RegistrationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Registration, error) {
    return scanRegistration(tx.QueryRowContext(ctx,
        `SELECT id, student_id, course_id, status, created_at, updated_at
         FROM registrations WHERE id = ? FOR UPDATE`, id))
}

// ExistsTx reports whether any registration (of either status) exists
// for the (student, course) pair.
func (r *RegistrationRepo) ExistsTx(ctx context.Context, tx *sql.Tx, studentID, courseID uint64) (bool, error) {
    var id uint64
    err := tx.QueryRowContext(ctx,
        `SELECT id FROM registrations WHERE student_id = ? AND course_id = ? LIMIT 1`,
        studentID, courseID).Scan(&id)
    if errors.Is(err, sql.ErrNoRows) {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// EnrolledCourse is a course a student holds an APPROVED registration
// for, with just enough data for the schedule-conflict scan and the
// prerequisite check.
type EnrolledCourse struct {
    CourseID uint64
    Code     string
    Title    string
    Schedule []model.Slot
}

// ApprovedWithSchedulesTx returns the student's APPROVED courses with
// their schedule slots populated, inside the caller's transaction. The
// result feeds both eligibility checks of a registration attempt.
func (r *RegistrationRepo) ApprovedWithSchedulesTx(ctx context.Context, tx *sql.Tx, studentID uint64) ([]EnrolledCourse, error) {
    rows, err := tx.QueryContext(ctx,
        `SELECT c.id, c.course_code, c.title
         FROM registrations reg
         JOIN courses c ON c.id = reg.course_id
         WHERE reg.student_id = ? AND reg.status = ?
         ORDER BY c.course_code`, studentID, model.StatusApproved)
    if err != nil {
        return nil, err
    }
    enrolled := make([]EnrolledCourse, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var e EnrolledCourse
        if err := rows.Scan(&e.CourseID, &e.Code, &e.Title); err != nil {
            rows.Close()
            return nil, err
        }
        e.Schedule = []model.Slot{}
        index[e.CourseID] = len(enrolled)
        enrolled = append(enrolled, e)
    }
    if err := rows.Close(); err != nil {
        return nil, err
    }
    if len(enrolled) == 0 {
        return enrolled, nil
    }

    ids := make([]interface{}, 0, len(enrolled))
    ph := make([]string, 0, len(enrolled))
    for _, e := range enrolled {
        ids = append(ids, e.CourseID)
        ph = append(ph, "?")
    }
    srows, err := tx.QueryContext(ctx,
        `SELECT course_id, day, start_time, end_time, room
         FROM course_slots WHERE course_id IN (`+strings.Join(ph, ",")+`) ORDER BY course_id, id`, ids...)
    if err != nil {
        return nil, err
    }
    defer srows.Close()
    for srows.Next() {
        var cid uint64
        var s model.Slot
        if err := srows.Scan(&cid, &s.Day, &s.StartTime, &s.EndTime, &s.Room); err != nil {
            return nil, err
        }
        if i, ok := index[cid]; ok {
            enrolled[i].Schedule = append(enrolled[i].Schedule, s)
        }
    }
    return enrolled, srows.Err()
}

// ApprovedCourseIDs returns the set of course IDs the student holds an
// APPROVED registration for, excluding excludeRegID when non-zero. The
// exclusion lets the audit report judge a registration against the
// student's other courses only.
func (r *RegistrationRepo) ApprovedCourseIDs(ctx context.Context, studentID, excludeRegID uint64) (map[uint64]struct{}, error) {
    q := `SELECT course_id FROM registrations WHERE student_id = ? AND status = ?`
    args := []interface{}{studentID, model.StatusApproved}
    if excludeRegID != 0 {
        q += ` AND id <> ?`
        args = append(args, excludeRegID)
    }
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    ids := make(map[uint64]struct{})
    for rows.Next() {
        var cid uint64
        if err := rows.Scan(&cid); err != nil {
            return nil, err
        }
        ids[cid] = struct{}{}
    }
    return ids, rows.Err()
}

// UpdateStatusTx sets a registration's status inside the caller's
// transaction.
func (r *RegistrationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE registrations SET status = ? WHERE id = ?`, status, id)
    return err
}

// DeleteTx removes a registration inside the caller's transaction.
func (r *RegistrationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE id = ?`, id)
    return err
}

// StudentRegistration pairs a registration with a summary of its
// course, for the student-facing listing.
type StudentRegistration struct {
    model.Registration
    Course model.Course `json:"course"`
}

// ListByStudent returns all of a student's registrations, newest first,
// each with its course (schedule included) populated.
func (r *RegistrationRepo) ListByStudent(ctx context.Context, studentID uint64) ([]StudentRegistration, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT reg.id, reg.student_id, reg.course_id, reg.status, reg.created_at, reg.updated_at,
                c.id, c.course_code, c.title, c.department, c.level, c.credit_hours,
                c.total_seats, c.available_seats, c.created_at
         FROM registrations reg
         JOIN courses c ON c.id = reg.course_id
         WHERE reg.student_id = ?
         ORDER BY reg.created_at DESC`, studentID)
    if err != nil {
        return nil, err
    }
    list := make([]StudentRegistration, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var sr StudentRegistration
        if err := rows.Scan(&sr.ID, &sr.StudentID, &sr.CourseID, &sr.Status, &sr.CreatedAt, &sr.UpdatedAt,
            &sr.Course.ID, &sr.Course.Code, &sr.Course.Title, &sr.Course.Department, &sr.Course.Level,
            &sr.Course.CreditHours, &sr.Course.TotalSeats, &sr.Course.AvailableSeats, &sr.Course.CreatedAt); err != nil {
            rows.Close()
            return nil, err
        }
        sr.Course.Schedule = []model.Slot{}
        index[sr.Course.ID] = len(list)
        list = append(list, sr)
    }
    if err := rows.Close(); err != nil {
        return nil, err
    }
    if len(list) == 0 {
        return list, nil
    }

    ids := make([]interface{}, 0, len(list))
    ph := make([]string, 0, len(list))
    for _, sr := range list {
        ids = append(ids, sr.Course.ID)
        ph = append(ph, "?")
    }
    srows, err := r.db.QueryContext(ctx,
        `SELECT course_id, day, start_time, end_time, room
         FROM course_slots WHERE course_id IN (`+strings.Join(ph, ",")+`) ORDER BY course_id, id`, ids...)
    if err != nil {
        return nil, err
    }
    defer srows.Close()
    for srows.Next() {
        var cid uint64
        var s model.Slot
        if err := srows.Scan(&cid, &s.Day, &s.StartTime, &s.EndTime, &s.Room); err != nil {
            return nil, err
        }
        if i, ok := index[cid]; ok {
            list[i].Course.Schedule = append(list[i].Course.Schedule, s)
        }
    }
    return list, srows.Err()
}

// AdminRegistration is the administrator's view of a registration:
// the row itself plus student and course summaries.
type AdminRegistration struct {
    model.Registration
    StudentName string `json:"student_name"`
    RollNumber  string `json:"roll_number"`
    CourseCode  string `json:"course_code"`
    CourseTitle string `json:"course_title"`
}

// ListAll returns every registration with student and course summaries,
// newest first.
func (r *RegistrationRepo) ListAll(ctx context.Context) ([]AdminRegistration, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT reg.id, reg.student_id, reg.course_id, reg.status, reg.created_at, reg.updated_at,
                u.name, u.roll_number, c.course_code, c.title
         FROM registrations reg
         JOIN users u ON u.id = reg.student_id
         JOIN courses c ON c.id = reg.course_id
         ORDER BY reg.created_at DESC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    list := make([]AdminRegistration, 0)
    for rows.Next() {
        var ar AdminRegistration
        if err := rows.Scan(&ar.ID, &ar.StudentID, &ar.CourseID, &ar.Status, &ar.CreatedAt, &ar.UpdatedAt,
            &ar.StudentName, &ar.RollNumber, &ar.CourseCode, &ar.CourseTitle); err != nil {
            return nil, err
        }
        list = append(list, ar)
    }
    return list, rows.Err()
}

// RosterEntry is one enrolled student in a course's enrollment report.
type RosterEntry struct {
    StudentID    uint64    `json:"student_id"`
    Name         string    `json:"name"`
    RollNumber   string    `json:"roll_number"`
    RegisteredAt time.Time `json:"registered_at"`
}

// ListApprovedByCourse returns the APPROVED roster for a course.
func (r *RegistrationRepo) ListApprovedByCourse(ctx context.Context, courseID uint64) ([]RosterEntry, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT u.id, u.name, u.roll_number, reg.created_at
         FROM registrations reg
         JOIN users u ON u.id = reg.student_id
         WHERE reg.course_id = ? AND reg.status = ?
         ORDER BY reg.created_at`, courseID, model.StatusApproved)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    roster := make([]RosterEntry, 0)
    for rows.Next() {
        var e RosterEntry
        if err := rows.Scan(&e.StudentID, &e.Name, &e.RollNumber, &e.RegisteredAt); err != nil {
            return nil, err
        }
        roster = append(roster, e)
    }
    return roster, rows.Err()
}

// AuditRow is one APPROVED registration with its student identity and
// the course's direct prerequisites, consumed by the prerequisite audit
// report.
type AuditRow struct {
    RegistrationID uint64
    StudentID      uint64
    StudentName    string
    RollNumber     string
    Course         model.CourseRef
    Prerequisites  []model.CourseRef
}

// ListApprovedForAudit returns every APPROVED registration whose course
// has at least one prerequisite, with the prerequisite references
// populated.
func (r *RegistrationRepo) ListApprovedForAudit(ctx context.Context) ([]AuditRow, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT reg.id, u.id, u.name, u.roll_number, c.id, c.course_code, c.title,
                p.id, p.course_code, p.title
         FROM registrations reg
         JOIN users u ON u.id = reg.student_id
         JOIN courses c ON c.id = reg.course_id
         JOIN course_prerequisites cp ON cp.course_id = c.id
         JOIN courses p ON p.id = cp.prerequisite_id
         WHERE reg.status = ?
         ORDER BY reg.id, p.course_code`, model.StatusApproved)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    list := make([]AuditRow, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var (
            row    AuditRow
            prereq model.CourseRef
        )
        if err := rows.Scan(&row.RegistrationID, &row.StudentID, &row.StudentName, &row.RollNumber,
            &row.Course.ID, &row.Course.Code, &row.Course.Title,
            &prereq.ID, &prereq.Code, &prereq.Title); err != nil {
            return nil, err
        }
        if i, ok := index[row.RegistrationID]; ok {
            list[i].Prerequisites = append(list[i].Prerequisites, prereq)
            continue
        }
        row.Prerequisites = []model.CourseRef{prereq}
        index[row.RegistrationID] = len(list)
        list = append(list, row)
    }
    return list, rows.Err()
}

func scanRegistration(row *sql.Row) (*model.Registration, error) {
    var reg model.Registration
    err := row.Scan(&reg.ID, &reg.StudentID, &reg.CourseID, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrRegistrationNotFound
        }
        return nil, err
    }
    return &reg, nil
}
