package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/course-registration/internal/model"
)

// ErrCourseCodeExists indicates that a course with the same course_code
// already exists. The course_code column is UNIQUE.
var ErrCourseCodeExists = errors.New("course code already exists")

// CourseRepo manages persistence for courses, their schedule slots,
// prerequisite links and subscriber lists. The seat ledger lives here
// too: ReserveSeatTx and ReleaseSeatTx are single guarded UPDATE
// statements so that the available_seats counter can never leave the
// range [0, total_seats] no matter how requests interleave.
type CourseRepo struct {
    db *sql.DB
}

// NewCourseRepo returns a CourseRepo bound to the given database.
func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *CourseRepo) DB() *sql.DB { return r.db }

// Create inserts a course together with its schedule slots and
// prerequisite links in a single transaction. On success the generated
// ID is populated on the given Course. A duplicate course code yields
// ErrCourseCodeExists.
func (r *CourseRepo) Create(ctx context.Context, c *model.Course) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    const q = `INSERT INTO courses
        (course_code, title, department, level, description, credit_hours, total_seats, available_seats)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        c.Code, c.Title, c.Department, c.Level, c.Description, c.CreditHours, c.TotalSeats, c.AvailableSeats)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrCourseCodeExists
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    c.ID = uint64(id)

    if err := replaceSlotsTx(ctx, tx, c.ID, c.Schedule); err != nil {
        return err
    }
    prereqIDs := make([]uint64, 0, len(c.Prerequisites))
    for _, p := range c.Prerequisites {
        prereqIDs = append(prereqIDs, p.ID)
    }
    if err := replacePrerequisitesTx(ctx, tx, c.ID, prereqIDs); err != nil {
        return err
    }

    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// GetByID returns a course with its schedule and prerequisite
// references populated. Returns ErrCourseNotFound when no row exists.
func (r *CourseRepo) GetByID(ctx context.Context, id uint64) (*model.Course, error) {
    const q = `SELECT id, course_code, title, department, level, description, credit_hours,
                      total_seats, available_seats, created_at
               FROM courses WHERE id = ?`
    c, err := scanCourse(r.db.QueryRowContext(ctx, q, id))
    if err != nil {
        return nil, err
    }
    if c.Schedule, err = loadSlots(ctx, r.db, c.ID); err != nil {
        return nil, err
    }
    if c.Prerequisites, err = loadPrerequisites(ctx, r.db, c.ID); err != nil {
        return nil, err
    }
    return c, nil
}

// GetForUpdateTx loads a course inside an existing transaction and
// takes a row lock on it (SELECT ... FOR UPDATE). The registration
// service holds this lock for the duration of a registration attempt so
// that the eligibility checks and the seat decrement see a consistent
// counter. Schedule and prerequisites are loaded alongside.
func (r *CourseRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Course, error) {
    const q = `SELECT id, course_code, title, department, level, description, credit_hours,
                      total_seats, available_seats, created_at
               FROM courses WHERE id = ? FOR UPDATE`
    c, err := scanCourse(tx.QueryRowContext(ctx, q, id))
    if err != nil {
        return nil, err
    }
    if c.Schedule, err = loadSlots(ctx, tx, c.ID); err != nil {
        return nil, err
    }
    if c.Prerequisites, err = loadPrerequisites(ctx, tx, c.ID); err != nil {
        return nil, err
    }
    return c, nil
}

// ListFilter narrows the course listing. Zero values mean "no filter".
type ListFilter struct {
    Department string // exact department match
    Level      int    // exact level match
    Day        string // courses meeting on this weekday
    MinSeats   int    // minimum available seats
}

// List returns all courses matching the filter, schedule and
// prerequisites populated, ordered by course code.
func (r *CourseRepo) List(ctx context.Context, f ListFilter) ([]model.Course, error) {
    q := `SELECT c.id, c.course_code, c.title, c.department, c.level, c.description, c.credit_hours,
                 c.total_seats, c.available_seats, c.created_at
          FROM courses c`
    var conds []string
    var args []interface{}
    if f.Day != "" {
        q += ` JOIN course_slots cs ON cs.course_id = c.id AND cs.day = ?`
        args = append(args, f.Day)
    }
    if f.Department != "" {
        conds = append(conds, "c.department = ?")
        args = append(args, f.Department)
    }
    if f.Level != 0 {
        conds = append(conds, "c.level = ?")
        args = append(args, f.Level)
    }
    if f.MinSeats != 0 {
        conds = append(conds, "c.available_seats >= ?")
        args = append(args, f.MinSeats)
    }
    if len(conds) > 0 {
        q += " WHERE " + strings.Join(conds, " AND ")
    }
    // The day join can produce one row per matching slot.
    q += " GROUP BY c.id ORDER BY c.course_code"

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    courses := make([]model.Course, 0)
    index := make(map[uint64]int)
    for rows.Next() {
        var c model.Course
        var desc sql.NullString
        if err := rows.Scan(&c.ID, &c.Code, &c.Title, &c.Department, &c.Level, &desc,
            &c.CreditHours, &c.TotalSeats, &c.AvailableSeats, &c.CreatedAt); err != nil {
            return nil, err
        }
        c.Description = desc.String
        c.Schedule = []model.Slot{}
        index[c.ID] = len(courses)
        courses = append(courses, c)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(courses) == 0 {
        return courses, nil
    }

    ids := make([]interface{}, 0, len(courses))
    ph := make([]string, 0, len(courses))
    for _, c := range courses {
        ids = append(ids, c.ID)
        ph = append(ph, "?")
    }
    in := "(" + strings.Join(ph, ",") + ")"

    slotQ := `SELECT course_id, day, start_time, end_time, room
              FROM course_slots WHERE course_id IN ` + in + ` ORDER BY course_id, id`
    srows, err := r.db.QueryContext(ctx, slotQ, ids...)
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
            courses[i].Schedule = append(courses[i].Schedule, s)
        }
    }
    if err := srows.Err(); err != nil {
        return nil, err
    }

    prereqQ := `SELECT cp.course_id, p.id, p.course_code, p.title
                FROM course_prerequisites cp
                JOIN courses p ON p.id = cp.prerequisite_id
                WHERE cp.course_id IN ` + in + ` ORDER BY cp.course_id, p.course_code`
    prows, err := r.db.QueryContext(ctx, prereqQ, ids...)
    if err != nil {
        return nil, err
    }
    defer prows.Close()
    for prows.Next() {
        var cid uint64
        var ref model.CourseRef
        if err := prows.Scan(&cid, &ref.ID, &ref.Code, &ref.Title); err != nil {
            return nil, err
        }
        if i, ok := index[cid]; ok {
            courses[i].Prerequisites = append(courses[i].Prerequisites, ref)
        }
    }
    if err := prows.Err(); err != nil {
        return nil, err
    }
    return courses, nil
}

// CourseUpdate is the explicit whitelist of mutable course fields. Nil
// pointers leave the stored value unchanged. Seat counters are
// deliberately absent: only the seat ledger may move them.
type CourseUpdate struct {
    Title         *string
    Department    *string
    Level         *int
    Description   *string
    CreditHours   *int
    Schedule      *[]model.Slot
    Prerequisites *[]uint64
}

// Update applies a whitelisted partial update to a course. Providing a
// schedule or prerequisite list replaces the stored set wholesale.
// Returns ErrCourseNotFound when the course does not exist.
func (r *CourseRepo) Update(ctx context.Context, id uint64, u CourseUpdate) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var exists uint64
    err = tx.QueryRowContext(ctx, `SELECT id FROM courses WHERE id = ? FOR UPDATE`, id).Scan(&exists)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return ErrCourseNotFound
        }
        return err
    }

    var sets []string
    var args []interface{}
    if u.Title != nil {
        sets = append(sets, "title = ?")
        args = append(args, *u.Title)
    }
    if u.Department != nil {
        sets = append(sets, "department = ?")
        args = append(args, *u.Department)
    }
    if u.Level != nil {
        sets = append(sets, "level = ?")
        args = append(args, *u.Level)
    }
    if u.Description != nil {
        sets = append(sets, "description = ?")
        args = append(args, *u.Description)
    }
    if u.CreditHours != nil {
        sets = append(sets, "credit_hours = ?")
        args = append(args, *u.CreditHours)
    }
    if len(sets) > 0 {
        args = append(args, id)
        if _, err := tx.ExecContext(ctx,
            "UPDATE courses SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
            return err
        }
    }
    if u.Schedule != nil {
        if _, err := tx.ExecContext(ctx, `DELETE FROM course_slots WHERE course_id = ?`, id); err != nil {
            return err
        }
        if err := replaceSlotsTx(ctx, tx, id, *u.Schedule); err != nil {
            return err
        }
    }
    if u.Prerequisites != nil {
        if _, err := tx.ExecContext(ctx, `DELETE FROM course_prerequisites WHERE course_id = ?`, id); err != nil {
            return err
        }
        if err := replacePrerequisitesTx(ctx, tx, id, *u.Prerequisites); err != nil {
            return err
        }
    }

    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// Delete removes a course. Slots, prerequisite links, subscriptions and
// registrations cascade at the schema level. Returns ErrCourseNotFound
// when no row was deleted.
func (r *CourseRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrCourseNotFound
    }
    return nil
}

// ReserveSeatTx takes one seat of the course inside the caller's
// transaction. The decrement is guarded so it only applies while
// available_seats > 0; when no row qualifies the course is either
// missing (ErrCourseNotFound) or full (ErrNoSeatsAvailable). On success
// the remaining seat count is returned so the caller can apply the
// clear-subscribers-on-zero post-condition.
func (r *CourseRepo) ReserveSeatTx(ctx context.Context, tx *sql.Tx, courseID uint64) (uint32, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE courses SET available_seats = available_seats - 1
         WHERE id = ? AND available_seats > 0`, courseID)
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return 0, err
    }
    if n == 0 {
        if err := courseExistsTx(ctx, tx, courseID); err != nil {
            return 0, err
        }
        return 0, ErrNoSeatsAvailable
    }
    var remaining uint32
    if err := tx.QueryRowContext(ctx,
        `SELECT available_seats FROM courses WHERE id = ?`, courseID).Scan(&remaining); err != nil {
        return 0, err
    }
    return remaining, nil
}

// ReleaseSeatTx returns one seat to the course inside the caller's
// transaction. The increment is capped at total_seats; a release that
// would overshoot reports ErrSeatOverflow and leaves the counter
// untouched. On success the new seat count is returned.
func (r *CourseRepo) ReleaseSeatTx(ctx context.Context, tx *sql.Tx, courseID uint64) (uint32, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE courses SET available_seats = available_seats + 1
         WHERE id = ? AND available_seats < total_seats`, courseID)
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return 0, err
    }
    if n == 0 {
        if err := courseExistsTx(ctx, tx, courseID); err != nil {
            return 0, err
        }
        return 0, ErrSeatOverflow
    }
    var remaining uint32
    if err := tx.QueryRowContext(ctx,
        `SELECT available_seats FROM courses WHERE id = ?`, courseID).Scan(&remaining); err != nil {
        return 0, err
    }
    return remaining, nil
}

// Subscribe adds a student to the course's seat-notification list.
// Duplicate subscriptions report ErrAlreadySubscribed.
func (r *CourseRepo) Subscribe(ctx context.Context, courseID, userID uint64) error {
    var exists uint64
    err := r.db.QueryRowContext(ctx, `SELECT id FROM courses WHERE id = ?`, courseID).Scan(&exists)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return ErrCourseNotFound
        }
        return err
    }
    _, err = r.db.ExecContext(ctx,
        `INSERT INTO course_subscribers (course_id, user_id) VALUES (?, ?)`, courseID, userID)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrAlreadySubscribed
        }
        return err
    }
    return nil
}

// SubscriberRollsTx returns the roll numbers of everyone subscribed to
// the course, for inclusion in seat-released events.
func (r *CourseRepo) SubscriberRollsTx(ctx context.Context, tx *sql.Tx, courseID uint64) ([]string, error) {
    rows, err := tx.QueryContext(ctx,
        `SELECT u.roll_number FROM course_subscribers s
         JOIN users u ON u.id = s.user_id
         WHERE s.course_id = ? ORDER BY u.roll_number`, courseID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var rolls []string
    for rows.Next() {
        var roll string
        if err := rows.Scan(&roll); err != nil {
            return nil, err
        }
        rolls = append(rolls, roll)
    }
    return rolls, rows.Err()
}

// ClearSubscribersTx empties the course's subscriber list inside the
// caller's transaction.
func (r *CourseRepo) ClearSubscribersTx(ctx context.Context, tx *sql.Tx, courseID uint64) error {
    _, err := tx.ExecContext(ctx, `DELETE FROM course_subscribers WHERE course_id = ?`, courseID)
    return err
}

// courseExistsTx reports ErrCourseNotFound when the course row is absent.
func courseExistsTx(ctx context.Context, tx *sql.Tx, courseID uint64) error {
    var id uint64
    err := tx.QueryRowContext(ctx, `SELECT id FROM courses WHERE id = ?`, courseID).Scan(&id)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrCourseNotFound
    }
    return err
}

// queryer lets the slot and prerequisite loaders run against either a
// plain DB handle or an open transaction.
type queryer interface {
    QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func loadSlots(ctx context.Context, q queryer, courseID uint64) ([]model.Slot, error) {
    rows, err := q.QueryContext(ctx,
        `SELECT day, start_time, end_time, room FROM course_slots WHERE course_id = ? ORDER BY id`, courseID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    slots := make([]model.Slot, 0)
    for rows.Next() {
        var s model.Slot
        if err := rows.Scan(&s.Day, &s.StartTime, &s.EndTime, &s.Room); err != nil {
            return nil, err
        }
        slots = append(slots, s)
    }
    return slots, rows.Err()
}

func loadPrerequisites(ctx context.Context, q queryer, courseID uint64) ([]model.CourseRef, error) {
    rows, err := q.QueryContext(ctx,
        `SELECT p.id, p.course_code, p.title
         FROM course_prerequisites cp
         JOIN courses p ON p.id = cp.prerequisite_id
         WHERE cp.course_id = ? ORDER BY p.course_code`, courseID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var refs []model.CourseRef
    for rows.Next() {
        var ref model.CourseRef
        if err := rows.Scan(&ref.ID, &ref.Code, &ref.Title); err != nil {
            return nil, err
        }
        refs = append(refs, ref)
    }
    return refs, rows.Err()
}

func replaceSlotsTx(ctx context.Context, tx *sql.Tx, courseID uint64, slots []model.Slot) error {
    if len(slots) == 0 {
        return nil
    }
    q := `INSERT INTO course_slots (course_id, day, start_time, end_time, room) VALUES `
    args := make([]interface{}, 0, len(slots)*5)
    for i, s := range slots {
        if i > 0 {
            q += ","
        }
        q += "(?, ?, ?, ?, ?)"
        args = append(args, courseID, s.Day, s.StartTime, s.EndTime, s.Room)
    }
    _, err := tx.ExecContext(ctx, q, args...)
    return err
}

func replacePrerequisitesTx(ctx context.Context, tx *sql.Tx, courseID uint64, prereqIDs []uint64) error {
    if len(prereqIDs) == 0 {
        return nil
    }
    q := `INSERT INTO course_prerequisites (course_id, prerequisite_id) VALUES `
    args := make([]interface{}, 0, len(prereqIDs)*2)
    for i, pid := range prereqIDs {
        if i > 0 {
            q += ","
        }
        q += "(?, ?)"
        args = append(args, courseID, pid)
    }
    _, err := tx.ExecContext(ctx, q, args...)
    return err
}

func scanCourse(row *sql.Row) (*model.Course, error) {
    var c model.Course
    var desc sql.NullString
    err := row.Scan(&c.ID, &c.Code, &c.Title, &c.Department, &c.Level, &desc,
        &c.CreditHours, &c.TotalSeats, &c.AvailableSeats, &c.CreatedAt)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrCourseNotFound
        }
        return nil, err
    }
    c.Description = desc.String
    return &c, nil
}
