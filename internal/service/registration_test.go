package service

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/course-registration/internal/model"
    "github.com/iliyamo/course-registration/internal/repository"
)

var (
    courseCols = []string{"id", "course_code", "title", "department", "level", "description",
        "credit_hours", "total_seats", "available_seats", "created_at"}
    regCols  = []string{"id", "student_id", "course_id", "status", "created_at", "updated_at"}
    slotCols = []string{"day", "start_time", "end_time", "room"}
    prqCols  = []string{"id", "course_code", "title"}
)

func newServiceWithMock(t *testing.T) (*RegistrationService, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    svc := NewRegistrationService(db, repository.NewCourseRepo(db), repository.NewRegistrationRepo(db), nil)
    return svc, mock
}

// expectCourseForUpdate queues the locked course read plus its schedule
// and prerequisite loads.
func expectCourseForUpdate(mock sqlmock.Sqlmock, id int64, code string, total, available uint32) {
    mock.ExpectQuery(`FROM courses WHERE id = \? FOR UPDATE`).
        WithArgs(id).
        WillReturnRows(sqlmock.NewRows(courseCols).
            AddRow(id, code, "Some Course", "CS", 200, "", 3, total, available, time.Now()))
    mock.ExpectQuery(`FROM course_slots WHERE course_id = \?`).
        WithArgs(id).
        WillReturnRows(sqlmock.NewRows(slotCols))
    mock.ExpectQuery(`FROM course_prerequisites cp`).
        WithArgs(id).
        WillReturnRows(sqlmock.NewRows(prqCols))
}

func TestRegisterFailsWhenCourseFull(t *testing.T) {
    svc, mock := newServiceWithMock(t)

    mock.ExpectBegin()
    expectCourseForUpdate(mock, 7, "CS-201", 30, 0)
    mock.ExpectRollback()

    _, err := svc.Register(context.Background(), 1, 7)
    assert.ErrorIs(t, err, repository.ErrNoSeatsAvailable)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterInsertsAndReservesOneSeat(t *testing.T) {
    svc, mock := newServiceWithMock(t)

    mock.ExpectBegin()
    expectCourseForUpdate(mock, 7, "CS-201", 30, 10)
    // No existing registration for the pair.
    mock.ExpectQuery(`SELECT id FROM registrations WHERE student_id = \? AND course_id = \?`).
        WithArgs(int64(1), int64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}))
    // No approved courses, so no conflicts and nothing completed.
    mock.ExpectQuery(`JOIN courses c ON c\.id = reg\.course_id`).
        WithArgs(int64(1), model.StatusApproved).
        WillReturnRows(sqlmock.NewRows([]string{"id", "course_code", "title"}))
    mock.ExpectExec(`INSERT INTO registrations`).
        WithArgs(int64(1), int64(7), model.StatusApproved).
        WillReturnResult(sqlmock.NewResult(11, 1))
    mock.ExpectQuery(`SELECT created_at, updated_at FROM registrations WHERE id = \?`).
        WithArgs(int64(11)).
        WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
    mock.ExpectExec(`UPDATE courses SET available_seats = available_seats - 1`).
        WithArgs(int64(7)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(`SELECT available_seats FROM courses WHERE id = \?`).
        WithArgs(int64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"available_seats"}).AddRow(9))
    mock.ExpectCommit()

    reg, err := svc.Register(context.Background(), 1, 7)
    require.NoError(t, err)
    assert.Equal(t, uint64(11), reg.ID)
    assert.Equal(t, model.StatusApproved, reg.Status)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusToApprovedFailsWhenFull(t *testing.T) {
    svc, mock := newServiceWithMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM registrations WHERE id = \? FOR UPDATE`).
        WithArgs(int64(5)).
        WillReturnRows(sqlmock.NewRows(regCols).
            AddRow(5, 1, 7, model.StatusRejected, time.Now(), time.Now()))
    expectCourseForUpdate(mock, 7, "CS-201", 30, 0)
    // The guarded decrement touches no row on a full course.
    mock.ExpectExec(`UPDATE courses SET available_seats = available_seats - 1`).
        WithArgs(int64(7)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    // The course exists, so the zero-row result means "full".
    mock.ExpectQuery(`SELECT id FROM courses WHERE id = \?`).
        WithArgs(int64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
    mock.ExpectRollback()

    _, err := svc.UpdateStatus(context.Background(), 5, model.StatusApproved)
    assert.ErrorIs(t, err, repository.ErrNoSeatsAvailable)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelReleasesExactlyOneSeat(t *testing.T) {
    svc, mock := newServiceWithMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM registrations WHERE id = \? FOR UPDATE`).
        WithArgs(int64(5)).
        WillReturnRows(sqlmock.NewRows(regCols).
            AddRow(5, 1, 7, model.StatusApproved, time.Now(), time.Now()))
    expectCourseForUpdate(mock, 7, "CS-201", 30, 0)
    mock.ExpectExec(`UPDATE courses SET available_seats = available_seats \+ 1`).
        WithArgs(int64(7)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(`SELECT available_seats FROM courses WHERE id = \?`).
        WithArgs(int64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"available_seats"}).AddRow(1))
    mock.ExpectQuery(`FROM course_subscribers s`).
        WithArgs(int64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"roll_number"}).AddRow("STU-0002"))
    mock.ExpectExec(`DELETE FROM registrations WHERE id = \?`).
        WithArgs(int64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    err := svc.Cancel(context.Background(), 5, 1, model.RoleStudent)
    require.NoError(t, err)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelRejectedLeavesLedgerAlone(t *testing.T) {
    svc, mock := newServiceWithMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM registrations WHERE id = \? FOR UPDATE`).
        WithArgs(int64(5)).
        WillReturnRows(sqlmock.NewRows(regCols).
            AddRow(5, 1, 7, model.StatusRejected, time.Now(), time.Now()))
    // No course lock, no ledger statement: straight to the delete.
    mock.ExpectExec(`DELETE FROM registrations WHERE id = \?`).
        WithArgs(int64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    err := svc.Cancel(context.Background(), 5, 1, model.RoleStudent)
    require.NoError(t, err)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelDoubleReleaseIsSeatOverflow(t *testing.T) {
    svc, mock := newServiceWithMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM registrations WHERE id = \? FOR UPDATE`).
        WithArgs(int64(5)).
        WillReturnRows(sqlmock.NewRows(regCols).
            AddRow(5, 1, 7, model.StatusApproved, time.Now(), time.Now()))
    // Counter already at capacity: the capped increment touches no row.
    expectCourseForUpdate(mock, 7, "CS-201", 30, 30)
    mock.ExpectExec(`UPDATE courses SET available_seats = available_seats \+ 1`).
        WithArgs(int64(7)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery(`SELECT id FROM courses WHERE id = \?`).
        WithArgs(int64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
    mock.ExpectRollback()

    err := svc.Cancel(context.Background(), 5, 1, model.RoleStudent)
    assert.ErrorIs(t, err, repository.ErrSeatOverflow)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelByNonOwnerIsForbidden(t *testing.T) {
    svc, mock := newServiceWithMock(t)

    mock.ExpectBegin()
    mock.ExpectQuery(`FROM registrations WHERE id = \? FOR UPDATE`).
        WithArgs(int64(5)).
        WillReturnRows(sqlmock.NewRows(regCols).
            AddRow(5, 2, 7, model.StatusApproved, time.Now(), time.Now()))
    mock.ExpectRollback()

    err := svc.Cancel(context.Background(), 5, 1, model.RoleStudent)
    assert.ErrorIs(t, err, repository.ErrForbidden)
    assert.NoError(t, mock.ExpectationsWereMet())
}
