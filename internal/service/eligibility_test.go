package service

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/course-registration/internal/model"
    "github.com/iliyamo/course-registration/internal/repository"
)

func slot(day, start, end string) model.Slot {
    return model.Slot{Day: day, StartTime: start, EndTime: end}
}

func TestFindScheduleConflict(t *testing.T) {
    enrolled := []repository.EnrolledCourse{
        {
            CourseID: 1, Code: "MATH-101", Title: "Calculus I",
            Schedule: []model.Slot{slot(model.Monday, "09:00", "10:30"), slot(model.Wednesday, "09:00", "10:30")},
        },
        {
            CourseID: 2, Code: "PHYS-101", Title: "Mechanics",
            Schedule: []model.Slot{slot(model.Tuesday, "14:00", "15:30")},
        },
    }

    t.Run("no conflict", func(t *testing.T) {
        candidate := []model.Slot{slot(model.Monday, "10:30", "12:00"), slot(model.Friday, "09:00", "10:30")}
        assert.Nil(t, FindScheduleConflict(candidate, enrolled))
    })

    t.Run("conflict names course and day", func(t *testing.T) {
        candidate := []model.Slot{slot(model.Tuesday, "15:00", "16:30")}
        got := FindScheduleConflict(candidate, enrolled)
        require.NotNil(t, got)
        assert.Equal(t, "PHYS-101", got.CourseCode)
        assert.Equal(t, model.Tuesday, got.Day)
        assert.Equal(t, "schedule conflict with PHYS-101 on Tuesday", got.Error())
    })

    t.Run("first conflict in enrollment order wins", func(t *testing.T) {
        // Candidate collides with both enrolled courses; MATH-101 comes
        // first in the enrolled list so it is the one reported.
        candidate := []model.Slot{
            slot(model.Tuesday, "14:30", "15:00"),
            slot(model.Monday, "09:30", "10:00"),
        }
        got := FindScheduleConflict(candidate, enrolled)
        require.NotNil(t, got)
        assert.Equal(t, "MATH-101", got.CourseCode)
        assert.Equal(t, model.Monday, got.Day)
    })

    t.Run("empty inputs", func(t *testing.T) {
        assert.Nil(t, FindScheduleConflict(nil, enrolled))
        assert.Nil(t, FindScheduleConflict([]model.Slot{slot(model.Monday, "09:00", "10:00")}, nil))
    })
}

func TestUnmetPrerequisites(t *testing.T) {
    prereqs := []model.CourseRef{
        {ID: 10, Code: "CS-101", Title: "Intro to CS"},
        {ID: 11, Code: "CS-102", Title: "Programming II"},
        {ID: 12, Code: "MATH-101", Title: "Calculus I"},
    }

    t.Run("all met", func(t *testing.T) {
        completed := map[uint64]struct{}{10: {}, 11: {}, 12: {}}
        assert.Empty(t, UnmetPrerequisites(prereqs, completed))
    })

    t.Run("partial, order preserved", func(t *testing.T) {
        completed := map[uint64]struct{}{11: {}}
        missing := UnmetPrerequisites(prereqs, completed)
        require.Len(t, missing, 2)
        assert.Equal(t, "CS-101", missing[0].Code)
        assert.Equal(t, "MATH-101", missing[1].Code)
    })

    t.Run("none completed", func(t *testing.T) {
        missing := UnmetPrerequisites(prereqs, map[uint64]struct{}{})
        assert.Len(t, missing, 3)
    })

    t.Run("no prerequisites", func(t *testing.T) {
        assert.Empty(t, UnmetPrerequisites(nil, map[uint64]struct{}{10: {}}))
    })
}

func TestPrerequisiteErrorMessage(t *testing.T) {
    err := &PrerequisiteError{Missing: []model.CourseRef{
        {ID: 10, Code: "CS-101"},
        {ID: 12, Code: "MATH-101"},
    }}
    assert.Equal(t, "prerequisites not met: CS-101, MATH-101", err.Error())
}

func TestSeatDelta(t *testing.T) {
    cases := []struct {
        from, to string
        want     int
    }{
        {model.StatusApproved, model.StatusApproved, 0},
        {model.StatusRejected, model.StatusRejected, 0},
        {model.StatusRejected, model.StatusApproved, -1},
        {model.StatusApproved, model.StatusRejected, +1},
    }
    for _, tc := range cases {
        assert.Equal(t, tc.want, SeatDelta(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
    }
}
