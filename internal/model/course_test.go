package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestMinuteOfDay(t *testing.T) {
    cases := []struct {
        in      string
        want    int
        wantErr bool
    }{
        {"00:00", 0, false},
        {"09:30", 570, false},
        {"23:59", 1439, false},
        {"24:00", 0, true},
        {"10:60", 0, true},
        {"abc", 0, true},
        {"", 0, true},
    }
    for _, tc := range cases {
        got, err := MinuteOfDay(tc.in)
        if tc.wantErr {
            assert.Error(t, err, tc.in)
            continue
        }
        require.NoError(t, err, tc.in)
        assert.Equal(t, tc.want, got, tc.in)
    }
}

func TestSlotOverlaps(t *testing.T) {
    slot := func(day, start, end string) Slot {
        return Slot{Day: day, StartTime: start, EndTime: end}
    }

    cases := []struct {
        name string
        a, b Slot
        want bool
    }{
        {
            name: "different days never conflict",
            a:    slot(Monday, "09:00", "10:30"),
            b:    slot(Tuesday, "09:00", "10:30"),
            want: false,
        },
        {
            name: "identical slots conflict",
            a:    slot(Monday, "09:00", "10:30"),
            b:    slot(Monday, "09:00", "10:30"),
            want: true,
        },
        {
            name: "a starts inside b",
            a:    slot(Wednesday, "10:00", "11:00"),
            b:    slot(Wednesday, "09:30", "10:30"),
            want: true,
        },
        {
            name: "a ends inside b",
            a:    slot(Wednesday, "09:00", "10:00"),
            b:    slot(Wednesday, "09:30", "10:30"),
            want: true,
        },
        {
            name: "a encloses b",
            a:    slot(Friday, "08:00", "12:00"),
            b:    slot(Friday, "09:00", "10:00"),
            want: true,
        },
        {
            name: "back to back slots do not conflict",
            a:    slot(Monday, "09:00", "10:00"),
            b:    slot(Monday, "10:00", "11:00"),
            want: false, // half-open ranges: touching boundaries are fine
        },
        {
            name: "fully disjoint same day",
            a:    slot(Thursday, "08:00", "09:00"),
            b:    slot(Thursday, "14:00", "15:00"),
            want: false,
        },
        {
            name: "zero-length slot never conflicts",
            a:    slot(Monday, "09:00", "09:00"),
            b:    slot(Monday, "08:00", "12:00"),
            want: false,
        },
        {
            name: "zero-length slot at the other slot's start",
            a:    slot(Monday, "08:00", "08:00"),
            b:    slot(Monday, "08:00", "12:00"),
            want: false,
        },
        {
            name: "two zero-length slots at the same instant",
            a:    slot(Monday, "09:00", "09:00"),
            b:    slot(Monday, "09:00", "09:00"),
            want: false,
        },
        {
            name: "unparseable time treated as non-conflicting",
            a:    slot(Monday, "nine", "10:00"),
            b:    slot(Monday, "09:00", "11:00"),
            want: false,
        },
    }

    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
            assert.Equal(t, tc.want, tc.b.Overlaps(tc.a), "symmetry")
        })
    }
}

func TestValidDay(t *testing.T) {
    for _, d := range []string{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday} {
        assert.True(t, ValidDay(d), d)
    }
    assert.False(t, ValidDay("monday"))
    assert.False(t, ValidDay(""))
    assert.False(t, ValidDay("Funday"))
}

func TestFillPercentage(t *testing.T) {
    cases := []struct {
        total, available uint32
        want             int
    }{
        {0, 0, 0},   // no capacity, no division by zero
        {30, 30, 0}, // empty
        {30, 0, 100},
        {30, 15, 50},
        {3, 2, 33},  // 33.33 rounds down
        {3, 1, 67},  // 66.67 rounds up
        {40, 29, 28}, // 27.5 rounds up
    }
    for _, tc := range cases {
        c := Course{TotalSeats: tc.total, AvailableSeats: tc.available}
        assert.Equal(t, tc.want, c.FillPercentage(), "total=%d available=%d", tc.total, tc.available)
    }
}

func TestCourseRef(t *testing.T) {
    c := Course{ID: 7, Code: "CS-201", Title: "Data Structures", TotalSeats: 40}
    assert.Equal(t, CourseRef{ID: 7, Code: "CS-201", Title: "Data Structures"}, c.Ref())
}
