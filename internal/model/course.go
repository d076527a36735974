package model

import (
    "fmt"
    "time"
)

// Valid values for Slot.Day.  Days are stored verbatim in the
// course_slots table as an ENUM.
const (
    Monday    = "Monday"
    Tuesday   = "Tuesday"
    Wednesday = "Wednesday"
    Thursday  = "Thursday"
    Friday    = "Friday"
    Saturday  = "Saturday"
    Sunday    = "Sunday"
)

// ValidDay reports whether day is one of the seven weekday names
// accepted by the schedule schema.
func ValidDay(day string) bool {
    switch day {
    case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
        return true
    }
    return false
}

// Slot is a recurring weekly meeting of a course: a day of week plus a
// wall-clock range and the room it takes place in.  Times are "HH:MM"
// strings, the format they arrive in over the API and are stored in.
//
// Fields:
//  Day       - weekday name (see the day constants above).
//  StartTime - start of the meeting, "HH:MM" 24h clock.
//  EndTime   - end of the meeting, "HH:MM" 24h clock.
//  Room      - room identifier, free text.
type Slot struct {
    Day       string `json:"day"`
    StartTime string `json:"start_time"`
    EndTime   string `json:"end_time"`
    Room      string `json:"room"`
}

// MinuteOfDay converts an "HH:MM" clock string into minutes since
// midnight.  It rejects malformed strings and out-of-range components.
func MinuteOfDay(clock string) (int, error) {
    var h, m int
    if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
        return 0, fmt.Errorf("invalid clock value %q", clock)
    }
    if h < 0 || h > 23 || m < 0 || m > 59 {
        return 0, fmt.Errorf("clock value %q out of range", clock)
    }
    return h*60 + m, nil
}

// Overlaps reports whether two slots conflict: they must share the same
// day and their minute ranges must intersect.  Ranges are half-open
// [start, end), so a slot ending at 10:00 does not conflict with one
// starting at 10:00.  Zero-length slots occupy no time and never
// conflict, in either direction.  Slots with unparseable times are
// treated as non-conflicting; validation happens before slots are
// persisted.
func (s Slot) Overlaps(o Slot) bool {
    if s.Day != o.Day {
        return false
    }
    aStart, err := MinuteOfDay(s.StartTime)
    if err != nil {
        return false
    }
    aEnd, err := MinuteOfDay(s.EndTime)
    if err != nil {
        return false
    }
    bStart, err := MinuteOfDay(o.StartTime)
    if err != nil {
        return false
    }
    bEnd, err := MinuteOfDay(o.EndTime)
    if err != nil {
        return false
    }
    if aStart == aEnd || bStart == bEnd {
        return false
    }
    // The three classic cases: a starts inside b, a ends inside b, or a
    // encloses b.  Half-open semantics keep back-to-back slots apart.
    if aStart >= bStart && aStart < bEnd {
        return true
    }
    if aEnd > bStart && aEnd <= bEnd {
        return true
    }
    if aStart <= bStart && aEnd >= bEnd {
        return true
    }
    return false
}

// CourseRef is a lightweight reference to a course, used when listing
// prerequisites and when reporting which prerequisite courses a student
// is missing.
type CourseRef struct {
    ID    uint64 `json:"id"`
    Code  string `json:"course_code"`
    Title string `json:"title"`
}

// Course mirrors the courses table together with its owned collections
// (schedule slots, prerequisite references and subscriber IDs).
//
// Fields:
//  ID             - primary key identifier.
//  Code           - unique course code (e.g. "CS-201").
//  Title          - human readable course title.
//  Department     - owning department name.
//  Level          - course level (100, 200, ...).
//  Description    - optional free-text description.
//  CreditHours    - credit hours awarded.
//  TotalSeats     - fixed capacity of the course.
//  AvailableSeats - remaining seats; invariant 0 <= available <= total.
//  Schedule       - weekly meeting slots.
//  Prerequisites  - direct prerequisite courses (non-transitive).
//  Subscribers    - user IDs waiting on a seat notification.
//  CreatedAt      - timestamp when the course was created.
type Course struct {
    ID             uint64      `json:"id"`
    Code           string      `json:"course_code"`
    Title          string      `json:"title"`
    Department     string      `json:"department"`
    Level          int         `json:"level"`
    Description    string      `json:"description,omitempty"`
    CreditHours    int         `json:"credit_hours"`
    TotalSeats     uint32      `json:"total_seats"`
    AvailableSeats uint32      `json:"available_seats"`
    Schedule       []Slot      `json:"schedule"`
    Prerequisites  []CourseRef `json:"prerequisites,omitempty"`
    Subscribers    []uint64    `json:"-"`
    CreatedAt      time.Time   `json:"created_at"`
}

// Ref returns the lightweight reference form of the course.
func (c *Course) Ref() CourseRef {
    return CourseRef{ID: c.ID, Code: c.Code, Title: c.Title}
}

// FillPercentage returns how full the course is as a rounded integer
// percentage.  A course with zero total seats reports 0 rather than
// dividing by zero.
func (c *Course) FillPercentage() int {
    if c.TotalSeats == 0 {
        return 0
    }
    taken := float64(c.TotalSeats - c.AvailableSeats)
    return int(taken/float64(c.TotalSeats)*100 + 0.5)
}
