package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/course-registration/internal/model"
    "github.com/iliyamo/course-registration/internal/repository"
)

// CourseHandler serves course CRUD for admins and browsing plus seat
// subscriptions for everyone else.
type CourseHandler struct {
    Courses *repository.CourseRepo
}

func NewCourseHandler(courses *repository.CourseRepo) *CourseHandler {
    return &CourseHandler{Courses: courses}
}

type createCourseReq struct {
    Code          string       `json:"course_code"`
    Title         string       `json:"title"`
    Department    string       `json:"department"`
    Level         int          `json:"level"`
    Description   string       `json:"description"`
    CreditHours   int          `json:"credit_hours"`
    TotalSeats    uint32       `json:"total_seats"`
    Schedule      []model.Slot `json:"schedule"`
    Prerequisites []uint64     `json:"prerequisites"`
}

// updateCourseReq carries the mutable fields only. Seat counters are
// deliberately absent; they move through the ledger, never through an
// update payload.
type updateCourseReq struct {
    Title         *string       `json:"title"`
    Department    *string       `json:"department"`
    Level         *int          `json:"level"`
    Description   *string       `json:"description"`
    CreditHours   *int          `json:"credit_hours"`
    Schedule      *[]model.Slot `json:"schedule"`
    Prerequisites *[]uint64     `json:"prerequisites"`
}

// validateSlots checks day names and that each slot's times parse with
// start before end. Zero-length slots are rejected at the door even
// though the overlap check would tolerate them.
func validateSlots(slots []model.Slot) string {
    for _, s := range slots {
        if !model.ValidDay(s.Day) {
            return "invalid day: " + s.Day
        }
        start, err := model.MinuteOfDay(s.StartTime)
        if err != nil {
            return "invalid start_time: " + s.StartTime
        }
        end, err := model.MinuteOfDay(s.EndTime)
        if err != nil {
            return "invalid end_time: " + s.EndTime
        }
        if start >= end {
            return "start_time must be before end_time"
        }
    }
    return ""
}

// Create adds a course. Available seats start at total seats.
func (h *CourseHandler) Create(c echo.Context) error {
    var req createCourseReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
    req.Title = strings.TrimSpace(req.Title)
    if req.Code == "" || req.Title == "" || req.Department == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "course_code/title/department required"})
    }
    if req.TotalSeats == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_seats must be positive"})
    }
    if msg := validateSlots(req.Schedule); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    course := &model.Course{
        Code:           req.Code,
        Title:          req.Title,
        Department:     req.Department,
        Level:          req.Level,
        Description:    req.Description,
        CreditHours:    req.CreditHours,
        TotalSeats:     req.TotalSeats,
        AvailableSeats: req.TotalSeats,
        Schedule:       req.Schedule,
    }
    for _, id := range req.Prerequisites {
        course.Prerequisites = append(course.Prerequisites, model.CourseRef{ID: id})
    }

    ctx := c.Request().Context()
    if err := h.Courses.Create(ctx, course); err != nil {
        if err == repository.ErrCourseCodeExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "course code already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create course failed"})
    }

    // Re-read so prerequisite references come back with code and title.
    created, err := h.Courses.GetByID(ctx, course.ID)
    if err != nil {
        return c.JSON(http.StatusCreated, course)
    }
    return c.JSON(http.StatusCreated, created)
}

// Get returns one course with schedule and prerequisites populated.
func (h *CourseHandler) Get(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    course, err := h.Courses.GetByID(c.Request().Context(), id)
    if err != nil {
        if err == repository.ErrCourseNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, course)
}

// List returns courses filtered by optional query parameters:
// department, level, day and min_seats.
func (h *CourseHandler) List(c echo.Context) error {
    var f repository.ListFilter
    f.Department = strings.TrimSpace(c.QueryParam("department"))
    if v := c.QueryParam("level"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid level"})
        }
        f.Level = n
    }
    if day := c.QueryParam("day"); day != "" {
        if !model.ValidDay(day) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid day"})
        }
        f.Day = day
    }
    if v := c.QueryParam("min_seats"); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n < 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_seats"})
        }
        f.MinSeats = n
    }

    courses, err := h.Courses.List(c.Request().Context(), f)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": courses})
}

// Update applies a partial update limited to the whitelisted fields.
func (h *CourseHandler) Update(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req updateCourseReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Schedule != nil {
        if msg := validateSlots(*req.Schedule); msg != "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
        }
    }

    upd := repository.CourseUpdate{
        Title:         req.Title,
        Department:    req.Department,
        Level:         req.Level,
        Description:   req.Description,
        CreditHours:   req.CreditHours,
        Schedule:      req.Schedule,
        Prerequisites: req.Prerequisites,
    }
    ctx := c.Request().Context()
    if err := h.Courses.Update(ctx, id, upd); err != nil {
        if err == repository.ErrCourseNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update course failed"})
    }

    course, err := h.Courses.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, course)
}

// Delete removes a course.
func (h *CourseHandler) Delete(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if err := h.Courses.Delete(c.Request().Context(), id); err != nil {
        if err == repository.ErrCourseNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete course failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Subscribe puts the student on a full course's notify list. Courses
// with open seats reject the subscription; register instead.
func (h *CourseHandler) Subscribe(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    ctx := c.Request().Context()
    course, err := h.Courses.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrCourseNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if course.AvailableSeats > 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats are still available, register instead"})
    }

    if err := h.Courses.Subscribe(ctx, id, uid); err != nil {
        if err == repository.ErrAlreadySubscribed {
            return c.JSON(http.StatusConflict, echo.Map{"error": "already subscribed"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "subscribe failed"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "course_id": id,
        "message":   "subscribed, you will be notified when a seat opens",
    })
}
