package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/course-registration/internal/repository"
    "github.com/iliyamo/course-registration/internal/service"
)

// ReportHandler serves the admin reporting endpoints. Reports are
// read-only aggregations over live data; no snapshots are kept.
type ReportHandler struct {
    Courses *repository.CourseRepo
    Regs    *repository.RegistrationRepo
    Svc     *service.RegistrationService
}

func NewReportHandler(courses *repository.CourseRepo, regs *repository.RegistrationRepo, svc *service.RegistrationService) *ReportHandler {
    return &ReportHandler{Courses: courses, Regs: regs, Svc: svc}
}

type courseSummary struct {
    ID             uint64 `json:"id"`
    Code           string `json:"course_code"`
    Title          string `json:"title"`
    Department     string `json:"department"`
    TotalSeats     uint32 `json:"total_seats"`
    AvailableSeats uint32 `json:"available_seats"`
    FillPercentage int    `json:"fill_percentage"`
}

// Enrollment reports one course's fill percentage and its APPROVED
// roster.
func (h *ReportHandler) Enrollment(c echo.Context) error {
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
    roster, err := h.Regs.ListApprovedByCourse(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    return c.JSON(http.StatusOK, echo.Map{
        "course": courseSummary{
            ID:             course.ID,
            Code:           course.Code,
            Title:          course.Title,
            Department:     course.Department,
            TotalSeats:     course.TotalSeats,
            AvailableSeats: course.AvailableSeats,
            FillPercentage: course.FillPercentage(),
        },
        "enrolled": len(roster),
        "roster":   roster,
    })
}

// AvailableCourses lists every course that still has open seats,
// with its fill percentage.
func (h *ReportHandler) AvailableCourses(c echo.Context) error {
    courses, err := h.Courses.List(c.Request().Context(), repository.ListFilter{MinSeats: 1})
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]courseSummary, 0, len(courses))
    for i := range courses {
        cr := &courses[i]
        out = append(out, courseSummary{
            ID:             cr.ID,
            Code:           cr.Code,
            Title:          cr.Title,
            Department:     cr.Department,
            TotalSeats:     cr.TotalSeats,
            AvailableSeats: cr.AvailableSeats,
            FillPercentage: cr.FillPercentage(),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// PrerequisiteIssues re-runs the prerequisite check across every
// APPROVED registration and reports the ones that no longer hold up.
func (h *ReportHandler) PrerequisiteIssues(c echo.Context) error {
    issues, err := h.Svc.PrerequisiteAudit(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "audit failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "count": len(issues),
        "items": issues,
    })
}
