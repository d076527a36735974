package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/course-registration/internal/repository"
    "github.com/iliyamo/course-registration/internal/service"
)

// RegistrationHandler exposes the registration lifecycle over HTTP.
// Every mutation delegates to the service so seat accounting and
// eligibility stay inside one transaction.
type RegistrationHandler struct {
    Svc  *service.RegistrationService
    Regs *repository.RegistrationRepo
}

func NewRegistrationHandler(svc *service.RegistrationService, regs *repository.RegistrationRepo) *RegistrationHandler {
    return &RegistrationHandler{Svc: svc, Regs: regs}
}

type registerReq struct {
    CourseID uint64 `json:"course_id"`
}

type updateStatusReq struct {
    Status string `json:"status"`
}

// Register attempts to enroll the authenticated student in a course.
func (h *RegistrationHandler) Register(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req registerReq
    if err := c.Bind(&req); err != nil || req.CourseID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "course_id required"})
    }

    reg, err := h.Svc.Register(c.Request().Context(), uid, req.CourseID)
    if err != nil {
        return writeRegistrationError(c, err)
    }
    return c.JSON(http.StatusCreated, reg)
}

// ListMine returns the authenticated student's registrations with
// course data populated, newest first.
func (h *RegistrationHandler) ListMine(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    regs, err := h.Regs.ListByStudent(c.Request().Context(), uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": regs})
}

// ListAll returns every registration with student and course summaries.
// Admin only.
func (h *RegistrationHandler) ListAll(c echo.Context) error {
    regs, err := h.Regs.ListAll(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": regs})
}

// UpdateStatus toggles a registration between APPROVED and REJECTED,
// moving the seat counter accordingly. Admin only.
func (h *RegistrationHandler) UpdateStatus(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req updateStatusReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    status := strings.ToUpper(strings.TrimSpace(req.Status))

    reg, err := h.Svc.UpdateStatus(c.Request().Context(), id, status)
    if err != nil {
        return writeRegistrationError(c, err)
    }
    return c.JSON(http.StatusOK, reg)
}

// Cancel removes a registration. Students may cancel their own; admins
// may cancel any.
func (h *RegistrationHandler) Cancel(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }

    if err := h.Svc.Cancel(c.Request().Context(), id, uid, currentRole(c)); err != nil {
        return writeRegistrationError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// writeRegistrationError maps service and repository errors onto HTTP
// responses. Typed eligibility errors carry their details in the body;
// ErrSeatOverflow stays a 500 because it signals a consistency fault,
// not a bad request.
func writeRegistrationError(c echo.Context, err error) error {
    var conflict *service.ScheduleConflictError
    if errors.As(err, &conflict) {
        return c.JSON(http.StatusConflict, echo.Map{
            "error":       conflict.Error(),
            "course_code": conflict.CourseCode,
            "day":         conflict.Day,
        })
    }
    var prereq *service.PrerequisiteError
    if errors.As(err, &prereq) {
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{
            "error":               prereq.Error(),
            "unmet_prerequisites": prereq.Missing,
        })
    }
    switch {
    case errors.Is(err, repository.ErrCourseNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "course not found"})
    case errors.Is(err, repository.ErrRegistrationNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
    case errors.Is(err, repository.ErrNoSeatsAvailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "no seats available"})
    case errors.Is(err, repository.ErrDuplicateRegistration):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already registered for this course"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, service.ErrInvalidStatus):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be APPROVED or REJECTED"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration operation failed"})
    }
}
