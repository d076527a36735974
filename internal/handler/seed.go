package handler

import (
    "net/http"
    "os"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/course-registration/internal/config"
    "github.com/iliyamo/course-registration/internal/model"
    "github.com/iliyamo/course-registration/internal/repository"
)

// SeedHandler bootstraps a default admin and a demo student so a fresh
// deployment can be used immediately. The endpoint is idempotent:
// once an admin exists it does nothing.
type SeedHandler struct {
    Cfg   config.Config
    Users *repository.UserRepo
}

func NewSeedHandler(cfg config.Config, users *repository.UserRepo) *SeedHandler {
    return &SeedHandler{Cfg: cfg, Users: users}
}

// Seed creates the bootstrap accounts. Passwords come from
// SEED_ADMIN_PASSWORD and SEED_STUDENT_PASSWORD with development
// defaults.
func (h *SeedHandler) Seed(c echo.Context) error {
    ctx := c.Request().Context()

    exists, err := h.Users.AdminExists(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if exists {
        return c.JSON(http.StatusOK, echo.Map{"message": "already seeded"})
    }

    adminPass := os.Getenv("SEED_ADMIN_PASSWORD")
    if adminPass == "" {
        adminPass = "admin123"
    }
    studentPass := os.Getenv("SEED_STUDENT_PASSWORD")
    if studentPass == "" {
        studentPass = "student123"
    }

    adminID, err := h.Users.Create(ctx, "ADMIN-001", "Administrator", adminPass, model.RoleAdmin, h.Cfg.BcryptCost)
    if err != nil && err != repository.ErrRollNumberExists {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "seed admin failed"})
    }
    studentID, err := h.Users.Create(ctx, "STU-0001", "Demo Student", studentPass, model.RoleStudent, h.Cfg.BcryptCost)
    if err != nil && err != repository.ErrRollNumberExists {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "seed student failed"})
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "admin_id":   adminID,
        "student_id": studentID,
        "message":    "seeded default admin and demo student",
    })
}
