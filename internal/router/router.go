// Package router wires HTTP routes to handlers and attaches the
// authentication and role middleware each group needs.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/course-registration/internal/handler"
    "github.com/iliyamo/course-registration/internal/middleware"
    "github.com/iliyamo/course-registration/internal/model"
)

// RegisterRoutes registers routes that carry no authentication at all.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the auth endpoints and the user-management
// endpoints. Login, refresh and logout live under /v1/auth without a
// JWT; /v1/me requires one; user creation is admin only.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    // Logout accepts either a refresh_token body or a bearer token, so
    // it sits outside the JWT group and resolves identity itself.
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)

    admin := e.Group("/v1/users")
    admin.Use(middleware.JWTAuth(jwtSecret))
    admin.Use(middleware.RequireRole(model.RoleAdmin))
    admin.POST("", a.CreateUser)
}

// RegisterCourses registers course browsing (public, cached), course
// administration (admin) and seat subscriptions (student).
func RegisterCourses(e *echo.Echo, h *handler.CourseHandler, jwtSecret string, cache echo.MiddlewareFunc) {
    browse := e.Group("/v1/courses")
    if cache != nil {
        browse.Use(cache)
    }
    browse.GET("", h.List)
    browse.GET("/:id", h.Get)

    admin := e.Group("/v1/courses")
    admin.Use(middleware.JWTAuth(jwtSecret))
    admin.Use(middleware.RequireRole(model.RoleAdmin))
    admin.POST("", h.Create)
    admin.PATCH("/:id", h.Update)
    admin.DELETE("/:id", h.Delete)

    student := e.Group("/v1/courses")
    student.Use(middleware.JWTAuth(jwtSecret))
    student.Use(middleware.RequireRole(model.RoleStudent))
    student.POST("/:id/subscribe", h.Subscribe)
}

// RegisterRegistrations registers the registration lifecycle routes.
// Cancellation is open to both roles; the service checks ownership.
func RegisterRegistrations(e *echo.Echo, h *handler.RegistrationHandler, jwtSecret string) {
    student := e.Group("/v1/registrations")
    student.Use(middleware.JWTAuth(jwtSecret))
    student.Use(middleware.RequireRole(model.RoleStudent))
    student.POST("", h.Register)
    student.GET("/mine", h.ListMine)

    admin := e.Group("/v1/registrations")
    admin.Use(middleware.JWTAuth(jwtSecret))
    admin.Use(middleware.RequireRole(model.RoleAdmin))
    admin.GET("", h.ListAll)
    admin.PATCH("/:id/status", h.UpdateStatus)

    either := e.Group("/v1/registrations")
    either.Use(middleware.JWTAuth(jwtSecret))
    either.Use(middleware.RequireRole(model.RoleStudent, model.RoleAdmin))
    either.DELETE("/:id", h.Cancel)
}

// RegisterReports registers the admin reporting endpoints. Reports are
// read-heavy, so the response cache applies when available.
func RegisterReports(e *echo.Echo, h *handler.ReportHandler, jwtSecret string, cache echo.MiddlewareFunc) {
    g := e.Group("/v1/reports")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(model.RoleAdmin))
    if cache != nil {
        g.Use(cache)
    }
    g.GET("/courses/:id/enrollment", h.Enrollment)
    g.GET("/available-courses", h.AvailableCourses)
    g.GET("/prerequisite-issues", h.PrerequisiteIssues)
}

// RegisterSeed registers the bootstrap endpoint. It stays public so a
// fresh deployment can create its first admin; the handler is a no-op
// once an admin exists.
func RegisterSeed(e *echo.Echo, h *handler.SeedHandler) {
    e.POST("/v1/seed", h.Seed)
}
