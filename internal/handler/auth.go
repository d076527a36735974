package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/course-registration/internal/config"
    "github.com/iliyamo/course-registration/internal/model"
    "github.com/iliyamo/course-registration/internal/repository"
    "github.com/iliyamo/course-registration/internal/utils"
)

// AuthHandler bundles dependencies for auth and user endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
    Regs   *repository.RegistrationRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, r *repository.RegistrationRepo) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Regs: r}
}

// ----- DTOs -----

type loginReq struct {
    RollNumber string `json:"roll_number"`
    Password   string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}
type createUserReq struct {
    RollNumber string `json:"roll_number"`
    Name       string `json:"name"`
    Password   string `json:"password"`
    Role       string `json:"role"` // STUDENT | ADMIN, defaults to STUDENT
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID         uint64 `json:"id"`
    RollNumber string `json:"roll_number"`
    Name       string `json:"name"`
    Role       string `json:"role"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
    return userPart{ID: u.ID, RollNumber: u.RollNumber, Name: u.Name, Role: u.Role}
}

// Login verifies roll number + password and returns a fresh token pair.
// Students and admins share the endpoint; the role rides in the JWT.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.RollNumber = strings.ToUpper(strings.TrimSpace(req.RollNumber))
    if req.RollNumber == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "roll_number/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByRollNumber(ctx, req.RollNumber)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !u.IsActive {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account disabled"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    return h.issuePair(c, ctx, u, http.StatusOK)
}

// Refresh validates a refresh token by hash, revokes it and returns a
// new rotated pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    _ = h.Tokens.RevokeByHash(ctx, hash)

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return h.issuePair(c, ctx, u, http.StatusOK)
}

// Logout revokes refresh tokens. With a refresh_token in the body only
// that session dies; an authenticated call without one revokes every
// session of the user.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    raw := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if raw != "" {
        hash := utils.HashRefreshRaw(raw)
        if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }

    uid, ok := h.bearerUserID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide refresh_token or Authorization header"})
    }
    if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile. Students additionally
// get their registrations with the course data populated.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }

    resp := echo.Map{"user": toUserPart(u)}
    if u.Role == model.RoleStudent {
        regs, err := h.Regs.ListByStudent(ctx, uid)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load registrations failed"})
        }
        resp["registrations"] = regs
    }
    return c.JSON(http.StatusOK, resp)
}

// CreateUser creates a student or admin account. Admin only.
func (h *AuthHandler) CreateUser(c echo.Context) error {
    var req createUserReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.RollNumber = strings.ToUpper(strings.TrimSpace(req.RollNumber))
    req.Name = strings.TrimSpace(req.Name)
    if req.RollNumber == "" || req.Name == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "roll_number/name/password required"})
    }
    role := strings.ToUpper(strings.TrimSpace(req.Role))
    if role == "" {
        role = model.RoleStudent
    }
    if role != model.RoleStudent && role != model.RoleAdmin {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be STUDENT or ADMIN"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.RollNumber, req.Name, req.Password, role, h.Cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrRollNumberExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "roll number already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }
    return c.JSON(http.StatusCreated, userPart{ID: uid, RollNumber: req.RollNumber, Name: req.Name, Role: role})
}

// bearerUserID extracts the user ID from a Bearer access token in the
// Authorization header. Logout lives outside the JWT middleware so it
// resolves the identity itself.
func (h *AuthHandler) bearerUserID(c echo.Context) (uint64, bool) {
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return 0, false
    }
    tok, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, echo.ErrUnauthorized
        }
        return []byte(h.Cfg.JWTSecret), nil
    })
    if err != nil || !tok.Valid {
        return 0, false
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return 0, false
    }
    if sub, ok := claims["sub"].(float64); ok && sub > 0 {
        return uint64(sub), true
    }
    return 0, false
}

// issuePair signs an access token, mints and stores a refresh token and
// writes the standard auth response.
func (h *AuthHandler) issuePair(c echo.Context, ctx context.Context, u model.User, status int) error {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }
    return c.JSON(status, authResp{
        User:    toUserPart(u),
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    })
}
