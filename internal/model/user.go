package model

import "time"

// Roles stored in users.role and carried in the JWT "role" claim.
const (
    RoleStudent = "STUDENT"
    RoleAdmin   = "ADMIN"
)

// User represents an account as stored in the `users` table.  Students
// authenticate with their roll number; admins use the same credential
// field.  The registered course list is not embedded here: it is the
// set of rows in the registrations table owned by this user and is
// loaded by the repository when a populated profile is requested.
//
// Fields:
//  ID           - primary key identifier.
//  RollNumber   - unique institutional identifier used to log in.
//  Name         - display name.
//  PasswordHash - bcrypt hashed password.
//  Role         - STUDENT or ADMIN.
//  IsActive     - whether the account may log in.
//  CreatedAt    - timestamp of creation.
//  UpdatedAt    - timestamp of last update.
type User struct {
    ID           uint64    `json:"id"`
    RollNumber   string    `json:"roll_number"`
    Name         string    `json:"name"`
    PasswordHash string    `json:"-"`
    Role         string    `json:"role"`
    IsActive     bool      `json:"is_active"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models a row in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored; the raw value goes back to
// the client once and is never persisted.
//
// Fields:
//  ID        - primary key identifier.
//  UserID    - owner of the token.
//  TokenHash - SHA-256 hex digest of the raw token.
//  ExpiresAt - expiration timestamp.
//  RevokedAt - when the token was revoked (nil while active).
//  CreatedAt - timestamp of creation.
type RefreshToken struct {
    ID        uint64
    UserID    uint64
    TokenHash string
    ExpiresAt time.Time
    RevokedAt *time.Time
    CreatedAt time.Time
}
