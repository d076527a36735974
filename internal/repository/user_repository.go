package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/course-registration/internal/model"
    "github.com/iliyamo/course-registration/internal/utils"
)

// UserRepo manages persistence for user accounts.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes the password and inserts a user, returning its ID. The
// roll number is normalized to upper case; a duplicate yields
// ErrRollNumberExists.
func (r *UserRepo) Create(ctx context.Context, rollNumber, name, password, role string, cost int) (uint64, error) {
    rollNumber = strings.ToUpper(strings.TrimSpace(rollNumber))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (roll_number, name, password_hash, role) VALUES (?,?,?,?)",
        rollNumber, name, hash, role)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return 0, ErrRollNumberExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByRollNumber fetches a user by normalized roll number.
func (r *UserRepo) GetByRollNumber(ctx context.Context, rollNumber string) (model.User, error) {
    rollNumber = strings.ToUpper(strings.TrimSpace(rollNumber))
    var u model.User
    err := r.DB.QueryRowContext(ctx,
        "SELECT id,roll_number,name,password_hash,role,is_active,created_at,updated_at FROM users WHERE roll_number=? LIMIT 1",
        rollNumber).Scan(&u.ID, &u.RollNumber, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    var u model.User
    err := r.DB.QueryRowContext(ctx,
        "SELECT id,roll_number,name,password_hash,role,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
        id).Scan(&u.ID, &u.RollNumber, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    return u, err
}

// AdminExists reports whether any admin account exists. Used by the
// seed endpoint to stay idempotent.
func (r *UserRepo) AdminExists(ctx context.Context) (bool, error) {
    var id uint64
    err := r.DB.QueryRowContext(ctx,
        "SELECT id FROM users WHERE role=? LIMIT 1", model.RoleAdmin).Scan(&id)
    if errors.Is(err, sql.ErrNoRows) {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}
