package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/errors"
)

// Account represents a login account tied to an employee.
type Account struct {
	ID           string    `db:"id" json:"id"`
	EmployeeID   *string   `db:"employee_id" json:"employee_id,omitempty"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AccountRepository handles account data access
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByEmail retrieves an account by email address
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	var account Account
	query := `
		SELECT id, employee_id, email, password_hash, role, active, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`

	err := r.db.GetContext(ctx, &account, query, email)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("account")
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	var account Account
	query := `
		SELECT id, employee_id, email, password_hash, role, active, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &account, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("account")
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (id, employee_id, email, password_hash, role, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		account.ID, account.EmployeeID, account.Email,
		account.PasswordHash, account.Role, account.Active,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return database.MapPQError(pqErr)
		}
		return err
	}

	return nil
}

// UpdatePassword replaces the stored password hash
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE accounts SET password_hash = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("account")
	}

	return nil
}
