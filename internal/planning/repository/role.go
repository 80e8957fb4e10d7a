package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/errors"
)

// RoleGrant is one immutable versioned permission set for a role. The
// highest version per role is the active one.
type RoleGrant struct {
	ID          string    `db:"id" json:"id"`
	Role        string    `db:"role" json:"role"`
	Version     int       `db:"version" json:"version"`
	Permissions []string  `db:"-" json:"permissions"`
	RawPerms    []byte    `db:"permissions" json:"-"`
	GrantedBy   *string   `db:"granted_by" json:"granted_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func (g *RoleGrant) decode() error {
	if g.RawPerms == nil {
		g.Permissions = nil
		return nil
	}
	return json.Unmarshal(g.RawPerms, &g.Permissions)
}

// RoleRepository handles versioned role permission grants
type RoleRepository struct {
	db *database.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *database.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// GetActive returns the highest-version grant for a role
func (r *RoleRepository) GetActive(ctx context.Context, role string) (*RoleGrant, error) {
	var grant RoleGrant
	query := `
		SELECT id, role, version, permissions, granted_by, created_at
		FROM role_permissions
		WHERE role = $1
		ORDER BY version DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &grant, query, role)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("role grant")
	}
	if err != nil {
		return nil, err
	}
	if err := grant.decode(); err != nil {
		return nil, errors.Internal("malformed permissions for role " + role)
	}

	return &grant, nil
}

// ListActive returns the active grant of every known role
func (r *RoleRepository) ListActive(ctx context.Context) ([]*RoleGrant, error) {
	var grants []*RoleGrant
	query := `
		SELECT DISTINCT ON (role) id, role, version, permissions, granted_by, created_at
		FROM role_permissions
		ORDER BY role, version DESC
	`
	if err := r.db.SelectContext(ctx, &grants, query); err != nil {
		return nil, err
	}

	for _, grant := range grants {
		if err := grant.decode(); err != nil {
			return nil, errors.Internal("malformed permissions for role " + grant.Role)
		}
	}

	return grants, nil
}

// Append writes a new grant version for the role. Existing versions are
// never mutated, so the permission history stays auditable.
func (r *RoleRepository) Append(ctx context.Context, role string, permissions []string, grantedBy *string) (*RoleGrant, error) {
	raw, err := json.Marshal(permissions)
	if err != nil {
		return nil, errors.Internal("failed to encode permissions")
	}

	grant := &RoleGrant{
		ID:          uuid.New().String(),
		Role:        role,
		Permissions: permissions,
		RawPerms:    raw,
		GrantedBy:   grantedBy,
	}

	query := `
		INSERT INTO role_permissions (id, role, version, permissions, granted_by)
		VALUES ($1, $2, COALESCE((SELECT MAX(version) FROM role_permissions WHERE role = $2), 0) + 1, $3, $4)
		RETURNING version, created_at
	`
	err = r.db.QueryRowxContext(ctx, query, grant.ID, role, raw, grantedBy).
		Scan(&grant.Version, &grant.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return nil, database.MapPQError(pqErr)
		}
		return nil, err
	}

	return grant, nil
}
