package service

import (
	"context"
	"sync"

	"github.com/planora/planora-backend/internal/planning/events"
	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/pkg/errors"
	"github.com/planora/planora-backend/pkg/logger"
	"github.com/planora/planora-backend/pkg/permissions"
)

// AccessService resolves and manages role permission grants. Active grants
// are cached in memory; the cache is invalidated locally on writes and
// across instances via the role permissions changed event.
type AccessService struct {
	roles     *repository.RoleRepository
	publisher *events.PlanningEventPublisher
	logger    *logger.Logger

	mu    sync.RWMutex
	cache map[string][]string
}

// NewAccessService creates a new access service
func NewAccessService(roles *repository.RoleRepository, publisher *events.PlanningEventPublisher, log *logger.Logger) *AccessService {
	return &AccessService{
		roles:     roles,
		publisher: publisher,
		logger:    log,
		cache:     map[string][]string{},
	}
}

// GetActivePermissions returns the permission set of the role's highest
// grant version. Roles without any grant resolve to no permissions.
func (s *AccessService) GetActivePermissions(ctx context.Context, role string) ([]string, error) {
	s.mu.RLock()
	cached, ok := s.cache[role]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	grant, err := s.roles.GetActive(ctx, role)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.cache[role] = grant.Permissions
	s.mu.Unlock()

	return grant.Permissions, nil
}

// Invalidate drops a role's cached permissions. Called on permission change
// events from other instances.
func (s *AccessService) Invalidate(role string) {
	s.mu.Lock()
	delete(s.cache, role)
	s.mu.Unlock()
}

// AssignRequest sets the full permission list of a role
type AssignRequest struct {
	Role        string   `json:"role" validate:"required,max=50"`
	Permissions []string `json:"permissions" validate:"required,min=1,dive,required"`
}

// Assign appends a new grant version holding exactly the given permissions
func (s *AccessService) Assign(ctx context.Context, req *AssignRequest, actorID string) (*repository.RoleGrant, error) {
	for _, perm := range req.Permissions {
		if !permissions.IsValidPermission(perm) {
			return nil, errors.BadRequest("unknown permission: " + perm)
		}
	}

	grant, err := s.roles.Append(ctx, req.Role, req.Permissions, &actorID)
	if err != nil {
		return nil, err
	}

	s.Invalidate(req.Role)

	s.logger.Info().
		Str("role", req.Role).
		Int("version", grant.Version).
		Msg("role permissions assigned")

	s.publisher.PublishRolePermissionsChanged(ctx, req.Role, grant.Version, actorID)

	return grant, nil
}

// Revoke appends a new grant version with the given permissions removed
func (s *AccessService) Revoke(ctx context.Context, role string, revoked []string, actorID string) (*repository.RoleGrant, error) {
	active, err := s.roles.GetActive(ctx, role)
	if err != nil {
		return nil, err
	}

	remaining := permissions.RemovePermissions(active.Permissions, revoked)
	grant, err := s.roles.Append(ctx, role, remaining, &actorID)
	if err != nil {
		return nil, err
	}

	s.Invalidate(role)

	s.logger.Info().
		Str("role", role).
		Int("version", grant.Version).
		Msg("role permissions revoked")

	s.publisher.PublishRolePermissionsChanged(ctx, role, grant.Version, actorID)

	return grant, nil
}

// ListGrants returns the active grant of every role
func (s *AccessService) ListGrants(ctx context.Context) ([]*repository.RoleGrant, error) {
	return s.roles.ListActive(ctx)
}
