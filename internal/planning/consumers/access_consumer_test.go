package consumers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/planora-backend/internal/planning/events"
	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/logger"
	"github.com/planora/planora-backend/pkg/messaging"
	"github.com/planora/planora-backend/pkg/testutil"
)

func expectActiveGrant(mockDB *testutil.MockDB, role string, version int, perms string) {
	rows := testutil.MockRows("id", "role", "version", "permissions", "granted_by", "created_at").
		AddRow("grant-1", role, version, []byte(perms), nil, time.Now())
	mockDB.ExpectQuery("SELECT id, role, version, permissions, granted_by, created_at").
		WithArgs(role).
		WillReturnRows(rows)
}

func TestAccessEventConsumer_InvalidatesCachedRole(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	log := logger.Nop()
	access := service.NewAccessService(
		repository.NewRoleRepository(mockDB.DB),
		events.NewPlanningEventPublisherWithSink(testutil.NewMockPublisher(), log),
		log,
	)

	ctx := context.Background()

	// Prime the cache; the repeated read must not hit the database.
	expectActiveGrant(mockDB, "planner", 1, `["planning.read"]`)
	perms, err := access.GetActivePermissions(ctx, "planner")
	require.NoError(t, err)
	assert.Equal(t, []string{"planning.read"}, perms)

	perms, err = access.GetActivePermissions(ctx, "planner")
	require.NoError(t, err)
	assert.Equal(t, []string{"planning.read"}, perms)

	c := &AccessEventConsumer{access: access, logger: log}

	data, err := json.Marshal(messaging.RolePermissionsChangedEvent{Role: "planner", Version: 2})
	require.NoError(t, err)
	event := &messaging.Event{Type: messaging.EventRolePermissionsChanged, Data: data}

	require.NoError(t, c.handleRolePermissionsChanged(ctx, event))

	// After invalidation the next read reloads the grant.
	expectActiveGrant(mockDB, "planner", 2, `["planning.read","planning.write"]`)
	perms, err = access.GetActivePermissions(ctx, "planner")
	require.NoError(t, err)
	assert.Equal(t, []string{"planning.read", "planning.write"}, perms)

	mockDB.ExpectationsWereMet(t)
}

func TestAccessEventConsumer_MalformedData(t *testing.T) {
	c := &AccessEventConsumer{logger: logger.Nop()}

	event := &messaging.Event{Type: messaging.EventRolePermissionsChanged, Data: []byte(`{`)}
	assert.Error(t, c.handleRolePermissionsChanged(context.Background(), event))
}
