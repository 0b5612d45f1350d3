package sharing

import (
	"context"
	"database/sql"
	"io"
	"testing"

	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/sharing/sharingtest"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return sharingtest.OpenDB(t)
}

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewStore(setupTestDB(t)), nil, testLogger())
}

// seedDomain creates a domain through the service so owner permission
// provisioning runs.
func seedDomain(t *testing.T, svc *Service, domainID string) {
	t.Helper()
	err := svc.CreateDomain(context.Background(), &Domain{
		DomainID:    domainID,
		Name:        domainID,
		Description: "test domain",
	})
	if err != nil {
		t.Fatalf("Failed to seed domain %s: %v", domainID, err)
	}
}

func seedUser(t *testing.T, svc *Service, domainID, userID string) {
	t.Helper()
	err := svc.CreateUser(context.Background(), &User{
		UserID:   userID,
		DomainID: domainID,
		UserName: userID,
	})
	if err != nil {
		t.Fatalf("Failed to seed user %s: %v", userID, err)
	}
}

func seedGroup(t *testing.T, svc *Service, domainID, groupID, ownerID string) {
	t.Helper()
	err := svc.CreateGroup(context.Background(), &UserGroup{
		GroupID:  groupID,
		DomainID: domainID,
		Name:     groupID,
		OwnerID:  ownerID,
	})
	if err != nil {
		t.Fatalf("Failed to seed group %s: %v", groupID, err)
	}
}

func seedEntityType(t *testing.T, svc *Service, domainID, entityTypeID string) {
	t.Helper()
	err := svc.CreateEntityType(context.Background(), &EntityType{
		EntityTypeID: entityTypeID,
		DomainID:     domainID,
		Name:         entityTypeID,
	})
	if err != nil {
		t.Fatalf("Failed to seed entity type %s: %v", entityTypeID, err)
	}
}

func seedPermissionType(t *testing.T, svc *Service, domainID, permissionTypeID string) {
	t.Helper()
	err := svc.CreatePermissionType(context.Background(), &PermissionType{
		PermissionTypeID: permissionTypeID,
		DomainID:         domainID,
		Name:             permissionTypeID,
	})
	if err != nil {
		t.Fatalf("Failed to seed permission type %s: %v", permissionTypeID, err)
	}
}

func seedEntity(t *testing.T, svc *Service, entity *Entity) {
	t.Helper()
	if err := svc.CreateEntity(context.Background(), entity); err != nil {
		t.Fatalf("Failed to seed entity %s: %v", entity.EntityID, err)
	}
}

func strPtr(s string) *string {
	return &s
}
