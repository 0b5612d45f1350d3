package sharing

import (
	"context"
	"testing"
)

// buildEntityForest seeds a domain with a two-level forest:
//
//	test-project-1
//	  └── test-experiment-1
//	test-project-2
func buildEntityForest(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	seedStoreDomain(t, store, "tenant-a")

	entities := []Entity{
		{EntityID: "test-project-1", EntityTypeID: "tenant-a:PROJECT", OwnerID: "test-user-1", Name: "P1"},
		{EntityID: "test-experiment-1", EntityTypeID: "tenant-a:EXPERIMENT", OwnerID: "test-user-1", Name: "E1", ParentEntityID: strPtr("test-project-1")},
		{EntityID: "test-project-2", EntityTypeID: "tenant-a:PROJECT", OwnerID: "test-user-1", Name: "P2"},
	}
	for _, e := range entities {
		e.DomainID = "tenant-a"
		e.OriginalEntityCreationTime = 1
		e.CreatedTime = 1
		e.UpdatedTime = 1
		entity := e
		if err := store.CreateEntity(ctx, &entity); err != nil {
			t.Fatalf("Failed to create entity %s: %v", e.EntityID, err)
		}
	}
}

func addGrant(t *testing.T, store *Store, entityID, groupID, permissionTypeID string, grantType GrantType) {
	t.Helper()
	_, err := store.UpsertGrant(context.Background(), &SharingGrant{
		DomainID: "tenant-a", EntityID: entityID, GroupID: groupID,
		PermissionTypeID: permissionTypeID, GrantType: grantType,
		CreatedTime: 1, UpdatedTime: 1,
	})
	if err != nil {
		t.Fatalf("Failed to add grant on %s for %s: %v", entityID, groupID, err)
	}
}

func newEngine(store *Store) *PermissionEngine {
	return NewPermissionEngine(store, NewGroupResolver(store), nil)
}

func TestPermissionEngine_DirectGrant(t *testing.T) {
	store := NewStore(setupTestDB(t))
	buildEntityForest(t, store)
	engine := newEngine(store)
	ctx := context.Background()

	addGrant(t, store, "test-project-1", "test-user-2", "tenant-a:READ", GrantDirectNonCascading)

	allowed, err := engine.UserHasAccess(ctx, "tenant-a", "test-user-2", "test-project-1", "tenant-a:READ")
	if err != nil || !allowed {
		t.Errorf("Expected access through direct grant, got %v, %v", allowed, err)
	}

	allowed, err = engine.UserHasAccess(ctx, "tenant-a", "test-user-2", "test-project-1", "tenant-a:WRITE")
	if err != nil || allowed {
		t.Errorf("Expected no WRITE access, got %v, %v", allowed, err)
	}

	allowed, err = engine.UserHasAccess(ctx, "tenant-a", "test-user-3", "test-project-1", "tenant-a:READ")
	if err != nil || allowed {
		t.Errorf("Expected no access for unrelated user, got %v, %v", allowed, err)
	}
}

func TestPermissionEngine_CascadingInheritance(t *testing.T) {
	store := NewStore(setupTestDB(t))
	buildEntityForest(t, store)
	engine := newEngine(store)
	ctx := context.Background()

	addGrant(t, store, "test-project-1", "test-user-2", "tenant-a:READ", GrantDirectCascading)
	addGrant(t, store, "test-project-1", "test-user-3", "tenant-a:READ", GrantDirectNonCascading)

	t.Run("cascading grant reaches the child", func(t *testing.T) {
		allowed, err := engine.UserHasAccess(ctx, "tenant-a", "test-user-2", "test-experiment-1", "tenant-a:READ")
		if err != nil || !allowed {
			t.Errorf("Expected inherited access, got %v, %v", allowed, err)
		}
	})

	t.Run("non-cascading grant stops at the entity", func(t *testing.T) {
		allowed, err := engine.UserHasAccess(ctx, "tenant-a", "test-user-3", "test-project-1", "tenant-a:READ")
		if err != nil || !allowed {
			t.Errorf("Expected direct access, got %v, %v", allowed, err)
		}
		allowed, err = engine.UserHasAccess(ctx, "tenant-a", "test-user-3", "test-experiment-1", "tenant-a:READ")
		if err != nil || allowed {
			t.Errorf("Expected no inherited access, got %v, %v", allowed, err)
		}
	})

	t.Run("sibling tree is unaffected", func(t *testing.T) {
		allowed, err := engine.UserHasAccess(ctx, "tenant-a", "test-user-2", "test-project-2", "tenant-a:READ")
		if err != nil || allowed {
			t.Errorf("Expected no access on sibling root, got %v, %v", allowed, err)
		}
	})
}

func TestPermissionEngine_OwnerPermissionImpliesAll(t *testing.T) {
	store := NewStore(setupTestDB(t))
	buildEntityForest(t, store)
	engine := newEngine(store)
	ctx := context.Background()

	addGrant(t, store, "test-project-1", "test-user-1", OwnerPermissionTypeID("tenant-a"), GrantDirectCascading)

	for _, permission := range []string{"tenant-a:READ", "tenant-a:WRITE", "tenant-a:MANAGE_SHARING"} {
		allowed, err := engine.UserHasAccess(ctx, "tenant-a", "test-user-1", "test-project-1", permission)
		if err != nil || !allowed {
			t.Errorf("Expected owner to hold %s, got %v, %v", permission, allowed, err)
		}
	}

	// The cascading owner grant reaches descendants too.
	allowed, err := engine.UserHasAccess(ctx, "tenant-a", "test-user-1", "test-experiment-1", "tenant-a:WRITE")
	if err != nil || !allowed {
		t.Errorf("Expected owner access on child, got %v, %v", allowed, err)
	}
}

func TestPermissionEngine_GroupGrant(t *testing.T) {
	store := NewStore(setupTestDB(t))
	buildEntityForest(t, store)
	buildGroupGraph(t, store)
	engine := newEngine(store)
	ctx := context.Background()

	// Granting to the top-level group reaches users of nested groups.
	addGrant(t, store, "test-project-1", "all-staff", "tenant-a:READ", GrantDirectNonCascading)

	for _, userID := range []string{"test-user-1", "test-user-2"} {
		allowed, err := engine.UserHasAccess(ctx, "tenant-a", userID, "test-project-1", "tenant-a:READ")
		if err != nil || !allowed {
			t.Errorf("Expected %s to have access through group nesting, got %v, %v", userID, allowed, err)
		}
	}

	allowed, err := engine.UserHasAccess(ctx, "tenant-a", "test-user-9", "test-project-1", "tenant-a:READ")
	if err != nil || allowed {
		t.Errorf("Expected outsider to have no access, got %v, %v", allowed, err)
	}
}

func TestPermissionEngine_ReparentChangesInheritance(t *testing.T) {
	store := NewStore(setupTestDB(t))
	buildEntityForest(t, store)
	engine := newEngine(store)
	ctx := context.Background()

	addGrant(t, store, "test-project-1", "test-user-2", "tenant-a:READ", GrantDirectCascading)
	addGrant(t, store, "test-project-2", "test-user-3", "tenant-a:READ", GrantDirectCascading)

	entity, err := store.GetEntity(ctx, "tenant-a", "test-experiment-1")
	if err != nil {
		t.Fatalf("GetEntity failed: %v", err)
	}
	entity.ParentEntityID = strPtr("test-project-2")
	if err := store.UpdateEntity(ctx, entity); err != nil {
		t.Fatalf("UpdateEntity failed: %v", err)
	}

	allowed, err := engine.UserHasAccess(ctx, "tenant-a", "test-user-2", "test-experiment-1", "tenant-a:READ")
	if err != nil || allowed {
		t.Errorf("Expected access through old parent to be gone, got %v, %v", allowed, err)
	}
	allowed, err = engine.UserHasAccess(ctx, "tenant-a", "test-user-3", "test-experiment-1", "tenant-a:READ")
	if err != nil || !allowed {
		t.Errorf("Expected access through new parent, got %v, %v", allowed, err)
	}
}

func TestPermissionEngine_GrantsReachingEntity(t *testing.T) {
	store := NewStore(setupTestDB(t))
	buildEntityForest(t, store)
	engine := newEngine(store)
	ctx := context.Background()

	addGrant(t, store, "test-project-1", "group-cascading", "tenant-a:READ", GrantDirectCascading)
	addGrant(t, store, "test-project-1", "group-local", "tenant-a:READ", GrantDirectNonCascading)
	addGrant(t, store, "test-experiment-1", "group-direct", "tenant-a:WRITE", GrantDirectNonCascading)

	t.Run("direct only", func(t *testing.T) {
		grants, err := engine.GrantsReachingEntity(ctx, "tenant-a", "test-experiment-1", true)
		if err != nil || len(grants) != 1 || grants[0].GroupID != "group-direct" {
			t.Errorf("Direct grants = %v, %v", grants, err)
		}
	})

	t.Run("includes cascading ancestors", func(t *testing.T) {
		grants, err := engine.GrantsReachingEntity(ctx, "tenant-a", "test-experiment-1", false)
		if err != nil {
			t.Fatalf("GrantsReachingEntity failed: %v", err)
		}
		groups := make(map[string]bool)
		for _, g := range grants {
			groups[g.GroupID] = true
		}
		if !groups["group-direct"] || !groups["group-cascading"] {
			t.Errorf("Expected direct and cascading grants, got %v", grants)
		}
		if groups["group-local"] {
			t.Errorf("Non-cascading ancestor grant should not reach the child: %v", grants)
		}
	})
}

func TestPermissionEngine_WouldCycleEntity(t *testing.T) {
	store := NewStore(setupTestDB(t))
	buildEntityForest(t, store)
	engine := newEngine(store)
	ctx := context.Background()

	t.Run("self parent", func(t *testing.T) {
		cycle, err := engine.WouldCycleEntity(ctx, "tenant-a", "test-project-1", "test-project-1")
		if err != nil || !cycle {
			t.Errorf("Expected cycle, got %v, %v", cycle, err)
		}
	})

	t.Run("descendant as parent", func(t *testing.T) {
		cycle, err := engine.WouldCycleEntity(ctx, "tenant-a", "test-project-1", "test-experiment-1")
		if err != nil || !cycle {
			t.Errorf("Expected cycle, got %v, %v", cycle, err)
		}
	})

	t.Run("unrelated parent", func(t *testing.T) {
		cycle, err := engine.WouldCycleEntity(ctx, "tenant-a", "test-experiment-1", "test-project-2")
		if err != nil || cycle {
			t.Errorf("Expected no cycle, got %v, %v", cycle, err)
		}
	})
}
