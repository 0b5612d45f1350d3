package sharing

import (
	"context"
	"testing"
)

func TestStore_DomainCRUD(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	domain := &Domain{
		DomainID:    "tenant-a",
		Name:        "Tenant A",
		Description: "first tenant",
		CreatedTime: 1000,
		UpdatedTime: 1000,
	}

	t.Run("create and get", func(t *testing.T) {
		if err := store.CreateDomain(ctx, domain); err != nil {
			t.Fatalf("CreateDomain failed: %v", err)
		}

		got, err := store.GetDomain(ctx, "tenant-a")
		if err != nil {
			t.Fatalf("GetDomain failed: %v", err)
		}
		if got.Name != "Tenant A" {
			t.Errorf("Expected name 'Tenant A', got %s", got.Name)
		}
		if got.InitialUserGroupID != nil {
			t.Errorf("Expected nil initial user group, got %v", *got.InitialUserGroupID)
		}
	})

	t.Run("duplicate create", func(t *testing.T) {
		err := store.CreateDomain(ctx, domain)
		if !IsDuplicateEntry(err) {
			t.Errorf("Expected DuplicateEntryError, got %v", err)
		}
	})

	t.Run("exists", func(t *testing.T) {
		exists, err := store.DomainExists(ctx, "tenant-a")
		if err != nil || !exists {
			t.Errorf("Expected domain to exist, got %v, %v", exists, err)
		}
		exists, err = store.DomainExists(ctx, "tenant-b")
		if err != nil || exists {
			t.Errorf("Expected domain to not exist, got %v, %v", exists, err)
		}
	})

	t.Run("update", func(t *testing.T) {
		domain.Description = "renamed"
		domain.InitialUserGroupID = strPtr("everyone")
		if err := store.UpdateDomain(ctx, domain); err != nil {
			t.Fatalf("UpdateDomain failed: %v", err)
		}
		got, err := store.GetDomain(ctx, "tenant-a")
		if err != nil {
			t.Fatalf("GetDomain failed: %v", err)
		}
		if got.Description != "renamed" {
			t.Errorf("Expected description 'renamed', got %s", got.Description)
		}
		if got.InitialUserGroupID == nil || *got.InitialUserGroupID != "everyone" {
			t.Errorf("Expected initial user group 'everyone', got %v", got.InitialUserGroupID)
		}
	})

	t.Run("update missing", func(t *testing.T) {
		err := store.UpdateDomain(ctx, &Domain{DomainID: "no-such", Name: "x"})
		if !IsNotFound(err) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})

	t.Run("list", func(t *testing.T) {
		if err := store.CreateDomain(ctx, &Domain{DomainID: "tenant-b", Name: "B", CreatedTime: 1, UpdatedTime: 1}); err != nil {
			t.Fatalf("CreateDomain failed: %v", err)
		}
		domains, err := store.ListDomains(ctx, 0, -1)
		if err != nil {
			t.Fatalf("ListDomains failed: %v", err)
		}
		if len(domains) != 2 {
			t.Fatalf("Expected 2 domains, got %d", len(domains))
		}
		if domains[0].DomainID != "tenant-a" || domains[1].DomainID != "tenant-b" {
			t.Errorf("Expected ordered ids, got %s, %s", domains[0].DomainID, domains[1].DomainID)
		}

		page, err := store.ListDomains(ctx, 1, 1)
		if err != nil {
			t.Fatalf("ListDomains with pagination failed: %v", err)
		}
		if len(page) != 1 || page[0].DomainID != "tenant-b" {
			t.Errorf("Expected paginated result [tenant-b], got %v", page)
		}

		// An offset without a limit is still a valid page.
		rest, err := store.ListDomains(ctx, 1, -1)
		if err != nil {
			t.Fatalf("ListDomains with offset only failed: %v", err)
		}
		if len(rest) != 1 || rest[0].DomainID != "tenant-b" {
			t.Errorf("Expected offset-only result [tenant-b], got %v", rest)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.DeleteDomain(ctx, "tenant-b"); err != nil {
			t.Fatalf("DeleteDomain failed: %v", err)
		}
		if err := store.DeleteDomain(ctx, "tenant-b"); !IsNotFound(err) {
			t.Errorf("Expected NotFoundError on second delete, got %v", err)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.GetDomain(ctx, "tenant-b")
		if !IsNotFound(err) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})
}

func TestStore_UserCRUD(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	if err := store.CreateDomain(ctx, &Domain{DomainID: "tenant-a", Name: "A", CreatedTime: 1, UpdatedTime: 1}); err != nil {
		t.Fatalf("CreateDomain failed: %v", err)
	}

	user := &User{
		UserID:      "test-user-1",
		DomainID:    "tenant-a",
		UserName:    "testuser",
		Email:       strPtr("test@example.com"),
		CreatedTime: 1000,
		UpdatedTime: 1000,
	}

	t.Run("create and get", func(t *testing.T) {
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		got, err := store.GetUser(ctx, "tenant-a", "test-user-1")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if got.UserName != "testuser" {
			t.Errorf("Expected user name 'testuser', got %s", got.UserName)
		}
		if got.Email == nil || *got.Email != "test@example.com" {
			t.Errorf("Expected email, got %v", got.Email)
		}
		if got.FirstName != nil {
			t.Errorf("Expected nil first name, got %v", *got.FirstName)
		}
	})

	t.Run("duplicate create", func(t *testing.T) {
		if err := store.CreateUser(ctx, user); !IsDuplicateEntry(err) {
			t.Errorf("Expected DuplicateEntryError, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		user.FirstName = strPtr("Test")
		user.LastName = strPtr("User")
		if err := store.UpdateUser(ctx, user); err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}
		got, err := store.GetUser(ctx, "tenant-a", "test-user-1")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if got.FirstName == nil || *got.FirstName != "Test" {
			t.Errorf("Expected first name 'Test', got %v", got.FirstName)
		}
	})

	t.Run("list scoped to domain", func(t *testing.T) {
		if err := store.CreateDomain(ctx, &Domain{DomainID: "tenant-b", Name: "B", CreatedTime: 1, UpdatedTime: 1}); err != nil {
			t.Fatalf("CreateDomain failed: %v", err)
		}
		if err := store.CreateUser(ctx, &User{UserID: "test-user-2", DomainID: "tenant-b", UserName: "other", CreatedTime: 1, UpdatedTime: 1}); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		users, err := store.ListUsers(ctx, "tenant-a", 0, -1)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 1 || users[0].UserID != "test-user-1" {
			t.Errorf("Expected only tenant-a users, got %v", users)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.DeleteUser(ctx, "tenant-a", "test-user-1"); err != nil {
			t.Fatalf("DeleteUser failed: %v", err)
		}
		if err := store.DeleteUser(ctx, "tenant-a", "test-user-1"); !IsNotFound(err) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})
}

func TestStore_GroupCRUD(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	if err := store.CreateDomain(ctx, &Domain{DomainID: "tenant-a", Name: "A", CreatedTime: 1, UpdatedTime: 1}); err != nil {
		t.Fatalf("CreateDomain failed: %v", err)
	}

	group := &UserGroup{
		GroupID:          "research-lab",
		DomainID:         "tenant-a",
		Name:             "Research Lab",
		OwnerID:          "test-user-1",
		GroupType:        GroupTypeDomainLevel,
		GroupCardinality: CardinalityMultiUser,
		CreatedTime:      1000,
		UpdatedTime:      1000,
	}

	t.Run("create and get", func(t *testing.T) {
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		got, err := store.GetGroup(ctx, "tenant-a", "research-lab")
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "Research Lab" || got.GroupCardinality != CardinalityMultiUser {
			t.Errorf("Unexpected group: %+v", got)
		}
	})

	t.Run("duplicate create", func(t *testing.T) {
		if err := store.CreateGroup(ctx, group); !IsDuplicateEntry(err) {
			t.Errorf("Expected DuplicateEntryError, got %v", err)
		}
	})

	t.Run("admins", func(t *testing.T) {
		if err := store.AddGroupAdmin(ctx, "tenant-a", "research-lab", "test-user-2"); err != nil {
			t.Fatalf("AddGroupAdmin failed: %v", err)
		}
		if err := store.AddGroupAdmin(ctx, "tenant-a", "research-lab", "test-user-2"); !IsDuplicateEntry(err) {
			t.Errorf("Expected DuplicateEntryError, got %v", err)
		}

		isAdmin, err := store.IsGroupAdmin(ctx, "tenant-a", "research-lab", "test-user-2")
		if err != nil || !isAdmin {
			t.Errorf("Expected admin, got %v, %v", isAdmin, err)
		}

		admins, err := store.ListGroupAdmins(ctx, "tenant-a", "research-lab")
		if err != nil || len(admins) != 1 || admins[0] != "test-user-2" {
			t.Errorf("Expected [test-user-2], got %v, %v", admins, err)
		}

		if err := store.RemoveGroupAdmin(ctx, "tenant-a", "research-lab", "test-user-2"); err != nil {
			t.Fatalf("RemoveGroupAdmin failed: %v", err)
		}
		// Removing again is a no-op.
		if err := store.RemoveGroupAdmin(ctx, "tenant-a", "research-lab", "test-user-2"); err != nil {
			t.Errorf("Expected no-op remove, got %v", err)
		}
	})

	t.Run("transfer owner demotes new owner from admins", func(t *testing.T) {
		if err := store.AddGroupAdmin(ctx, "tenant-a", "research-lab", "test-user-3"); err != nil {
			t.Fatalf("AddGroupAdmin failed: %v", err)
		}
		if err := store.TransferGroupOwner(ctx, "tenant-a", "research-lab", "test-user-3"); err != nil {
			t.Fatalf("TransferGroupOwner failed: %v", err)
		}
		got, err := store.GetGroup(ctx, "tenant-a", "research-lab")
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.OwnerID != "test-user-3" {
			t.Errorf("Expected owner test-user-3, got %s", got.OwnerID)
		}
		isAdmin, err := store.IsGroupAdmin(ctx, "tenant-a", "research-lab", "test-user-3")
		if err != nil || isAdmin {
			t.Errorf("Expected new owner demoted from admins, got %v, %v", isAdmin, err)
		}
	})

	t.Run("memberships", func(t *testing.T) {
		m := &GroupMembership{
			DomainID:      "tenant-a",
			ParentGroupID: "research-lab",
			ChildID:       "test-user-1",
			ChildType:     MemberTypeUser,
			CreatedTime:   1000,
		}
		if err := store.AddMembership(ctx, m); err != nil {
			t.Fatalf("AddMembership failed: %v", err)
		}
		if err := store.AddMembership(ctx, m); !IsDuplicateEntry(err) {
			t.Errorf("Expected DuplicateEntryError, got %v", err)
		}

		exists, err := store.MembershipExists(ctx, "tenant-a", "research-lab", "test-user-1")
		if err != nil || !exists {
			t.Errorf("Expected membership to exist, got %v, %v", exists, err)
		}

		members, err := store.ListMembers(ctx, "tenant-a", "research-lab", MemberTypeUser)
		if err != nil || len(members) != 1 {
			t.Fatalf("Expected 1 user member, got %v, %v", members, err)
		}
		groupsOnly, err := store.ListMembers(ctx, "tenant-a", "research-lab", MemberTypeGroup)
		if err != nil || len(groupsOnly) != 0 {
			t.Errorf("Expected no group members, got %v, %v", groupsOnly, err)
		}

		parents, err := store.ListParentGroups(ctx, "tenant-a", "test-user-1")
		if err != nil || len(parents) != 1 || parents[0] != "research-lab" {
			t.Errorf("Expected [research-lab], got %v, %v", parents, err)
		}

		if err := store.RemoveMembership(ctx, "tenant-a", "research-lab", "test-user-1"); err != nil {
			t.Fatalf("RemoveMembership failed: %v", err)
		}
	})

	t.Run("delete drops edges and grants", func(t *testing.T) {
		if err := store.AddGroupAdmin(ctx, "tenant-a", "research-lab", "test-user-4"); err != nil {
			t.Fatalf("AddGroupAdmin failed: %v", err)
		}
		if err := store.DeleteGroup(ctx, "tenant-a", "research-lab"); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := store.GetGroup(ctx, "tenant-a", "research-lab"); !IsNotFound(err) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
		admins, err := store.ListGroupAdmins(ctx, "tenant-a", "research-lab")
		if err != nil || len(admins) != 0 {
			t.Errorf("Expected no admins after delete, got %v, %v", admins, err)
		}
	})
}
