package sharing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/warden/pkg/observability"
)

// Service is the sharing registry facade. It owns the bootstrap side
// effects (owner permission types, single-user groups, owner grants) and
// enforces the catalog invariants; the API layer and the replication
// consumer both operate through it.
type Service struct {
	store    *Store
	resolver *GroupResolver
	engine   *PermissionEngine
	grants   *GrantManager
	search   *SearchEvaluator
	cache    *AccessCache
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewService wires a service over the given store. cache may be nil to
// disable access-check caching.
func NewService(store *Store, cache *AccessCache, logger *observability.Logger) *Service {
	resolver := NewGroupResolver(store)
	engine := NewPermissionEngine(store, resolver, cache)
	return &Service{
		store:    store,
		resolver: resolver,
		engine:   engine,
		grants:   NewGrantManager(store, cache),
		search:   NewSearchEvaluator(store, engine),
		cache:    cache,
		logger:   logger,
	}
}

// WithMetrics attaches catalog metrics to the service, its permission
// engine, and its store
func (s *Service) WithMetrics(m *observability.Metrics) *Service {
	s.metrics = m
	s.engine.metrics = m
	s.store.WithMetrics(m)
	return s
}

// Store exposes the underlying catalog store
func (s *Service) Store() *Store {
	return s.store
}

func (s *Service) countGrantMutation(operation string, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.GrantMutationsTotal.WithLabelValues(operation, status).Inc()
}

func (s *Service) invalidate(ctx context.Context, domainID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, domainID)
	}
}

// CreateDomain registers a tenant and provisions its owner permission
// type
func (s *Service) CreateDomain(ctx context.Context, domain *Domain) error {
	now := nowMillis()
	domain.CreatedTime = now
	domain.UpdatedTime = now
	if err := s.store.CreateDomain(ctx, domain); err != nil {
		return err
	}

	ownerPermission := &PermissionType{
		PermissionTypeID: OwnerPermissionTypeID(domain.DomainID),
		DomainID:         domain.DomainID,
		Name:             OwnerPermissionName,
		Description:      "GLOBAL permission to " + domain.DomainID,
		CreatedTime:      now,
		UpdatedTime:      now,
	}
	if err := s.store.CreatePermissionType(ctx, ownerPermission); err != nil {
		return fmt.Errorf("failed to provision owner permission for domain %s: %w", domain.DomainID, err)
	}

	s.logger.WithField("domain_id", domain.DomainID).Info("domain created")
	return nil
}

// UpdateDomain updates a domain's mutable fields
func (s *Service) UpdateDomain(ctx context.Context, domain *Domain) error {
	return s.store.UpdateDomain(ctx, domain)
}

// DeleteDomain removes a tenant and all of its records
func (s *Service) DeleteDomain(ctx context.Context, domainID string) error {
	if err := s.store.DeleteDomain(ctx, domainID); err != nil {
		return err
	}
	s.invalidate(ctx, domainID)
	return nil
}

// GetDomain retrieves a domain
func (s *Service) GetDomain(ctx context.Context, domainID string) (*Domain, error) {
	return s.store.GetDomain(ctx, domainID)
}

// GetDomains lists registered domains
func (s *Service) GetDomains(ctx context.Context, offset, limit int) ([]*Domain, error) {
	return s.store.ListDomains(ctx, offset, limit)
}

// IsDomainExists reports whether a domain id is registered
func (s *Service) IsDomainExists(ctx context.Context, domainID string) (bool, error) {
	return s.store.DomainExists(ctx, domainID)
}

// CreateUser registers a user and its single-user companion group. When
// the domain names an initial user group, the user joins it.
func (s *Service) CreateUser(ctx context.Context, user *User) error {
	domain, err := s.store.GetDomain(ctx, user.DomainID)
	if err != nil {
		return err
	}

	now := nowMillis()
	user.CreatedTime = now
	user.UpdatedTime = now
	if err := s.store.CreateUser(ctx, user); err != nil {
		return err
	}

	group := &UserGroup{
		GroupID:          user.UserID,
		DomainID:         user.DomainID,
		Name:             user.UserName,
		Description:      "user " + user.UserName + " group",
		OwnerID:          user.UserID,
		GroupType:        GroupTypeUserLevel,
		GroupCardinality: CardinalitySingleUser,
		CreatedTime:      now,
		UpdatedTime:      now,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return fmt.Errorf("failed to create single-user group for %s: %w", user.UserID, err)
	}
	if err := s.store.AddMembership(ctx, &GroupMembership{
		DomainID:      user.DomainID,
		ParentGroupID: user.UserID,
		ChildID:       user.UserID,
		ChildType:     MemberTypeUser,
		CreatedTime:   now,
	}); err != nil {
		return fmt.Errorf("failed to attach user %s to their group: %w", user.UserID, err)
	}

	if domain.InitialUserGroupID != nil && *domain.InitialUserGroupID != "" {
		err := s.store.AddMembership(ctx, &GroupMembership{
			DomainID:      user.DomainID,
			ParentGroupID: *domain.InitialUserGroupID,
			ChildID:       user.UserID,
			ChildType:     MemberTypeUser,
			CreatedTime:   now,
		})
		if err != nil && !IsDuplicateEntry(err) {
			return fmt.Errorf("failed to add user %s to initial group: %w", user.UserID, err)
		}
	}

	s.invalidate(ctx, user.DomainID)
	return nil
}

// UpdateUser updates a user's profile and keeps the single-user group
// name in sync
func (s *Service) UpdateUser(ctx context.Context, user *User) error {
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return err
	}

	group, err := s.store.GetGroup(ctx, user.DomainID, user.UserID)
	if err == nil && group.Name != user.UserName {
		group.Name = user.UserName
		if err := s.store.UpdateGroup(ctx, group); err != nil {
			return fmt.Errorf("failed to rename single-user group for %s: %w", user.UserID, err)
		}
	}
	return nil
}

// DeleteUser removes a user, its single-user group, its memberships and
// its grants
func (s *Service) DeleteUser(ctx context.Context, domainID, userID string) error {
	if err := s.store.DeleteUser(ctx, domainID, userID); err != nil {
		return err
	}
	if err := s.store.DeleteGroup(ctx, domainID, userID); err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete single-user group for %s: %w", userID, err)
	}

	// Drop the user's remaining membership edges in other groups.
	parents, err := s.store.ListParentGroups(ctx, domainID, userID)
	if err != nil {
		return err
	}
	for _, parentID := range parents {
		if err := s.store.RemoveMembership(ctx, domainID, parentID, userID); err != nil {
			return err
		}
	}

	s.invalidate(ctx, domainID)
	return nil
}

// GetUser retrieves a user
func (s *Service) GetUser(ctx context.Context, domainID, userID string) (*User, error) {
	return s.store.GetUser(ctx, domainID, userID)
}

// GetUsers lists a domain's users
func (s *Service) GetUsers(ctx context.Context, domainID string, offset, limit int) ([]*User, error) {
	return s.store.ListUsers(ctx, domainID, offset, limit)
}

// IsUserExists reports whether a user id is registered
func (s *Service) IsUserExists(ctx context.Context, domainID, userID string) (bool, error) {
	return s.store.UserExists(ctx, domainID, userID)
}

// CreateGroup registers a multi-user group with the owner as its first
// member. The cardinality is always multi-user; single-user groups exist
// only as companions created with their user.
func (s *Service) CreateGroup(ctx context.Context, group *UserGroup) error {
	ownerExists, err := s.store.UserExists(ctx, group.DomainID, group.OwnerID)
	if err != nil {
		return err
	}
	if !ownerExists {
		return &NotFoundError{Kind: "user", ID: group.OwnerID}
	}

	now := nowMillis()
	group.GroupCardinality = CardinalityMultiUser
	if group.GroupType == "" {
		group.GroupType = GroupTypeDomainLevel
	}
	group.CreatedTime = now
	group.UpdatedTime = now
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return err
	}

	if err := s.store.AddMembership(ctx, &GroupMembership{
		DomainID:      group.DomainID,
		ParentGroupID: group.GroupID,
		ChildID:       group.OwnerID,
		ChildType:     MemberTypeUser,
		CreatedTime:   now,
	}); err != nil {
		return fmt.Errorf("failed to add owner to group %s: %w", group.GroupID, err)
	}

	s.invalidate(ctx, group.DomainID)
	return nil
}

// UpdateGroup updates a group's name and description. Ownership changes
// go through TransferGroupOwnership; cardinality never changes.
func (s *Service) UpdateGroup(ctx context.Context, group *UserGroup) error {
	existing, err := s.store.GetGroup(ctx, group.DomainID, group.GroupID)
	if err != nil {
		return err
	}
	if group.OwnerID != "" && group.OwnerID != existing.OwnerID {
		return fmt.Errorf("group owner cannot be changed through an update, use ownership transfer")
	}
	existing.Name = group.Name
	existing.Description = group.Description
	return s.store.UpdateGroup(ctx, existing)
}

// DeleteGroup removes a group, its edges and its grants
func (s *Service) DeleteGroup(ctx context.Context, domainID, groupID string) error {
	if err := s.store.DeleteGroup(ctx, domainID, groupID); err != nil {
		return err
	}
	s.invalidate(ctx, domainID)
	return nil
}

// GetGroup retrieves a group
func (s *Service) GetGroup(ctx context.Context, domainID, groupID string) (*UserGroup, error) {
	return s.store.GetGroup(ctx, domainID, groupID)
}

// GetGroups lists a domain's groups
func (s *Service) GetGroups(ctx context.Context, domainID string, offset, limit int) ([]*UserGroup, error) {
	return s.store.ListGroups(ctx, domainID, offset, limit)
}

// IsGroupExists reports whether a group id is registered
func (s *Service) IsGroupExists(ctx context.Context, domainID, groupID string) (bool, error) {
	return s.store.GroupExists(ctx, domainID, groupID)
}

func (s *Service) mutableGroup(ctx context.Context, domainID, groupID string) (*UserGroup, error) {
	group, err := s.store.GetGroup(ctx, domainID, groupID)
	if err != nil {
		return nil, err
	}
	if group.GroupCardinality == CardinalitySingleUser {
		return nil, fmt.Errorf("membership of single-user group %s cannot be modified", groupID)
	}
	return group, nil
}

// AddUsersToGroup adds users as direct members of a group
func (s *Service) AddUsersToGroup(ctx context.Context, domainID, groupID string, userIDs []string) error {
	if _, err := s.mutableGroup(ctx, domainID, groupID); err != nil {
		return err
	}

	now := nowMillis()
	for _, userID := range userIDs {
		exists, err := s.store.UserExists(ctx, domainID, userID)
		if err != nil {
			return err
		}
		if !exists {
			return &NotFoundError{Kind: "user", ID: userID}
		}
		if err := s.store.AddMembership(ctx, &GroupMembership{
			DomainID:      domainID,
			ParentGroupID: groupID,
			ChildID:       userID,
			ChildType:     MemberTypeUser,
			CreatedTime:   now,
		}); err != nil {
			return err
		}
	}

	s.invalidate(ctx, domainID)
	return nil
}

// RemoveUsersFromGroup removes direct user members. The group owner
// cannot be removed; ownership must move first.
func (s *Service) RemoveUsersFromGroup(ctx context.Context, domainID, groupID string, userIDs []string) error {
	group, err := s.mutableGroup(ctx, domainID, groupID)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		if userID == group.OwnerID {
			return fmt.Errorf("owner %s cannot be removed from group %s, transfer ownership first", userID, groupID)
		}
	}

	for _, userID := range userIDs {
		if err := s.store.RemoveMembership(ctx, domainID, groupID, userID); err != nil {
			return err
		}
	}

	s.invalidate(ctx, domainID)
	return nil
}

// AddChildGroupsToParentGroup nests child groups under a parent group.
// An edge that would make the containment graph cyclic is rejected.
func (s *Service) AddChildGroupsToParentGroup(ctx context.Context, domainID, parentGroupID string, childGroupIDs []string) error {
	if _, err := s.mutableGroup(ctx, domainID, parentGroupID); err != nil {
		return err
	}

	now := nowMillis()
	for _, childID := range childGroupIDs {
		if _, err := s.mutableGroup(ctx, domainID, childID); err != nil {
			return err
		}
		cycle, err := s.resolver.WouldCycle(ctx, domainID, parentGroupID, childID)
		if err != nil {
			return err
		}
		if cycle {
			return &CycleError{Kind: "group", ID: childID}
		}
		if err := s.store.AddMembership(ctx, &GroupMembership{
			DomainID:      domainID,
			ParentGroupID: parentGroupID,
			ChildID:       childID,
			ChildType:     MemberTypeGroup,
			CreatedTime:   now,
		}); err != nil {
			return err
		}
	}

	s.invalidate(ctx, domainID)
	return nil
}

// RemoveChildGroup detaches a nested child group from its parent
func (s *Service) RemoveChildGroup(ctx context.Context, domainID, parentGroupID, childGroupID string) error {
	if err := s.store.RemoveMembership(ctx, domainID, parentGroupID, childGroupID); err != nil {
		return err
	}
	s.invalidate(ctx, domainID)
	return nil
}

// GetGroupMembersOfTypeUser lists a group's direct user members
func (s *Service) GetGroupMembersOfTypeUser(ctx context.Context, domainID, groupID string) ([]*User, error) {
	edges, err := s.store.ListMembers(ctx, domainID, groupID, MemberTypeUser)
	if err != nil {
		return nil, err
	}
	var users []*User
	for _, edge := range edges {
		user, err := s.store.GetUser(ctx, domainID, edge.ChildID)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// GetGroupMembersOfTypeGroup lists a group's direct child groups
func (s *Service) GetGroupMembersOfTypeGroup(ctx context.Context, domainID, groupID string) ([]*UserGroup, error) {
	edges, err := s.store.ListMembers(ctx, domainID, groupID, MemberTypeGroup)
	if err != nil {
		return nil, err
	}
	var groups []*UserGroup
	for _, edge := range edges {
		group, err := s.store.GetGroup(ctx, domainID, edge.ChildID)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// GetAllMemberGroupsForUser lists every multi-user group whose effective
// membership contains the user
func (s *Service) GetAllMemberGroupsForUser(ctx context.Context, domainID, userID string) ([]*UserGroup, error) {
	groupIDs, err := s.resolver.MemberGroupsForUser(ctx, domainID, userID)
	if err != nil {
		return nil, err
	}
	var groups []*UserGroup
	for _, groupID := range groupIDs {
		group, err := s.store.GetGroup(ctx, domainID, groupID)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if group.GroupCardinality == CardinalitySingleUser {
			continue
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// AddGroupAdmins promotes existing members to group admins
func (s *Service) AddGroupAdmins(ctx context.Context, domainID, groupID string, adminIDs []string) error {
	if _, err := s.store.GetGroup(ctx, domainID, groupID); err != nil {
		return err
	}
	for _, adminID := range adminIDs {
		member, err := s.resolver.IsMember(ctx, domainID, groupID, adminID)
		if err != nil {
			return err
		}
		if !member {
			return &NotAMemberError{GroupID: groupID, UserID: adminID}
		}
		if err := s.store.AddGroupAdmin(ctx, domainID, groupID, adminID); err != nil {
			return err
		}
	}
	return nil
}

// RemoveGroupAdmins demotes group admins
func (s *Service) RemoveGroupAdmins(ctx context.Context, domainID, groupID string, adminIDs []string) error {
	if _, err := s.store.GetGroup(ctx, domainID, groupID); err != nil {
		return err
	}
	for _, adminID := range adminIDs {
		if err := s.store.RemoveGroupAdmin(ctx, domainID, groupID, adminID); err != nil {
			return err
		}
	}
	return nil
}

// HasAdminAccess reports whether the user is an admin of the group
func (s *Service) HasAdminAccess(ctx context.Context, domainID, groupID, userID string) (bool, error) {
	return s.resolver.HasAdminAccess(ctx, domainID, groupID, userID)
}

// HasOwnerAccess reports whether the user owns the group
func (s *Service) HasOwnerAccess(ctx context.Context, domainID, groupID, userID string) (bool, error) {
	return s.resolver.HasOwnerAccess(ctx, domainID, groupID, userID)
}

// TransferGroupOwnership makes an existing member the group's owner. An
// admin new owner is demoted from the admin set as part of the swap.
func (s *Service) TransferGroupOwnership(ctx context.Context, domainID, groupID, newOwnerID string) error {
	group, err := s.mutableGroup(ctx, domainID, groupID)
	if err != nil {
		return err
	}
	member, err := s.resolver.IsMember(ctx, domainID, groupID, newOwnerID)
	if err != nil {
		return err
	}
	if !member {
		return &NotAMemberError{GroupID: groupID, UserID: newOwnerID}
	}
	if group.OwnerID == newOwnerID {
		return &DuplicateEntryError{Kind: "group owner", ID: newOwnerID}
	}
	return s.store.TransferGroupOwner(ctx, domainID, groupID, newOwnerID)
}

// CreateEntityType registers an entity type
func (s *Service) CreateEntityType(ctx context.Context, et *EntityType) error {
	now := nowMillis()
	et.CreatedTime = now
	et.UpdatedTime = now
	return s.store.CreateEntityType(ctx, et)
}

// UpdateEntityType updates an entity type's name and description
func (s *Service) UpdateEntityType(ctx context.Context, et *EntityType) error {
	return s.store.UpdateEntityType(ctx, et)
}

// DeleteEntityType removes an entity type
func (s *Service) DeleteEntityType(ctx context.Context, domainID, entityTypeID string) error {
	return s.store.DeleteEntityType(ctx, domainID, entityTypeID)
}

// GetEntityType retrieves an entity type
func (s *Service) GetEntityType(ctx context.Context, domainID, entityTypeID string) (*EntityType, error) {
	return s.store.GetEntityType(ctx, domainID, entityTypeID)
}

// GetEntityTypes lists a domain's entity types
func (s *Service) GetEntityTypes(ctx context.Context, domainID string, offset, limit int) ([]*EntityType, error) {
	return s.store.ListEntityTypes(ctx, domainID, offset, limit)
}

// IsEntityTypeExists reports whether an entity type id is registered
func (s *Service) IsEntityTypeExists(ctx context.Context, domainID, entityTypeID string) (bool, error) {
	return s.store.EntityTypeExists(ctx, domainID, entityTypeID)
}

// CreatePermissionType registers a permission type
func (s *Service) CreatePermissionType(ctx context.Context, pt *PermissionType) error {
	now := nowMillis()
	pt.CreatedTime = now
	pt.UpdatedTime = now
	return s.store.CreatePermissionType(ctx, pt)
}

// UpdatePermissionType updates a permission type's name and description
func (s *Service) UpdatePermissionType(ctx context.Context, pt *PermissionType) error {
	return s.store.UpdatePermissionType(ctx, pt)
}

// DeletePermissionType removes a permission type. The provisioned owner
// permission is not deletable.
func (s *Service) DeletePermissionType(ctx context.Context, domainID, permissionTypeID string) error {
	if permissionTypeID == OwnerPermissionTypeID(domainID) {
		return &InvalidGrantError{Reason: "the owner permission type cannot be deleted"}
	}
	return s.store.DeletePermissionType(ctx, domainID, permissionTypeID)
}

// GetPermissionType retrieves a permission type
func (s *Service) GetPermissionType(ctx context.Context, domainID, permissionTypeID string) (*PermissionType, error) {
	return s.store.GetPermissionType(ctx, domainID, permissionTypeID)
}

// GetPermissionTypes lists a domain's permission types
func (s *Service) GetPermissionTypes(ctx context.Context, domainID string, offset, limit int) ([]*PermissionType, error) {
	return s.store.ListPermissionTypes(ctx, domainID, offset, limit)
}

// IsPermissionExists reports whether a permission type id is registered
func (s *Service) IsPermissionExists(ctx context.Context, domainID, permissionTypeID string) (bool, error) {
	return s.store.PermissionTypeExists(ctx, domainID, permissionTypeID)
}

// CreateEntity registers an entity and grants its owner the cascading
// owner permission. An unknown owner is registered on the fly with the
// username portion of the id.
func (s *Service) CreateEntity(ctx context.Context, entity *Entity) error {
	typeExists, err := s.store.EntityTypeExists(ctx, entity.DomainID, entity.EntityTypeID)
	if err != nil {
		return err
	}
	if !typeExists {
		return &NotFoundError{Kind: "entity type", ID: entity.EntityTypeID}
	}
	if entity.ParentEntityID != nil && *entity.ParentEntityID != "" {
		parentExists, err := s.store.EntityExists(ctx, entity.DomainID, *entity.ParentEntityID)
		if err != nil {
			return err
		}
		if !parentExists {
			return &NotFoundError{Kind: "entity", ID: *entity.ParentEntityID}
		}
	}

	ownerExists, err := s.store.UserExists(ctx, entity.DomainID, entity.OwnerID)
	if err != nil {
		return err
	}
	if !ownerExists {
		userName := entity.OwnerID
		if at := strings.Index(userName, "@"); at >= 0 {
			userName = userName[:at]
		}
		owner := &User{
			UserID:   entity.OwnerID,
			DomainID: entity.DomainID,
			UserName: userName,
		}
		if err := s.CreateUser(ctx, owner); err != nil && !IsDuplicateEntry(err) {
			return fmt.Errorf("failed to register entity owner %s: %w", entity.OwnerID, err)
		}
	}

	now := nowMillis()
	if entity.OriginalEntityCreationTime == 0 {
		entity.OriginalEntityCreationTime = now
	}
	entity.CreatedTime = now
	entity.UpdatedTime = now
	if err := s.store.CreateEntity(ctx, entity); err != nil {
		return err
	}

	ownerGrant := &SharingGrant{
		DomainID:         entity.DomainID,
		EntityID:         entity.EntityID,
		GroupID:          entity.OwnerID,
		PermissionTypeID: OwnerPermissionTypeID(entity.DomainID),
		GrantType:        GrantDirectCascading,
		CreatedTime:      now,
		UpdatedTime:      now,
	}
	if _, err := s.store.UpsertGrant(ctx, ownerGrant); err != nil {
		return fmt.Errorf("failed to grant owner permission on %s: %w", entity.EntityID, err)
	}
	if err := s.store.RefreshSharedCount(ctx, entity.DomainID, entity.EntityID); err != nil {
		return err
	}
	entity.SharedCount, err = s.store.CountDirectGrants(ctx, entity.DomainID, entity.EntityID)
	if err != nil {
		return err
	}

	s.invalidate(ctx, entity.DomainID)
	return nil
}

// UpdateEntity updates an entity's fields. Reparenting is validated
// against the forest invariant and drops the old inherited permissions
// by construction, since inheritance is resolved from the stored parent
// chain at check time.
func (s *Service) UpdateEntity(ctx context.Context, entity *Entity) error {
	existing, err := s.store.GetEntity(ctx, entity.DomainID, entity.EntityID)
	if err != nil {
		return err
	}

	newParent := ""
	if entity.ParentEntityID != nil {
		newParent = *entity.ParentEntityID
	}
	oldParent := ""
	if existing.ParentEntityID != nil {
		oldParent = *existing.ParentEntityID
	}

	if newParent != oldParent && newParent != "" {
		parentExists, err := s.store.EntityExists(ctx, entity.DomainID, newParent)
		if err != nil {
			return err
		}
		if !parentExists {
			return &NotFoundError{Kind: "entity", ID: newParent}
		}
		cycle, err := s.engine.WouldCycleEntity(ctx, entity.DomainID, entity.EntityID, newParent)
		if err != nil {
			return err
		}
		if cycle {
			return &CycleError{Kind: "entity", ID: entity.EntityID}
		}
	}

	if entity.OwnerID == "" {
		entity.OwnerID = existing.OwnerID
	}
	if entity.EntityTypeID == "" {
		entity.EntityTypeID = existing.EntityTypeID
	}
	if err := s.store.UpdateEntity(ctx, entity); err != nil {
		return err
	}

	if newParent != oldParent {
		s.invalidate(ctx, entity.DomainID)
	}
	return nil
}

// DeleteEntity removes an entity and its direct grants. Deletion is
// rejected while child entities point at it, keeping the forest free of
// dangling parent references.
func (s *Service) DeleteEntity(ctx context.Context, domainID, entityID string) error {
	hasChildren, err := s.store.HasChildEntities(ctx, domainID, entityID)
	if err != nil {
		return err
	}
	if hasChildren {
		return fmt.Errorf("entity %s has child entities and cannot be deleted", entityID)
	}
	if err := s.store.DeleteEntity(ctx, domainID, entityID); err != nil {
		return err
	}
	s.invalidate(ctx, domainID)
	return nil
}

// GetEntity retrieves an entity
func (s *Service) GetEntity(ctx context.Context, domainID, entityID string) (*Entity, error) {
	return s.store.GetEntity(ctx, domainID, entityID)
}

// GetEntities lists a domain's entities of one type
func (s *Service) GetEntities(ctx context.Context, domainID, entityTypeID string, offset, limit int) ([]*Entity, error) {
	return s.store.ListEntitiesByType(ctx, domainID, entityTypeID, offset, limit)
}

// IsEntityExists reports whether an entity id is registered
func (s *Service) IsEntityExists(ctx context.Context, domainID, entityID string) (bool, error) {
	return s.store.EntityExists(ctx, domainID, entityID)
}

// ShareEntityWithUsers grants the permission on the entity to each user
func (s *Service) ShareEntityWithUsers(ctx context.Context, domainID, entityID string, userIDs []string, permissionTypeID string, cascading bool) error {
	err := s.grants.ShareWithUsers(ctx, domainID, entityID, userIDs, permissionTypeID, cascading)
	s.countGrantMutation("share_users", err)
	return err
}

// ShareEntityWithGroups grants the permission on the entity to each group
func (s *Service) ShareEntityWithGroups(ctx context.Context, domainID, entityID string, groupIDs []string, permissionTypeID string, cascading bool) error {
	err := s.grants.ShareWithGroups(ctx, domainID, entityID, groupIDs, permissionTypeID, cascading)
	s.countGrantMutation("share_groups", err)
	return err
}

// RevokeEntitySharingFromUsers removes user-level grants
func (s *Service) RevokeEntitySharingFromUsers(ctx context.Context, domainID, entityID string, userIDs []string, permissionTypeID string) error {
	err := s.grants.RevokeFromUsers(ctx, domainID, entityID, userIDs, permissionTypeID)
	s.countGrantMutation("revoke_users", err)
	return err
}

// RevokeEntitySharingFromGroups removes group-level grants
func (s *Service) RevokeEntitySharingFromGroups(ctx context.Context, domainID, entityID string, groupIDs []string, permissionTypeID string) error {
	err := s.grants.RevokeFromGroups(ctx, domainID, entityID, groupIDs, permissionTypeID)
	s.countGrantMutation("revoke_groups", err)
	return err
}

// UserHasAccess reports whether the user holds the permission on the
// entity
func (s *Service) UserHasAccess(ctx context.Context, domainID, userID, entityID, permissionTypeID string) (bool, error) {
	return s.engine.UserHasAccess(ctx, domainID, userID, entityID, permissionTypeID)
}

// SearchEntities evaluates a filter list over a domain's entities as the
// given user
func (s *Service) SearchEntities(ctx context.Context, domainID, userID string, filters []SearchFilter, offset, limit int) ([]*Entity, error) {
	start := time.Now()
	entities, err := s.search.SearchEntities(ctx, domainID, userID, filters, offset, limit)
	if s.metrics != nil && err == nil {
		s.metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}
	return entities, err
}

func (s *Service) sharedGrantees(ctx context.Context, domainID, entityID, permissionTypeID string, directOnly bool) ([]*UserGroup, error) {
	grants, err := s.engine.GrantsReachingEntity(ctx, domainID, entityID, directOnly)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var groups []*UserGroup
	for _, grant := range grants {
		if grant.PermissionTypeID != permissionTypeID || seen[grant.GroupID] {
			continue
		}
		seen[grant.GroupID] = true
		group, err := s.store.GetGroup(ctx, domainID, grant.GroupID)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// GetListOfSharedUsers lists users holding the permission on the entity,
// including through cascading grants on ancestors
func (s *Service) GetListOfSharedUsers(ctx context.Context, domainID, entityID, permissionTypeID string) ([]*User, error) {
	return s.sharedUsers(ctx, domainID, entityID, permissionTypeID, false)
}

// GetListOfDirectlySharedUsers lists users with a grant on the entity
// itself
func (s *Service) GetListOfDirectlySharedUsers(ctx context.Context, domainID, entityID, permissionTypeID string) ([]*User, error) {
	return s.sharedUsers(ctx, domainID, entityID, permissionTypeID, true)
}

func (s *Service) sharedUsers(ctx context.Context, domainID, entityID, permissionTypeID string, directOnly bool) ([]*User, error) {
	groups, err := s.sharedGrantees(ctx, domainID, entityID, permissionTypeID, directOnly)
	if err != nil {
		return nil, err
	}
	var users []*User
	for _, group := range groups {
		if group.GroupCardinality != CardinalitySingleUser {
			continue
		}
		user, err := s.store.GetUser(ctx, domainID, group.GroupID)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// GetListOfSharedGroups lists groups holding the permission on the
// entity, including through cascading grants on ancestors
func (s *Service) GetListOfSharedGroups(ctx context.Context, domainID, entityID, permissionTypeID string) ([]*UserGroup, error) {
	return s.sharedGroups(ctx, domainID, entityID, permissionTypeID, false)
}

// GetListOfDirectlySharedGroups lists groups with a grant on the entity
// itself
func (s *Service) GetListOfDirectlySharedGroups(ctx context.Context, domainID, entityID, permissionTypeID string) ([]*UserGroup, error) {
	return s.sharedGroups(ctx, domainID, entityID, permissionTypeID, true)
}

func (s *Service) sharedGroups(ctx context.Context, domainID, entityID, permissionTypeID string, directOnly bool) ([]*UserGroup, error) {
	groups, err := s.sharedGrantees(ctx, domainID, entityID, permissionTypeID, directOnly)
	if err != nil {
		return nil, err
	}
	var multiUser []*UserGroup
	for _, group := range groups {
		if group.GroupCardinality == CardinalityMultiUser {
			multiUser = append(multiUser, group)
		}
	}
	return multiUser, nil
}
