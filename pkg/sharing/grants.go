package sharing

import (
	"context"
	"fmt"
)

// GrantManager mutates sharing grants. User-level shares resolve to the
// user's single-user group, so the grant table only ever holds group
// grantees. Every mutation refreshes the entity's shared count and
// invalidates cached access checks for the domain.
type GrantManager struct {
	store *Store
	cache *AccessCache
}

// NewGrantManager creates a grant manager. cache may be nil.
func NewGrantManager(store *Store, cache *AccessCache) *GrantManager {
	return &GrantManager{store: store, cache: cache}
}

func (m *GrantManager) validateShare(ctx context.Context, domainID, entityID, permissionTypeID string, groupIDs []string) error {
	if permissionTypeID == OwnerPermissionTypeID(domainID) {
		return &InvalidGrantError{Reason: "the owner permission cannot be shared or revoked"}
	}
	exists, err := m.store.PermissionTypeExists(ctx, domainID, permissionTypeID)
	if err != nil {
		return err
	}
	if !exists {
		return &InvalidGrantError{Reason: fmt.Sprintf("permission type %q does not exist", permissionTypeID)}
	}
	exists, err = m.store.EntityExists(ctx, domainID, entityID)
	if err != nil {
		return err
	}
	if !exists {
		return &NotFoundError{Kind: "entity", ID: entityID}
	}
	for _, groupID := range groupIDs {
		exists, err := m.store.GroupExists(ctx, domainID, groupID)
		if err != nil {
			return err
		}
		if !exists {
			return &InvalidGrantError{Reason: fmt.Sprintf("group %q does not exist", groupID)}
		}
	}
	return nil
}

// ShareWithGroups grants the permission on the entity to each group.
// Re-sharing an existing (entity, group, permission) tuple refreshes its
// grant type without changing the shared count.
func (m *GrantManager) ShareWithGroups(ctx context.Context, domainID, entityID string, groupIDs []string, permissionTypeID string, cascading bool) error {
	if err := m.validateShare(ctx, domainID, entityID, permissionTypeID, groupIDs); err != nil {
		return err
	}

	now := nowMillis()
	for _, groupID := range groupIDs {
		grant := &SharingGrant{
			DomainID:         domainID,
			EntityID:         entityID,
			GroupID:          groupID,
			PermissionTypeID: permissionTypeID,
			GrantType:        GrantTypeFor(cascading),
			CreatedTime:      now,
			UpdatedTime:      now,
		}
		if _, err := m.store.UpsertGrant(ctx, grant); err != nil {
			return err
		}
	}

	if err := m.store.RefreshSharedCount(ctx, domainID, entityID); err != nil {
		return err
	}
	if m.cache != nil {
		m.cache.Invalidate(ctx, domainID)
	}
	return nil
}

// ShareWithUsers grants the permission to each user through their
// single-user groups
func (m *GrantManager) ShareWithUsers(ctx context.Context, domainID, entityID string, userIDs []string, permissionTypeID string, cascading bool) error {
	return m.ShareWithGroups(ctx, domainID, entityID, userIDs, permissionTypeID, cascading)
}

// RevokeFromGroups removes the matching grants. Revoking a grant that
// does not exist is a no-op.
func (m *GrantManager) RevokeFromGroups(ctx context.Context, domainID, entityID string, groupIDs []string, permissionTypeID string) error {
	if permissionTypeID == OwnerPermissionTypeID(domainID) {
		return &InvalidGrantError{Reason: "the owner permission cannot be shared or revoked"}
	}
	exists, err := m.store.EntityExists(ctx, domainID, entityID)
	if err != nil {
		return err
	}
	if !exists {
		return &NotFoundError{Kind: "entity", ID: entityID}
	}

	for _, groupID := range groupIDs {
		if _, err := m.store.DeleteGrant(ctx, domainID, entityID, groupID, permissionTypeID); err != nil {
			return err
		}
	}

	if err := m.store.RefreshSharedCount(ctx, domainID, entityID); err != nil {
		return err
	}
	if m.cache != nil {
		m.cache.Invalidate(ctx, domainID)
	}
	return nil
}

// RevokeFromUsers removes the matching user-level grants
func (m *GrantManager) RevokeFromUsers(ctx context.Context, domainID, entityID string, userIDs []string, permissionTypeID string) error {
	return m.RevokeFromGroups(ctx, domainID, entityID, userIDs, permissionTypeID)
}
