package sharing

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/warden/pkg/observability"
)

// PermissionEngine evaluates access checks by walking an entity's
// ancestry chain. Grants on the entity itself always count; grants on
// ancestors count only when cascading. A grant matches when its grantee
// group reaches the user through the group closure.
type PermissionEngine struct {
	store    *Store
	resolver *GroupResolver
	cache    *AccessCache
	metrics  *observability.Metrics
}

// NewPermissionEngine creates an engine over the given store and
// resolver. cache may be nil to disable caching.
func NewPermissionEngine(store *Store, resolver *GroupResolver, cache *AccessCache) *PermissionEngine {
	return &PermissionEngine{store: store, resolver: resolver, cache: cache}
}

// UserHasAccess reports whether the user holds the permission on the
// entity, either directly or through a cascading grant on an ancestor.
// The domain's owner permission implicitly satisfies every check.
func (e *PermissionEngine) UserHasAccess(ctx context.Context, domainID, userID, entityID, permissionTypeID string) (bool, error) {
	start := time.Now()
	if e.cache != nil {
		if allowed, ok := e.cache.Get(ctx, domainID, userID, entityID, permissionTypeID); ok {
			if e.metrics != nil {
				e.metrics.AccessCacheHits.Inc()
			}
			e.observeCheck(start, allowed, nil)
			return allowed, nil
		}
		if e.metrics != nil {
			e.metrics.AccessCacheMisses.Inc()
		}
	}

	allowed, err := e.evaluate(ctx, domainID, userID, entityID, permissionTypeID)
	if err != nil {
		e.observeCheck(start, false, err)
		return false, err
	}

	if e.cache != nil {
		e.cache.Set(ctx, domainID, userID, entityID, permissionTypeID, allowed)
	}
	e.observeCheck(start, allowed, nil)
	return allowed, nil
}

func (e *PermissionEngine) observeCheck(start time.Time, allowed bool, err error) {
	if e.metrics == nil {
		return
	}
	result := "denied"
	switch {
	case err != nil:
		result = "error"
	case allowed:
		result = "allowed"
	}
	e.metrics.AccessChecksTotal.WithLabelValues(result).Inc()
	e.metrics.AccessCheckDuration.Observe(time.Since(start).Seconds())
}

func (e *PermissionEngine) evaluate(ctx context.Context, domainID, userID, entityID, permissionTypeID string) (bool, error) {
	closure, err := e.resolver.GroupClosureForUser(ctx, domainID, userID)
	if err != nil {
		return false, err
	}
	granteeSet := make(map[string]bool, len(closure))
	for _, groupID := range closure {
		granteeSet[groupID] = true
	}

	permissionIDs := []string{permissionTypeID}
	if ownerID := OwnerPermissionTypeID(domainID); ownerID != permissionTypeID {
		permissionIDs = append(permissionIDs, ownerID)
	}

	// Walk from the entity to its root. The visited set guards against a
	// parent cycle slipping into the store.
	visited := make(map[string]bool)
	currentID := entityID
	first := true
	for currentID != "" && !visited[currentID] {
		visited[currentID] = true

		entity, err := e.store.GetEntity(ctx, domainID, currentID)
		if err != nil {
			return false, err
		}

		grants, err := e.store.ListGrantsForEntity(ctx, domainID, currentID, permissionIDs, !first)
		if err != nil {
			return false, err
		}
		for _, grant := range grants {
			if granteeSet[grant.GroupID] {
				return true, nil
			}
		}

		if entity.ParentEntityID == nil {
			break
		}
		currentID = *entity.ParentEntityID
		first = false
	}
	return false, nil
}

// GrantsReachingEntity returns every grant that applies to the entity:
// all direct grants plus cascading grants on ancestors. directOnly
// restricts the result to grants on the entity itself.
func (e *PermissionEngine) GrantsReachingEntity(ctx context.Context, domainID, entityID string, directOnly bool) ([]*SharingGrant, error) {
	grants, err := e.store.ListGrantsForEntity(ctx, domainID, entityID, nil, false)
	if err != nil {
		return nil, err
	}
	if directOnly {
		return grants, nil
	}

	entity, err := e.store.GetEntity(ctx, domainID, entityID)
	if err != nil {
		return nil, err
	}
	visited := map[string]bool{entityID: true}
	for entity.ParentEntityID != nil && !visited[*entity.ParentEntityID] {
		parentID := *entity.ParentEntityID
		visited[parentID] = true

		inherited, err := e.store.ListGrantsForEntity(ctx, domainID, parentID, nil, true)
		if err != nil {
			return nil, err
		}
		grants = append(grants, inherited...)

		entity, err = e.store.GetEntity(ctx, domainID, parentID)
		if err != nil {
			return nil, err
		}
	}
	return grants, nil
}

// WouldCycleEntity reports whether reparenting entityID under
// newParentID would create a cycle in the entity forest
func (e *PermissionEngine) WouldCycleEntity(ctx context.Context, domainID, entityID, newParentID string) (bool, error) {
	if entityID == newParentID {
		return true, nil
	}
	visited := make(map[string]bool)
	currentID := newParentID
	for currentID != "" && !visited[currentID] {
		if currentID == entityID {
			return true, nil
		}
		visited[currentID] = true

		entity, err := e.store.GetEntity(ctx, domainID, currentID)
		if err != nil {
			return false, fmt.Errorf("failed to walk entity chain from %s: %w", currentID, err)
		}
		if entity.ParentEntityID == nil {
			break
		}
		currentID = *entity.ParentEntityID
	}
	return false, nil
}
