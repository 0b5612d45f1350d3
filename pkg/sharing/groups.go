package sharing

import (
	"context"
	"fmt"
)

// GroupResolver answers membership questions over the group-containment
// graph. Groups may contain users and other groups; resolution follows
// nested groups transitively with a visited set, so a stray cycle in the
// stored edges terminates instead of looping.
type GroupResolver struct {
	store *Store
}

// NewGroupResolver creates a resolver over the given store
func NewGroupResolver(store *Store) *GroupResolver {
	return &GroupResolver{store: store}
}

// EffectiveMembers returns every user reachable from the group through
// membership edges, including members of nested child groups
func (r *GroupResolver) EffectiveMembers(ctx context.Context, domainID, groupID string) (map[string]bool, error) {
	members := make(map[string]bool)
	visited := map[string]bool{groupID: true}
	queue := []string{groupID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		edges, err := r.store.ListMembers(ctx, domainID, current, "")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve members of group %s: %w", current, err)
		}
		for _, edge := range edges {
			switch edge.ChildType {
			case MemberTypeUser:
				members[edge.ChildID] = true
			case MemberTypeGroup:
				if !visited[edge.ChildID] {
					visited[edge.ChildID] = true
					queue = append(queue, edge.ChildID)
				}
			}
		}
	}
	return members, nil
}

// IsMember reports whether the user is an effective member of the group
func (r *GroupResolver) IsMember(ctx context.Context, domainID, groupID, userID string) (bool, error) {
	visited := map[string]bool{groupID: true}
	queue := []string{groupID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		edges, err := r.store.ListMembers(ctx, domainID, current, "")
		if err != nil {
			return false, fmt.Errorf("failed to resolve members of group %s: %w", current, err)
		}
		for _, edge := range edges {
			if edge.ChildType == MemberTypeUser && edge.ChildID == userID {
				return true, nil
			}
			if edge.ChildType == MemberTypeGroup && !visited[edge.ChildID] {
				visited[edge.ChildID] = true
				queue = append(queue, edge.ChildID)
			}
		}
	}
	return false, nil
}

// WouldCycle reports whether adding childGroupID under parentGroupID
// would create a cycle in the containment graph. The traversal walks
// downward from the candidate child looking for the parent.
func (r *GroupResolver) WouldCycle(ctx context.Context, domainID, parentGroupID, childGroupID string) (bool, error) {
	if parentGroupID == childGroupID {
		return true, nil
	}

	visited := map[string]bool{childGroupID: true}
	queue := []string{childGroupID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		edges, err := r.store.ListMembers(ctx, domainID, current, MemberTypeGroup)
		if err != nil {
			return false, fmt.Errorf("failed to walk group graph from %s: %w", current, err)
		}
		for _, edge := range edges {
			if edge.ChildID == parentGroupID {
				return true, nil
			}
			if !visited[edge.ChildID] {
				visited[edge.ChildID] = true
				queue = append(queue, edge.ChildID)
			}
		}
	}
	return false, nil
}

// MemberGroupsForUser returns the ids of every group whose effective
// membership contains the user, walking parent edges transitively
func (r *GroupResolver) MemberGroupsForUser(ctx context.Context, domainID, userID string) ([]string, error) {
	visited := make(map[string]bool)
	var groups []string

	queue, err := r.store.ListParentGroups(ctx, domainID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for user %s: %w", userID, err)
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		groups = append(groups, current)

		parents, err := r.store.ListParentGroups(ctx, domainID, current)
		if err != nil {
			return nil, fmt.Errorf("failed to list parent groups of %s: %w", current, err)
		}
		queue = append(queue, parents...)
	}
	return groups, nil
}

// GroupClosureForUser returns every group id that can carry a grant
// reaching the user: the user's own single-user group plus all groups
// the user belongs to, directly or through nesting
func (r *GroupResolver) GroupClosureForUser(ctx context.Context, domainID, userID string) ([]string, error) {
	groups, err := r.MemberGroupsForUser(ctx, domainID, userID)
	if err != nil {
		return nil, err
	}
	closure := make([]string, 0, len(groups)+1)
	closure = append(closure, userID)
	for _, g := range groups {
		if g != userID {
			closure = append(closure, g)
		}
	}
	return closure, nil
}

// HasOwnerAccess reports whether the user owns the group
func (r *GroupResolver) HasOwnerAccess(ctx context.Context, domainID, groupID, userID string) (bool, error) {
	group, err := r.store.GetGroup(ctx, domainID, groupID)
	if err != nil {
		return false, err
	}
	return group.OwnerID == userID, nil
}

// HasAdminAccess reports whether the user is an admin of the group
func (r *GroupResolver) HasAdminAccess(ctx context.Context, domainID, groupID, userID string) (bool, error) {
	return r.store.IsGroupAdmin(ctx, domainID, groupID, userID)
}
