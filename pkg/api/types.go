package api

import "github.com/platinummonkey/warden/pkg/sharing"

// MembersRequest carries user ids for group membership changes
type MembersRequest struct {
	UserIDs []string `json:"user_ids"`
}

// ChildGroupsRequest carries group ids to nest under a parent group
type ChildGroupsRequest struct {
	ChildGroupIDs []string `json:"child_group_ids"`
}

// AdminsRequest carries user ids for group admin changes
type AdminsRequest struct {
	AdminIDs []string `json:"admin_ids"`
}

// TransferOwnershipRequest names the member taking over a group
type TransferOwnershipRequest struct {
	NewOwnerID string `json:"new_owner_id"`
}

// ShareUsersRequest grants a permission on an entity to users
type ShareUsersRequest struct {
	UserIDs          []string `json:"user_ids"`
	PermissionTypeID string   `json:"permission_type_id"`
	Cascade          bool     `json:"cascade"`
}

// ShareGroupsRequest grants a permission on an entity to groups
type ShareGroupsRequest struct {
	GroupIDs         []string `json:"group_ids"`
	PermissionTypeID string   `json:"permission_type_id"`
	Cascade          bool     `json:"cascade"`
}

// RevokeUsersRequest removes direct user grants from an entity
type RevokeUsersRequest struct {
	UserIDs          []string `json:"user_ids"`
	PermissionTypeID string   `json:"permission_type_id"`
}

// RevokeGroupsRequest removes direct group grants from an entity
type RevokeGroupsRequest struct {
	GroupIDs         []string `json:"group_ids"`
	PermissionTypeID string   `json:"permission_type_id"`
}

// SearchRequest filters entities visible to a user
type SearchRequest struct {
	UserID  string                 `json:"user_id"`
	Filters []sharing.SearchFilter `json:"filters"`
	Offset  int                    `json:"offset"`
	Limit   int                    `json:"limit"`
}

// AccessResponse reports the outcome of an access check
type AccessResponse struct {
	HasAccess bool `json:"has_access"`
}

// ExistsResponse reports whether a record exists
type ExistsResponse struct {
	Exists bool `json:"exists"`
}
