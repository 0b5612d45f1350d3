package sharing

import (
	"time"
)

// GroupType distinguishes groups created for individual users from
// domain-managed groups
type GroupType string

const (
	GroupTypeUserLevel   GroupType = "USER_LEVEL_GROUP"
	GroupTypeDomainLevel GroupType = "DOMAIN_LEVEL_GROUP"
)

// GroupCardinality indicates whether a group mirrors a single user or
// holds arbitrary members
type GroupCardinality string

const (
	CardinalitySingleUser GroupCardinality = "SINGLE_USER"
	CardinalityMultiUser  GroupCardinality = "MULTI_USER"
)

// MemberType is the kind of node a membership edge points at
type MemberType string

const (
	MemberTypeUser  MemberType = "USER"
	MemberTypeGroup MemberType = "GROUP"
)

// GrantType records how a sharing grant propagates down the entity tree
type GrantType string

const (
	GrantDirectCascading    GrantType = "DIRECT_CASCADING"
	GrantDirectNonCascading GrantType = "DIRECT_NON_CASCADING"
)

// Cascading reports whether the grant applies to descendants of the
// granted entity
func (g GrantType) Cascading() bool {
	return g == GrantDirectCascading
}

// GrantTypeFor maps the boolean API parameter onto the stored grant type
func GrantTypeFor(cascading bool) GrantType {
	if cascading {
		return GrantDirectCascading
	}
	return GrantDirectNonCascading
}

// OwnerPermissionName is the name of the permission type provisioned for
// every domain and granted to entity owners
const OwnerPermissionName = "OWNER"

// OwnerPermissionTypeID returns the id of a domain's owner permission type
func OwnerPermissionTypeID(domainID string) string {
	return domainID + ":" + OwnerPermissionName
}

// Domain is a tenant boundary; every other record is scoped to exactly
// one domain
type Domain struct {
	DomainID           string  `json:"domain_id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	InitialUserGroupID *string `json:"initial_user_group_id,omitempty"`
	CreatedTime        int64   `json:"created_time"`
	UpdatedTime        int64   `json:"updated_time"`
}

// User is a domain-scoped principal. Creating one also creates a
// SINGLE_USER group with the same id so user shares and group shares go
// through one grant mechanism.
type User struct {
	UserID      string  `json:"user_id"`
	DomainID    string  `json:"domain_id"`
	UserName    string  `json:"user_name"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Icon        []byte  `json:"icon,omitempty"`
	CreatedTime int64   `json:"created_time"`
	UpdatedTime int64   `json:"updated_time"`
}

// UserGroup is a grantee: either a real group of users and nested
// groups, or the single-user mirror of one user
type UserGroup struct {
	GroupID          string           `json:"group_id"`
	DomainID         string           `json:"domain_id"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	OwnerID          string           `json:"owner_id"`
	GroupType        GroupType        `json:"group_type"`
	GroupCardinality GroupCardinality `json:"group_cardinality"`
	CreatedTime      int64            `json:"created_time"`
	UpdatedTime      int64            `json:"updated_time"`
}

// GroupMembership is an edge from a parent group to a user or child group
type GroupMembership struct {
	DomainID      string     `json:"domain_id"`
	ParentGroupID string     `json:"parent_group_id"`
	ChildID       string     `json:"child_id"`
	ChildType     MemberType `json:"child_type"`
	CreatedTime   int64      `json:"created_time"`
}

// EntityType is a domain-scoped vocabulary entry for entity kinds
type EntityType struct {
	EntityTypeID string `json:"entity_type_id"`
	DomainID     string `json:"domain_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CreatedTime  int64  `json:"created_time"`
	UpdatedTime  int64  `json:"updated_time"`
}

// PermissionType is a domain-scoped vocabulary entry for permissions
type PermissionType struct {
	PermissionTypeID string `json:"permission_type_id"`
	DomainID         string `json:"domain_id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	CreatedTime      int64  `json:"created_time"`
	UpdatedTime      int64  `json:"updated_time"`
}

// Entity is a shareable resource. Entities form a forest per domain
// through ParentEntityID.
type Entity struct {
	EntityID                   string  `json:"entity_id"`
	DomainID                   string  `json:"domain_id"`
	EntityTypeID               string  `json:"entity_type_id"`
	OwnerID                    string  `json:"owner_id"`
	ParentEntityID             *string `json:"parent_entity_id,omitempty"`
	Name                       string  `json:"name"`
	Description                *string `json:"description,omitempty"`
	FullText                   *string `json:"full_text,omitempty"`
	OriginalEntityCreationTime int64   `json:"original_entity_creation_time"`
	SharedCount                int64   `json:"shared_count"`
	CreatedTime                int64   `json:"created_time"`
	UpdatedTime                int64   `json:"updated_time"`
}

// SharingGrant attaches a permission to a group on an entity. User-level
// shares are stored against the user's SINGLE_USER group.
type SharingGrant struct {
	DomainID         string    `json:"domain_id"`
	EntityID         string    `json:"entity_id"`
	GroupID          string    `json:"group_id"`
	PermissionTypeID string    `json:"permission_type_id"`
	GrantType        GrantType `json:"grant_type"`
	CreatedTime      int64     `json:"created_time"`
	UpdatedTime      int64     `json:"updated_time"`
}

// SearchField selects which entity attribute a search filter inspects
type SearchField string

const (
	FieldFullText         SearchField = "FULL_TEXT"
	FieldEntityTypeID     SearchField = "ENTITY_TYPE_ID"
	FieldOwnerID          SearchField = "OWNER_ID"
	FieldSharedCount      SearchField = "SHARED_COUNT"
	FieldPermissionTypeID SearchField = "PERMISSION_TYPE_ID"
)

// SearchCondition is the comparison a search filter applies
type SearchCondition string

const (
	ConditionEqual    SearchCondition = "EQUAL"
	ConditionNot      SearchCondition = "NOT"
	ConditionGTE      SearchCondition = "GTE"
	ConditionFullText SearchCondition = "FULL_TEXT"
)

// SearchFilter is one (field, condition, value) predicate; a search
// matches entities satisfying every filter
type SearchFilter struct {
	Field     SearchField     `json:"field"`
	Condition SearchCondition `json:"condition"`
	Value     string          `json:"value"`
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
