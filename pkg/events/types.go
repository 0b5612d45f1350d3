package events

import (
	"encoding/json"
)

// EntityKind identifies which upstream system of record an event
// describes
type EntityKind string

const (
	KindTenant      EntityKind = "TENANT"
	KindUserProfile EntityKind = "USER_PROFILE"
	KindProject     EntityKind = "PROJECT"
)

// CrudType is the change type carried by an event
type CrudType string

const (
	CrudCreate CrudType = "CREATE"
	CrudRead   CrudType = "READ"
	CrudUpdate CrudType = "UPDATE"
	CrudDelete CrudType = "DELETE"
)

// DBEventMessage is the replication envelope published by upstream
// services. Payload holds the entity model encoded as JSON and is
// decoded according to EntityKind.
type DBEventMessage struct {
	MessageID        string          `json:"message_id"`
	PublisherService string          `json:"publisher_service"`
	EntityKind       EntityKind      `json:"entity_kind"`
	CrudType         CrudType        `json:"crud_type"`
	Payload          json.RawMessage `json:"payload"`
}

// TenantPayload is the payload of TENANT events
type TenantPayload struct {
	DomainID    string `json:"domain_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UserProfilePayload is the payload of USER_PROFILE events
type UserProfilePayload struct {
	UserID    string `json:"user_id"`
	DomainID  string `json:"domain_id"`
	UserName  string `json:"user_name"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// ProjectPayload is the payload of PROJECT events
type ProjectPayload struct {
	ProjectID   string `json:"project_id"`
	DomainID    string `json:"domain_id"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
