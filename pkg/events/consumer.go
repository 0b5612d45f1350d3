package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/sharing"
)

// handlerFunc applies one event to the catalog. A nil error means the
// event took effect (or replayed idempotently) and can be acknowledged.
type handlerFunc func(ctx context.Context, msg *DBEventMessage) error

// Consumer mirrors upstream change events into the sharing catalog. A
// message is acknowledged after successful handling; a duplicate-entry
// condition counts as success because at-least-once delivery replays
// events. Any other failure leaves the message pending for redelivery.
type Consumer struct {
	service  *sharing.Service
	logger   *observability.Logger
	metrics  *observability.Metrics
	handlers map[EntityKind]handlerFunc
}

// NewConsumer creates a consumer applying events through the given
// service. metrics may be nil.
func NewConsumer(service *sharing.Service, logger *observability.Logger, metrics *observability.Metrics) *Consumer {
	c := &Consumer{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
	c.handlers = map[EntityKind]handlerFunc{
		KindTenant:      c.handleTenant,
		KindUserProfile: c.handleUserProfile,
		KindProject:     c.handleProject,
	}
	return c
}

func (c *Consumer) count(kind EntityKind, crud CrudType, status string) {
	if c.metrics != nil {
		c.metrics.ConsumerEventsTotal.WithLabelValues(string(kind), string(crud), status).Inc()
	}
}

// Process applies one event and reports whether it should be
// acknowledged
func (c *Consumer) Process(ctx context.Context, msg *DBEventMessage) bool {
	logger := c.logger.WithFields(map[string]interface{}{
		"message_id":  msg.MessageID,
		"entity_kind": string(msg.EntityKind),
		"crud_type":   string(msg.CrudType),
	})

	if msg.CrudType == CrudRead {
		c.count(msg.EntityKind, msg.CrudType, "ignored")
		return true
	}

	handler, ok := c.handlers[msg.EntityKind]
	if !ok {
		logger.Warn("dropping event with unrecognized entity kind")
		c.count(msg.EntityKind, msg.CrudType, "ignored")
		return true
	}

	err := handler(ctx, msg)
	if err == nil {
		c.count(msg.EntityKind, msg.CrudType, "acked")
		return true
	}
	if sharing.IsDuplicateEntry(err) {
		logger.WithError(err).Info("event replayed an existing record, acknowledging")
		c.count(msg.EntityKind, msg.CrudType, "duplicate")
		return true
	}

	logger.WithError(err).Error("failed to process event, leaving unacknowledged")
	c.count(msg.EntityKind, msg.CrudType, "failed")
	return false
}

func (c *Consumer) handleTenant(ctx context.Context, msg *DBEventMessage) error {
	var payload TenantPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode tenant payload: %w", err)
	}

	switch msg.CrudType {
	case CrudCreate, CrudUpdate:
		return c.provisionTenant(ctx, &payload)
	default:
		c.logger.WithField("crud_type", string(msg.CrudType)).Debug("ignoring tenant event")
		return nil
	}
}

func (c *Consumer) handleUserProfile(ctx context.Context, msg *DBEventMessage) error {
	var payload UserProfilePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode user profile payload: %w", err)
	}

	user := &sharing.User{
		UserID:   payload.UserID,
		DomainID: payload.DomainID,
		UserName: payload.UserName,
	}
	if payload.FirstName != "" {
		user.FirstName = &payload.FirstName
	}
	if payload.LastName != "" {
		user.LastName = &payload.LastName
	}
	if payload.Email != "" {
		user.Email = &payload.Email
	}

	switch msg.CrudType {
	case CrudCreate:
		return c.service.CreateUser(ctx, user)
	case CrudUpdate:
		exists, err := c.service.IsUserExists(ctx, payload.DomainID, payload.UserID)
		if err != nil {
			return err
		}
		if !exists {
			return c.service.CreateUser(ctx, user)
		}
		return c.service.UpdateUser(ctx, user)
	case CrudDelete:
		err := c.service.DeleteUser(ctx, payload.DomainID, payload.UserID)
		if sharing.IsNotFound(err) {
			return nil
		}
		return err
	default:
		return nil
	}
}

func (c *Consumer) handleProject(ctx context.Context, msg *DBEventMessage) error {
	var payload ProjectPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode project payload: %w", err)
	}

	entity := projectEntity(&payload)

	switch msg.CrudType {
	case CrudCreate:
		return c.service.CreateEntity(ctx, entity)
	case CrudUpdate:
		exists, err := c.service.IsEntityExists(ctx, payload.DomainID, payload.ProjectID)
		if err != nil {
			return err
		}
		if !exists {
			return c.service.CreateEntity(ctx, entity)
		}
		return c.service.UpdateEntity(ctx, entity)
	case CrudDelete:
		err := c.service.DeleteEntity(ctx, payload.DomainID, payload.ProjectID)
		if sharing.IsNotFound(err) {
			return nil
		}
		return err
	default:
		return nil
	}
}

func projectEntity(payload *ProjectPayload) *sharing.Entity {
	fullText := payload.Name
	if payload.Description != "" {
		fullText += " " + payload.Description
	}
	entity := &sharing.Entity{
		EntityID:     payload.ProjectID,
		DomainID:     payload.DomainID,
		EntityTypeID: payload.DomainID + ":PROJECT",
		OwnerID:      payload.Owner + "@" + payload.DomainID,
		Name:         payload.Name,
		FullText:     &fullText,
	}
	if payload.Description != "" {
		description := payload.Description
		entity.Description = &description
	}
	return entity
}
