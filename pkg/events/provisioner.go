package events

import (
	"context"
	"fmt"

	"github.com/platinummonkey/warden/pkg/sharing"
)

// standardEntityTypes are provisioned for every tenant so replicated
// records land on known types. The map key is the type suffix, the
// value the display name.
var standardEntityTypes = []struct {
	suffix string
	name   string
}{
	{"PROJECT", "PROJECT"},
	{"EXPERIMENT", "EXPERIMENT"},
	{"FILE", "FILE"},
	{"APPLICATION_DEPLOYMENT", "APPLICATION-DEPLOYMENT"},
	{"GROUP_RESOURCE_PROFILE", "GROUP_RESOURCE_PROFILE"},
	{"CREDENTIAL_TOKEN", "CREDENTIAL_TOKEN"},
}

var standardPermissionTypes = []string{"READ", "WRITE", "MANAGE_SHARING"}

// provisionTenant creates the domain together with its standard entity
// and permission types. Every step tolerates an existing record so the
// event can be replayed.
func (c *Consumer) provisionTenant(ctx context.Context, payload *TenantPayload) error {
	domain := &sharing.Domain{
		DomainID:    payload.DomainID,
		Name:        payload.Name,
		Description: payload.Description,
	}

	if err := c.service.CreateDomain(ctx, domain); err != nil && !sharing.IsDuplicateEntry(err) {
		return fmt.Errorf("failed to provision domain %s: %w", payload.DomainID, err)
	}

	for _, et := range standardEntityTypes {
		entityType := &sharing.EntityType{
			EntityTypeID: payload.DomainID + ":" + et.suffix,
			DomainID:     payload.DomainID,
			Name:         et.name,
		}
		if err := c.service.CreateEntityType(ctx, entityType); err != nil && !sharing.IsDuplicateEntry(err) {
			return fmt.Errorf("failed to provision entity type %s: %w", entityType.EntityTypeID, err)
		}
	}

	for _, name := range standardPermissionTypes {
		permissionType := &sharing.PermissionType{
			PermissionTypeID: payload.DomainID + ":" + name,
			DomainID:         payload.DomainID,
			Name:             name,
		}
		if err := c.service.CreatePermissionType(ctx, permissionType); err != nil && !sharing.IsDuplicateEntry(err) {
			return fmt.Errorf("failed to provision permission type %s: %w", permissionType.PermissionTypeID, err)
		}
	}

	return nil
}
