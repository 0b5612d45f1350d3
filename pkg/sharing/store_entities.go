package sharing

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateEntityType inserts a new entity type
func (s *Store) CreateEntityType(ctx context.Context, et *EntityType) error {
	exists, err := s.EntityTypeExists(ctx, et.DomainID, et.EntityTypeID)
	if err != nil {
		return err
	}
	if exists {
		return &DuplicateEntryError{Kind: "entity type", ID: et.EntityTypeID}
	}
	_, err = s.exec(ctx, `
		INSERT INTO entity_types (domain_id, entity_type_id, name, description, created_time, updated_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, et.DomainID, et.EntityTypeID, et.Name, et.Description, et.CreatedTime, et.UpdatedTime)
	if err != nil {
		return fmt.Errorf("failed to create entity type: %w", err)
	}
	return nil
}

// GetEntityType retrieves an entity type by id
func (s *Store) GetEntityType(ctx context.Context, domainID, entityTypeID string) (*EntityType, error) {
	et := &EntityType{}
	err := s.queryRow(ctx, `
		SELECT domain_id, entity_type_id, name, description, created_time, updated_time
		FROM entity_types WHERE domain_id = $1 AND entity_type_id = $2
	`, domainID, entityTypeID).Scan(
		&et.DomainID, &et.EntityTypeID, &et.Name, &et.Description, &et.CreatedTime, &et.UpdatedTime,
	)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "entity type", ID: entityTypeID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity type: %w", err)
	}
	return et, nil
}

// UpdateEntityType updates an entity type's name and description
func (s *Store) UpdateEntityType(ctx context.Context, et *EntityType) error {
	result, err := s.exec(ctx, `
		UPDATE entity_types SET name = $1, description = $2, updated_time = $3
		WHERE domain_id = $4 AND entity_type_id = $5
	`, et.Name, et.Description, nowMillis(), et.DomainID, et.EntityTypeID)
	if err != nil {
		return fmt.Errorf("failed to update entity type: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "entity type", ID: et.EntityTypeID}
	}
	return nil
}

// DeleteEntityType removes an entity type
func (s *Store) DeleteEntityType(ctx context.Context, domainID, entityTypeID string) error {
	result, err := s.exec(ctx,
		"DELETE FROM entity_types WHERE domain_id = $1 AND entity_type_id = $2", domainID, entityTypeID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete entity type: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "entity type", ID: entityTypeID}
	}
	return nil
}

// EntityTypeExists checks whether an entity type id is registered
func (s *Store) EntityTypeExists(ctx context.Context, domainID, entityTypeID string) (bool, error) {
	var count int
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM entity_types WHERE domain_id = $1 AND entity_type_id = $2",
		domainID, entityTypeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check entity type existence: %w", err)
	}
	return count > 0, nil
}

// ListEntityTypes returns a domain's entity types ordered by id
func (s *Store) ListEntityTypes(ctx context.Context, domainID string, offset, limit int) ([]*EntityType, error) {
	query := `
		SELECT domain_id, entity_type_id, name, description, created_time, updated_time
		FROM entity_types WHERE domain_id = $1 ORDER BY entity_type_id
	` + limitClause(offset, limit)
	rows, err := s.query(ctx, query, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity types: %w", err)
	}
	defer rows.Close()

	var types []*EntityType
	for rows.Next() {
		et := &EntityType{}
		if err := rows.Scan(
			&et.DomainID, &et.EntityTypeID, &et.Name, &et.Description, &et.CreatedTime, &et.UpdatedTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entity type: %w", err)
		}
		types = append(types, et)
	}
	return types, rows.Err()
}

// CreatePermissionType inserts a new permission type
func (s *Store) CreatePermissionType(ctx context.Context, pt *PermissionType) error {
	exists, err := s.PermissionTypeExists(ctx, pt.DomainID, pt.PermissionTypeID)
	if err != nil {
		return err
	}
	if exists {
		return &DuplicateEntryError{Kind: "permission type", ID: pt.PermissionTypeID}
	}
	_, err = s.exec(ctx, `
		INSERT INTO permission_types (domain_id, permission_type_id, name, description, created_time, updated_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, pt.DomainID, pt.PermissionTypeID, pt.Name, pt.Description, pt.CreatedTime, pt.UpdatedTime)
	if err != nil {
		return fmt.Errorf("failed to create permission type: %w", err)
	}
	return nil
}

// GetPermissionType retrieves a permission type by id
func (s *Store) GetPermissionType(ctx context.Context, domainID, permissionTypeID string) (*PermissionType, error) {
	pt := &PermissionType{}
	err := s.queryRow(ctx, `
		SELECT domain_id, permission_type_id, name, description, created_time, updated_time
		FROM permission_types WHERE domain_id = $1 AND permission_type_id = $2
	`, domainID, permissionTypeID).Scan(
		&pt.DomainID, &pt.PermissionTypeID, &pt.Name, &pt.Description, &pt.CreatedTime, &pt.UpdatedTime,
	)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "permission type", ID: permissionTypeID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get permission type: %w", err)
	}
	return pt, nil
}

// UpdatePermissionType updates a permission type's name and description
func (s *Store) UpdatePermissionType(ctx context.Context, pt *PermissionType) error {
	result, err := s.exec(ctx, `
		UPDATE permission_types SET name = $1, description = $2, updated_time = $3
		WHERE domain_id = $4 AND permission_type_id = $5
	`, pt.Name, pt.Description, nowMillis(), pt.DomainID, pt.PermissionTypeID)
	if err != nil {
		return fmt.Errorf("failed to update permission type: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "permission type", ID: pt.PermissionTypeID}
	}
	return nil
}

// DeletePermissionType removes a permission type
func (s *Store) DeletePermissionType(ctx context.Context, domainID, permissionTypeID string) error {
	result, err := s.exec(ctx,
		"DELETE FROM permission_types WHERE domain_id = $1 AND permission_type_id = $2",
		domainID, permissionTypeID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete permission type: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "permission type", ID: permissionTypeID}
	}
	return nil
}

// PermissionTypeExists checks whether a permission type id is registered
func (s *Store) PermissionTypeExists(ctx context.Context, domainID, permissionTypeID string) (bool, error) {
	var count int
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM permission_types WHERE domain_id = $1 AND permission_type_id = $2",
		domainID, permissionTypeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check permission type existence: %w", err)
	}
	return count > 0, nil
}

// ListPermissionTypes returns a domain's permission types ordered by id
func (s *Store) ListPermissionTypes(ctx context.Context, domainID string, offset, limit int) ([]*PermissionType, error) {
	query := `
		SELECT domain_id, permission_type_id, name, description, created_time, updated_time
		FROM permission_types WHERE domain_id = $1 ORDER BY permission_type_id
	` + limitClause(offset, limit)
	rows, err := s.query(ctx, query, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permission types: %w", err)
	}
	defer rows.Close()

	var types []*PermissionType
	for rows.Next() {
		pt := &PermissionType{}
		if err := rows.Scan(
			&pt.DomainID, &pt.PermissionTypeID, &pt.Name, &pt.Description, &pt.CreatedTime, &pt.UpdatedTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan permission type: %w", err)
		}
		types = append(types, pt)
	}
	return types, rows.Err()
}

const entityColumns = `domain_id, entity_id, entity_type_id, owner_id, parent_entity_id, name, description, full_text, original_entity_creation_time, shared_count, created_time, updated_time`

func scanEntity(scanner interface{ Scan(dest ...interface{}) error }) (*Entity, error) {
	entity := &Entity{}
	var parentID, description, fullText sql.NullString
	err := scanner.Scan(
		&entity.DomainID, &entity.EntityID, &entity.EntityTypeID, &entity.OwnerID,
		&parentID, &entity.Name, &description, &fullText,
		&entity.OriginalEntityCreationTime, &entity.SharedCount,
		&entity.CreatedTime, &entity.UpdatedTime,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		entity.ParentEntityID = &parentID.String
	}
	if description.Valid {
		entity.Description = &description.String
	}
	if fullText.Valid {
		entity.FullText = &fullText.String
	}
	return entity, nil
}

// CreateEntity inserts a new entity row
func (s *Store) CreateEntity(ctx context.Context, entity *Entity) error {
	exists, err := s.EntityExists(ctx, entity.DomainID, entity.EntityID)
	if err != nil {
		return err
	}
	if exists {
		return &DuplicateEntryError{Kind: "entity", ID: entity.EntityID}
	}
	_, err = s.exec(ctx, `
		INSERT INTO entities (`+entityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		entity.DomainID, entity.EntityID, entity.EntityTypeID, entity.OwnerID,
		entity.ParentEntityID, entity.Name, entity.Description, entity.FullText,
		entity.OriginalEntityCreationTime, entity.SharedCount,
		entity.CreatedTime, entity.UpdatedTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create entity: %w", err)
	}
	return nil
}

// GetEntity retrieves an entity by id
func (s *Store) GetEntity(ctx context.Context, domainID, entityID string) (*Entity, error) {
	entity, err := scanEntity(s.queryRow(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE domain_id = $1 AND entity_id = $2",
		domainID, entityID,
	))
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "entity", ID: entityID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}
	return entity, nil
}

// UpdateEntity updates an entity's mutable fields, including its parent
func (s *Store) UpdateEntity(ctx context.Context, entity *Entity) error {
	result, err := s.exec(ctx, `
		UPDATE entities SET entity_type_id = $1, owner_id = $2, parent_entity_id = $3,
			name = $4, description = $5, full_text = $6, updated_time = $7
		WHERE domain_id = $8 AND entity_id = $9
	`,
		entity.EntityTypeID, entity.OwnerID, entity.ParentEntityID,
		entity.Name, entity.Description, entity.FullText, nowMillis(),
		entity.DomainID, entity.EntityID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "entity", ID: entity.EntityID}
	}
	return nil
}

// DeleteEntity removes an entity and its direct grants
func (s *Store) DeleteEntity(ctx context.Context, domainID, entityID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM sharing_grants WHERE domain_id = $1 AND entity_id = $2", domainID, entityID,
	); err != nil {
		return fmt.Errorf("failed to delete entity grants: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM entities WHERE domain_id = $1 AND entity_id = $2", domainID, entityID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "entity", ID: entityID}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entity deletion: %w", err)
	}
	return nil
}

// EntityExists checks whether an entity id is registered in a domain
func (s *Store) EntityExists(ctx context.Context, domainID, entityID string) (bool, error) {
	var count int
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM entities WHERE domain_id = $1 AND entity_id = $2", domainID, entityID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check entity existence: %w", err)
	}
	return count > 0, nil
}

// HasChildEntities reports whether any entity names the given entity as
// its parent
func (s *Store) HasChildEntities(ctx context.Context, domainID, entityID string) (bool, error) {
	var count int
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM entities WHERE domain_id = $1 AND parent_entity_id = $2",
		domainID, entityID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check child entities: %w", err)
	}
	return count > 0, nil
}

// ListEntitiesByType returns a domain's entities of one type ordered by id
func (s *Store) ListEntitiesByType(ctx context.Context, domainID, entityTypeID string, offset, limit int) ([]*Entity, error) {
	query := "SELECT " + entityColumns + `
		FROM entities WHERE domain_id = $1 AND entity_type_id = $2 ORDER BY entity_id
	` + limitClause(offset, limit)
	rows, err := s.query(ctx, query, domainID, entityTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []*Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

// UpsertGrant inserts a grant row, or refreshes the grant type of an
// existing one. It reports whether a new row was created.
func (s *Store) UpsertGrant(ctx context.Context, grant *SharingGrant) (bool, error) {
	var existingType GrantType
	err := s.queryRow(ctx, `
		SELECT grant_type FROM sharing_grants
		WHERE domain_id = $1 AND entity_id = $2 AND group_id = $3 AND permission_type_id = $4
	`, grant.DomainID, grant.EntityID, grant.GroupID, grant.PermissionTypeID).Scan(&existingType)
	if err == sql.ErrNoRows {
		_, err = s.exec(ctx, `
			INSERT INTO sharing_grants (domain_id, entity_id, group_id, permission_type_id, grant_type, created_time, updated_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, grant.DomainID, grant.EntityID, grant.GroupID, grant.PermissionTypeID,
			grant.GrantType, grant.CreatedTime, grant.UpdatedTime)
		if err != nil {
			return false, fmt.Errorf("failed to create sharing grant: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check sharing grant: %w", err)
	}

	if existingType != grant.GrantType {
		_, err = s.exec(ctx, `
			UPDATE sharing_grants SET grant_type = $1, updated_time = $2
			WHERE domain_id = $3 AND entity_id = $4 AND group_id = $5 AND permission_type_id = $6
		`, grant.GrantType, nowMillis(),
			grant.DomainID, grant.EntityID, grant.GroupID, grant.PermissionTypeID)
		if err != nil {
			return false, fmt.Errorf("failed to update sharing grant: %w", err)
		}
	}
	return false, nil
}

// DeleteGrant removes a grant row and reports whether one existed
func (s *Store) DeleteGrant(ctx context.Context, domainID, entityID, groupID, permissionTypeID string) (bool, error) {
	result, err := s.exec(ctx, `
		DELETE FROM sharing_grants
		WHERE domain_id = $1 AND entity_id = $2 AND group_id = $3 AND permission_type_id = $4
	`, domainID, entityID, groupID, permissionTypeID)
	if err != nil {
		return false, fmt.Errorf("failed to delete sharing grant: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ListGrantsForEntity returns the direct grants on one entity. When
// permissionTypeIDs is non-empty only matching grants are returned, and
// cascadingOnly restricts to cascading grants.
func (s *Store) ListGrantsForEntity(ctx context.Context, domainID, entityID string, permissionTypeIDs []string, cascadingOnly bool) ([]*SharingGrant, error) {
	query := `
		SELECT domain_id, entity_id, group_id, permission_type_id, grant_type, created_time, updated_time
		FROM sharing_grants WHERE domain_id = $1 AND entity_id = $2
	`
	args := []interface{}{domainID, entityID}
	if len(permissionTypeIDs) > 0 {
		query += " AND permission_type_id IN ("
		for i, id := range permissionTypeIDs {
			if i > 0 {
				query += ", "
			}
			query += fmt.Sprintf("$%d", len(args)+1)
			args = append(args, id)
		}
		query += ")"
	}
	if cascadingOnly {
		query += fmt.Sprintf(" AND grant_type = $%d", len(args)+1)
		args = append(args, GrantDirectCascading)
	}
	query += " ORDER BY group_id, permission_type_id"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sharing grants: %w", err)
	}
	defer rows.Close()

	var grants []*SharingGrant
	for rows.Next() {
		grant := &SharingGrant{}
		if err := rows.Scan(
			&grant.DomainID, &grant.EntityID, &grant.GroupID, &grant.PermissionTypeID,
			&grant.GrantType, &grant.CreatedTime, &grant.UpdatedTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sharing grant: %w", err)
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

// CountDirectGrants returns the number of direct grant rows on an
// entity. The owner grant written at entity creation is not a share and
// is excluded.
func (s *Store) CountDirectGrants(ctx context.Context, domainID, entityID string) (int64, error) {
	var count int64
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM sharing_grants WHERE domain_id = $1 AND entity_id = $2 AND permission_type_id <> $3",
		domainID, entityID, OwnerPermissionTypeID(domainID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sharing grants: %w", err)
	}
	return count, nil
}

// RefreshSharedCount recomputes an entity's shared count from its grant
// rows, excluding the owner grant
func (s *Store) RefreshSharedCount(ctx context.Context, domainID, entityID string) error {
	_, err := s.exec(ctx, `
		UPDATE entities SET shared_count = (
			SELECT COUNT(*) FROM sharing_grants
			WHERE sharing_grants.domain_id = entities.domain_id
			  AND sharing_grants.entity_id = entities.entity_id
			  AND sharing_grants.permission_type_id <> $1
		)
		WHERE domain_id = $2 AND entity_id = $3
	`, OwnerPermissionTypeID(domainID), domainID, entityID)
	if err != nil {
		return fmt.Errorf("failed to refresh shared count: %w", err)
	}
	return nil
}
