package sharing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// SearchEvaluator compiles filter lists into a single scan over a
// domain's entities. All filters combine with AND semantics. The
// permission filter cannot be pushed into SQL because it depends on the
// caller's group closure, so it is applied to candidates after the scan,
// with pagination applied to the filtered result.
type SearchEvaluator struct {
	store  *Store
	engine *PermissionEngine
}

// NewSearchEvaluator creates an evaluator over the given store and engine
func NewSearchEvaluator(store *Store, engine *PermissionEngine) *SearchEvaluator {
	return &SearchEvaluator{store: store, engine: engine}
}

// SearchEntities returns the entities matching every filter, ordered by
// entity id. limit -1 means unbounded; offset skips matches after
// filtering.
func (e *SearchEvaluator) SearchEntities(ctx context.Context, domainID, userID string, filters []SearchFilter, offset, limit int) ([]*Entity, error) {
	var clauses []string
	args := []interface{}{domainID}
	var permissionTypeIDs []string

	for _, filter := range filters {
		switch filter.Field {
		case FieldFullText:
			if filter.Condition != ConditionFullText && filter.Condition != ConditionEqual {
				return nil, fmt.Errorf("unsupported condition %q for field %s", filter.Condition, filter.Field)
			}
			args = append(args, "%"+strings.ToLower(filter.Value)+"%")
			clauses = append(clauses, fmt.Sprintf("LOWER(full_text) LIKE $%d", len(args)))
		case FieldEntityTypeID:
			op, err := equalityOp(filter.Condition)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", filter.Field, err)
			}
			args = append(args, filter.Value)
			clauses = append(clauses, fmt.Sprintf("entity_type_id %s $%d", op, len(args)))
		case FieldOwnerID:
			op, err := equalityOp(filter.Condition)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", filter.Field, err)
			}
			args = append(args, filter.Value)
			clauses = append(clauses, fmt.Sprintf("owner_id %s $%d", op, len(args)))
		case FieldSharedCount:
			if filter.Condition != ConditionGTE {
				return nil, fmt.Errorf("unsupported condition %q for field %s", filter.Condition, filter.Field)
			}
			threshold, err := strconv.ParseInt(filter.Value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("field %s: value %q is not numeric", filter.Field, filter.Value)
			}
			args = append(args, threshold)
			clauses = append(clauses, fmt.Sprintf("shared_count >= $%d", len(args)))
		case FieldPermissionTypeID:
			if filter.Condition != ConditionEqual {
				return nil, fmt.Errorf("unsupported condition %q for field %s", filter.Condition, filter.Field)
			}
			permissionTypeIDs = append(permissionTypeIDs, filter.Value)
		default:
			return nil, fmt.Errorf("unknown search field %q", filter.Field)
		}
	}

	query := "SELECT " + entityColumns + " FROM entities WHERE domain_id = $1"
	for _, clause := range clauses {
		query += " AND " + clause
	}
	query += " ORDER BY entity_id"

	// Without a permission filter the pagination pushes down to SQL.
	if len(permissionTypeIDs) == 0 {
		query += limitClause(offset, limit)
	}

	rows, err := e.store.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search entities: %w", err)
	}
	defer rows.Close()

	var candidates []*Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		candidates = append(candidates, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to search entities: %w", err)
	}

	if len(permissionTypeIDs) == 0 {
		return candidates, nil
	}

	var matched []*Entity
	for _, entity := range candidates {
		accessible := true
		for _, permissionTypeID := range permissionTypeIDs {
			allowed, err := e.engine.UserHasAccess(ctx, domainID, userID, entity.EntityID, permissionTypeID)
			if err != nil {
				return nil, err
			}
			if !allowed {
				accessible = false
				break
			}
		}
		if accessible {
			matched = append(matched, entity)
		}
	}

	if offset > 0 {
		if offset >= len(matched) {
			return nil, nil
		}
		matched = matched[offset:]
	}
	if limit >= 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func equalityOp(condition SearchCondition) (string, error) {
	switch condition {
	case ConditionEqual:
		return "=", nil
	case ConditionNot:
		return "<>", nil
	default:
		return "", fmt.Errorf("unsupported condition %q", condition)
	}
}
