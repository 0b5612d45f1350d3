package sharing

import (
	"context"
	"fmt"

	"github.com/platinummonkey/warden/pkg/observability"
)

// Reconciler repairs derived state that can drift under crashes or
// manual intervention: shared_count denormalizations and grant rows
// whose grantee group no longer exists.
type Reconciler struct {
	store  *Store
	logger *observability.Logger
}

// NewReconciler creates a reconciler over the given store
func NewReconciler(store *Store, logger *observability.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// ReconcileSharedCounts recomputes shared_count for every entity from
// the grant rows and returns how many rows changed. Owner grants do not
// count as shares.
func (r *Reconciler) ReconcileSharedCounts(ctx context.Context) (int64, error) {
	result, err := r.store.exec(ctx, `
		UPDATE entities SET shared_count = (
			SELECT COUNT(*) FROM sharing_grants g
			WHERE g.domain_id = entities.domain_id AND g.entity_id = entities.entity_id
			  AND g.permission_type_id <> g.domain_id || ':`+OwnerPermissionName+`'
		)
		WHERE shared_count <> (
			SELECT COUNT(*) FROM sharing_grants g
			WHERE g.domain_id = entities.domain_id AND g.entity_id = entities.entity_id
			  AND g.permission_type_id <> g.domain_id || ':`+OwnerPermissionName+`'
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile shared counts: %w", err)
	}
	changed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reconciled rows: %w", err)
	}
	if changed > 0 {
		r.logger.WithField("entities", changed).Warn("repaired drifted shared counts")
	}
	return changed, nil
}

// PruneOrphanGrants deletes grant rows whose grantee group was removed
// without the grants going with it
func (r *Reconciler) PruneOrphanGrants(ctx context.Context) (int64, error) {
	result, err := r.store.exec(ctx, `
		DELETE FROM sharing_grants
		WHERE NOT EXISTS (
			SELECT 1 FROM user_groups g
			WHERE g.domain_id = sharing_grants.domain_id AND g.group_id = sharing_grants.group_id
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prune orphan grants: %w", err)
	}
	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned grants: %w", err)
	}
	if pruned > 0 {
		r.logger.WithField("grants", pruned).Warn("pruned grants with missing grantee groups")
	}
	return pruned, nil
}

// Run performs one full reconciliation pass. Orphan grants go first so
// the recomputed counts do not include them.
func (r *Reconciler) Run(ctx context.Context) error {
	if _, err := r.PruneOrphanGrants(ctx); err != nil {
		return err
	}
	if _, err := r.ReconcileSharedCounts(ctx); err != nil {
		return err
	}
	return nil
}
