package sharing

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all sharing catalog migrations
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create domains table",
			SQL: `
				CREATE TABLE IF NOT EXISTS domains (
					domain_id VARCHAR(255) PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					description TEXT,
					initial_user_group_id VARCHAR(255),
					created_time BIGINT NOT NULL,
					updated_time BIGINT NOT NULL
				);
			`,
		},
		{
			Version:     2,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					domain_id VARCHAR(255) NOT NULL REFERENCES domains(domain_id) ON DELETE CASCADE,
					user_id VARCHAR(255) NOT NULL,
					user_name VARCHAR(255) NOT NULL,
					first_name VARCHAR(255),
					last_name VARCHAR(255),
					email VARCHAR(255),
					icon BYTEA,
					created_time BIGINT NOT NULL,
					updated_time BIGINT NOT NULL,
					PRIMARY KEY (domain_id, user_id)
				);

				CREATE INDEX idx_users_user_name ON users(domain_id, user_name);
			`,
		},
		{
			Version:     3,
			Description: "Create user_groups and group_admins tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS user_groups (
					domain_id VARCHAR(255) NOT NULL REFERENCES domains(domain_id) ON DELETE CASCADE,
					group_id VARCHAR(255) NOT NULL,
					name VARCHAR(255) NOT NULL,
					description TEXT,
					owner_id VARCHAR(255) NOT NULL,
					group_type VARCHAR(50) NOT NULL,
					group_cardinality VARCHAR(50) NOT NULL,
					created_time BIGINT NOT NULL,
					updated_time BIGINT NOT NULL,
					PRIMARY KEY (domain_id, group_id)
				);

				CREATE TABLE IF NOT EXISTS group_admins (
					domain_id VARCHAR(255) NOT NULL,
					group_id VARCHAR(255) NOT NULL,
					admin_id VARCHAR(255) NOT NULL,
					created_time BIGINT NOT NULL,
					PRIMARY KEY (domain_id, group_id, admin_id),
					FOREIGN KEY (domain_id, group_id) REFERENCES user_groups(domain_id, group_id) ON DELETE CASCADE
				);
			`,
		},
		{
			Version:     4,
			Description: "Create group_memberships table",
			SQL: `
				CREATE TABLE IF NOT EXISTS group_memberships (
					domain_id VARCHAR(255) NOT NULL,
					parent_group_id VARCHAR(255) NOT NULL,
					child_id VARCHAR(255) NOT NULL,
					child_type VARCHAR(50) NOT NULL,
					created_time BIGINT NOT NULL,
					PRIMARY KEY (domain_id, parent_group_id, child_id),
					FOREIGN KEY (domain_id, parent_group_id) REFERENCES user_groups(domain_id, group_id) ON DELETE CASCADE
				);

				CREATE INDEX idx_group_memberships_child ON group_memberships(domain_id, child_id);
			`,
		},
		{
			Version:     5,
			Description: "Create entity_types and permission_types tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS entity_types (
					domain_id VARCHAR(255) NOT NULL REFERENCES domains(domain_id) ON DELETE CASCADE,
					entity_type_id VARCHAR(255) NOT NULL,
					name VARCHAR(255) NOT NULL,
					description TEXT,
					created_time BIGINT NOT NULL,
					updated_time BIGINT NOT NULL,
					PRIMARY KEY (domain_id, entity_type_id)
				);

				CREATE TABLE IF NOT EXISTS permission_types (
					domain_id VARCHAR(255) NOT NULL REFERENCES domains(domain_id) ON DELETE CASCADE,
					permission_type_id VARCHAR(255) NOT NULL,
					name VARCHAR(255) NOT NULL,
					description TEXT,
					created_time BIGINT NOT NULL,
					updated_time BIGINT NOT NULL,
					PRIMARY KEY (domain_id, permission_type_id)
				);
			`,
		},
		{
			Version:     6,
			Description: "Create entities table",
			SQL: `
				CREATE TABLE IF NOT EXISTS entities (
					domain_id VARCHAR(255) NOT NULL REFERENCES domains(domain_id) ON DELETE CASCADE,
					entity_id VARCHAR(255) NOT NULL,
					entity_type_id VARCHAR(255) NOT NULL,
					owner_id VARCHAR(255) NOT NULL,
					parent_entity_id VARCHAR(255),
					name VARCHAR(255) NOT NULL,
					description TEXT,
					full_text TEXT,
					original_entity_creation_time BIGINT NOT NULL,
					shared_count BIGINT NOT NULL DEFAULT 0,
					created_time BIGINT NOT NULL,
					updated_time BIGINT NOT NULL,
					PRIMARY KEY (domain_id, entity_id)
				);

				CREATE INDEX idx_entities_entity_type ON entities(domain_id, entity_type_id);
				CREATE INDEX idx_entities_owner ON entities(domain_id, owner_id);
				CREATE INDEX idx_entities_parent ON entities(domain_id, parent_entity_id);
				CREATE INDEX idx_entities_shared_count ON entities(domain_id, shared_count);
				CREATE INDEX idx_entities_full_text ON entities(domain_id, LOWER(full_text));
			`,
		},
		{
			Version:     7,
			Description: "Create sharing_grants table",
			SQL: `
				CREATE TABLE IF NOT EXISTS sharing_grants (
					domain_id VARCHAR(255) NOT NULL,
					entity_id VARCHAR(255) NOT NULL,
					group_id VARCHAR(255) NOT NULL,
					permission_type_id VARCHAR(255) NOT NULL,
					grant_type VARCHAR(50) NOT NULL,
					created_time BIGINT NOT NULL,
					updated_time BIGINT NOT NULL,
					PRIMARY KEY (domain_id, entity_id, group_id, permission_type_id),
					FOREIGN KEY (domain_id, entity_id) REFERENCES entities(domain_id, entity_id) ON DELETE CASCADE
				);

				CREATE INDEX idx_sharing_grants_group ON sharing_grants(domain_id, group_id);
				CREATE INDEX idx_sharing_grants_permission ON sharing_grants(domain_id, permission_type_id);
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	// Create migration tracking table
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sharing_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get applied migrations
	rows, err := db.QueryContext(ctx, "SELECT version FROM sharing_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	// Run pending migrations
	migrations := GetMigrations()
	for _, migration := range migrations {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sharing_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
