// Package sharingtest provides an in-memory database preloaded with the
// catalog schema for tests of packages built on the sharing catalog.
package sharingtest

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// Schema is a sqlite rendition of the catalog migrations, without the
// Postgres-only bits.
const Schema = `
	CREATE TABLE domains (
		domain_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		initial_user_group_id TEXT,
		created_time BIGINT NOT NULL,
		updated_time BIGINT NOT NULL
	);

	CREATE TABLE users (
		domain_id TEXT NOT NULL REFERENCES domains(domain_id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		first_name TEXT,
		last_name TEXT,
		email TEXT,
		icon BLOB,
		created_time BIGINT NOT NULL,
		updated_time BIGINT NOT NULL,
		PRIMARY KEY (domain_id, user_id)
	);

	CREATE TABLE user_groups (
		domain_id TEXT NOT NULL REFERENCES domains(domain_id) ON DELETE CASCADE,
		group_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		owner_id TEXT NOT NULL,
		group_type TEXT NOT NULL,
		group_cardinality TEXT NOT NULL,
		created_time BIGINT NOT NULL,
		updated_time BIGINT NOT NULL,
		PRIMARY KEY (domain_id, group_id)
	);

	CREATE TABLE group_admins (
		domain_id TEXT NOT NULL,
		group_id TEXT NOT NULL,
		admin_id TEXT NOT NULL,
		created_time BIGINT NOT NULL,
		PRIMARY KEY (domain_id, group_id, admin_id),
		FOREIGN KEY (domain_id, group_id) REFERENCES user_groups(domain_id, group_id) ON DELETE CASCADE
	);

	CREATE TABLE group_memberships (
		domain_id TEXT NOT NULL,
		parent_group_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		child_type TEXT NOT NULL,
		created_time BIGINT NOT NULL,
		PRIMARY KEY (domain_id, parent_group_id, child_id),
		FOREIGN KEY (domain_id, parent_group_id) REFERENCES user_groups(domain_id, group_id) ON DELETE CASCADE
	);

	CREATE TABLE entity_types (
		domain_id TEXT NOT NULL REFERENCES domains(domain_id) ON DELETE CASCADE,
		entity_type_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		created_time BIGINT NOT NULL,
		updated_time BIGINT NOT NULL,
		PRIMARY KEY (domain_id, entity_type_id)
	);

	CREATE TABLE permission_types (
		domain_id TEXT NOT NULL REFERENCES domains(domain_id) ON DELETE CASCADE,
		permission_type_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		created_time BIGINT NOT NULL,
		updated_time BIGINT NOT NULL,
		PRIMARY KEY (domain_id, permission_type_id)
	);

	CREATE TABLE entities (
		domain_id TEXT NOT NULL REFERENCES domains(domain_id) ON DELETE CASCADE,
		entity_id TEXT NOT NULL,
		entity_type_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		parent_entity_id TEXT,
		name TEXT NOT NULL,
		description TEXT,
		full_text TEXT,
		original_entity_creation_time BIGINT NOT NULL,
		shared_count BIGINT NOT NULL DEFAULT 0,
		created_time BIGINT NOT NULL,
		updated_time BIGINT NOT NULL,
		PRIMARY KEY (domain_id, entity_id)
	);

	CREATE TABLE sharing_grants (
		domain_id TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		group_id TEXT NOT NULL,
		permission_type_id TEXT NOT NULL,
		grant_type TEXT NOT NULL,
		created_time BIGINT NOT NULL,
		updated_time BIGINT NOT NULL,
		PRIMARY KEY (domain_id, entity_id, group_id, permission_type_id),
		FOREIGN KEY (domain_id, entity_id) REFERENCES entities(domain_id, entity_id) ON DELETE CASCADE
	);
`

// OpenDB opens an in-memory sqlite database loaded with the catalog
// schema. It is closed when the test finishes.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("Failed to create test tables: %v", err)
	}
	return db
}
