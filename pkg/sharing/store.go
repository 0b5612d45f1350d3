package sharing

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/platinummonkey/warden/pkg/observability"
)

// Store provides database operations for the sharing catalog
type Store struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// NewStore creates a new sharing catalog store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithMetrics attaches per-operation counters and latency histograms
func (s *Store) WithMetrics(m *observability.Metrics) *Store {
	s.metrics = m
	return s
}

// DB exposes the underlying database handle for transactional callers
func (s *Store) DB() *sql.DB {
	return s.db
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, query, args...)
	s.observe(query, start, err)
	return res, err
}

func (s *Store) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	s.observe(query, start, err)
	return rows, err
}

func (s *Store) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := s.db.QueryRowContext(ctx, query, args...)
	s.observe(query, start, nil)
	return row
}

func (s *Store) observe(query string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	op := sqlOperation(query)
	s.metrics.StoreOperationsTotal.WithLabelValues(op, status).Inc()
	s.metrics.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// sqlOperation derives a low-cardinality metric label, verb plus target
// table, from a statement
func sqlOperation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "unknown"
	}
	verb := strings.ToLower(fields[0])
	table := ""
	switch verb {
	case "update":
		if len(fields) > 1 {
			table = fields[1]
		}
	default:
		for i := 1; i < len(fields)-1; i++ {
			switch strings.ToUpper(fields[i]) {
			case "FROM", "INTO":
				table = fields[i+1]
			}
			if table != "" {
				break
			}
		}
	}
	if table == "" {
		return verb
	}
	return verb + "." + strings.ToLower(table)
}

// CreateDomain inserts a new domain
func (s *Store) CreateDomain(ctx context.Context, domain *Domain) error {
	exists, err := s.DomainExists(ctx, domain.DomainID)
	if err != nil {
		return err
	}
	if exists {
		return &DuplicateEntryError{Kind: "domain", ID: domain.DomainID}
	}

	query := `
		INSERT INTO domains (domain_id, name, description, initial_user_group_id, created_time, updated_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.exec(ctx, query,
		domain.DomainID, domain.Name, domain.Description, domain.InitialUserGroupID,
		domain.CreatedTime, domain.UpdatedTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create domain: %w", err)
	}
	return nil
}

// GetDomain retrieves a domain by id
func (s *Store) GetDomain(ctx context.Context, domainID string) (*Domain, error) {
	query := `
		SELECT domain_id, name, description, initial_user_group_id, created_time, updated_time
		FROM domains WHERE domain_id = $1
	`
	domain := &Domain{}
	var initialGroup sql.NullString
	err := s.queryRow(ctx, query, domainID).Scan(
		&domain.DomainID, &domain.Name, &domain.Description, &initialGroup,
		&domain.CreatedTime, &domain.UpdatedTime,
	)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "domain", ID: domainID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get domain: %w", err)
	}
	if initialGroup.Valid {
		domain.InitialUserGroupID = &initialGroup.String
	}
	return domain, nil
}

// UpdateDomain updates a domain's mutable fields
func (s *Store) UpdateDomain(ctx context.Context, domain *Domain) error {
	query := `
		UPDATE domains SET name = $1, description = $2, initial_user_group_id = $3, updated_time = $4
		WHERE domain_id = $5
	`
	result, err := s.exec(ctx, query,
		domain.Name, domain.Description, domain.InitialUserGroupID, nowMillis(), domain.DomainID,
	)
	if err != nil {
		return fmt.Errorf("failed to update domain: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "domain", ID: domain.DomainID}
	}
	return nil
}

// DeleteDomain deletes a domain and, through foreign keys, its records
func (s *Store) DeleteDomain(ctx context.Context, domainID string) error {
	result, err := s.exec(ctx, "DELETE FROM domains WHERE domain_id = $1", domainID)
	if err != nil {
		return fmt.Errorf("failed to delete domain: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "domain", ID: domainID}
	}
	return nil
}

// DomainExists checks whether a domain id is registered
func (s *Store) DomainExists(ctx context.Context, domainID string) (bool, error) {
	var count int
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM domains WHERE domain_id = $1", domainID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check domain existence: %w", err)
	}
	return count > 0, nil
}

// ListDomains returns domains ordered by id
func (s *Store) ListDomains(ctx context.Context, offset, limit int) ([]*Domain, error) {
	query := `
		SELECT domain_id, name, description, initial_user_group_id, created_time, updated_time
		FROM domains ORDER BY domain_id
	` + limitClause(offset, limit)
	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []*Domain
	for rows.Next() {
		domain := &Domain{}
		var initialGroup sql.NullString
		if err := rows.Scan(
			&domain.DomainID, &domain.Name, &domain.Description, &initialGroup,
			&domain.CreatedTime, &domain.UpdatedTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		if initialGroup.Valid {
			domain.InitialUserGroupID = &initialGroup.String
		}
		domains = append(domains, domain)
	}
	return domains, rows.Err()
}

// CreateUser inserts a new user row
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	exists, err := s.UserExists(ctx, user.DomainID, user.UserID)
	if err != nil {
		return err
	}
	if exists {
		return &DuplicateEntryError{Kind: "user", ID: user.UserID}
	}

	query := `
		INSERT INTO users (domain_id, user_id, user_name, first_name, last_name, email, icon, created_time, updated_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.exec(ctx, query,
		user.DomainID, user.UserID, user.UserName, user.FirstName, user.LastName,
		user.Email, user.Icon, user.CreatedTime, user.UpdatedTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func scanUser(scanner interface{ Scan(dest ...interface{}) error }) (*User, error) {
	user := &User{}
	var firstName, lastName, email sql.NullString
	err := scanner.Scan(
		&user.DomainID, &user.UserID, &user.UserName, &firstName, &lastName,
		&email, &user.Icon, &user.CreatedTime, &user.UpdatedTime,
	)
	if err != nil {
		return nil, err
	}
	if firstName.Valid {
		user.FirstName = &firstName.String
	}
	if lastName.Valid {
		user.LastName = &lastName.String
	}
	if email.Valid {
		user.Email = &email.String
	}
	return user, nil
}

// GetUser retrieves a user by id
func (s *Store) GetUser(ctx context.Context, domainID, userID string) (*User, error) {
	query := `
		SELECT domain_id, user_id, user_name, first_name, last_name, email, icon, created_time, updated_time
		FROM users WHERE domain_id = $1 AND user_id = $2
	`
	user, err := scanUser(s.queryRow(ctx, query, domainID, userID))
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "user", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateUser updates a user's profile fields
func (s *Store) UpdateUser(ctx context.Context, user *User) error {
	query := `
		UPDATE users SET user_name = $1, first_name = $2, last_name = $3, email = $4, icon = $5, updated_time = $6
		WHERE domain_id = $7 AND user_id = $8
	`
	result, err := s.exec(ctx, query,
		user.UserName, user.FirstName, user.LastName, user.Email, user.Icon,
		nowMillis(), user.DomainID, user.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "user", ID: user.UserID}
	}
	return nil
}

// DeleteUser removes a user row
func (s *Store) DeleteUser(ctx context.Context, domainID, userID string) error {
	result, err := s.exec(ctx,
		"DELETE FROM users WHERE domain_id = $1 AND user_id = $2", domainID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "user", ID: userID}
	}
	return nil
}

// UserExists checks whether a user id is registered in a domain
func (s *Store) UserExists(ctx context.Context, domainID, userID string) (bool, error) {
	var count int
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM users WHERE domain_id = $1 AND user_id = $2", domainID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

// ListUsers returns a domain's users ordered by id
func (s *Store) ListUsers(ctx context.Context, domainID string, offset, limit int) ([]*User, error) {
	query := `
		SELECT domain_id, user_id, user_name, first_name, last_name, email, icon, created_time, updated_time
		FROM users WHERE domain_id = $1 ORDER BY user_id
	` + limitClause(offset, limit)
	rows, err := s.query(ctx, query, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CreateGroup inserts a new group row
func (s *Store) CreateGroup(ctx context.Context, group *UserGroup) error {
	return s.createGroup(ctx, s.db, group)
}

func (s *Store) createGroup(ctx context.Context, q querier, group *UserGroup) error {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_groups WHERE domain_id = $1 AND group_id = $2",
		group.DomainID, group.GroupID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check group existence: %w", err)
	}
	if count > 0 {
		return &DuplicateEntryError{Kind: "group", ID: group.GroupID}
	}

	query := `
		INSERT INTO user_groups (domain_id, group_id, name, description, owner_id, group_type, group_cardinality, created_time, updated_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = q.ExecContext(ctx, query,
		group.DomainID, group.GroupID, group.Name, group.Description, group.OwnerID,
		group.GroupType, group.GroupCardinality, group.CreatedTime, group.UpdatedTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by id
func (s *Store) GetGroup(ctx context.Context, domainID, groupID string) (*UserGroup, error) {
	query := `
		SELECT domain_id, group_id, name, description, owner_id, group_type, group_cardinality, created_time, updated_time
		FROM user_groups WHERE domain_id = $1 AND group_id = $2
	`
	group := &UserGroup{}
	err := s.queryRow(ctx, query, domainID, groupID).Scan(
		&group.DomainID, &group.GroupID, &group.Name, &group.Description, &group.OwnerID,
		&group.GroupType, &group.GroupCardinality, &group.CreatedTime, &group.UpdatedTime,
	)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "group", ID: groupID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// UpdateGroup updates a group's name and description
func (s *Store) UpdateGroup(ctx context.Context, group *UserGroup) error {
	query := `
		UPDATE user_groups SET name = $1, description = $2, updated_time = $3
		WHERE domain_id = $4 AND group_id = $5
	`
	result, err := s.exec(ctx, query,
		group.Name, group.Description, nowMillis(), group.DomainID, group.GroupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "group", ID: group.GroupID}
	}
	return nil
}

// DeleteGroup removes a group and its admin and membership edges
func (s *Store) DeleteGroup(ctx context.Context, domainID, groupID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM group_memberships WHERE domain_id = $1 AND (parent_group_id = $2 OR child_id = $2)",
		domainID, groupID,
	); err != nil {
		return fmt.Errorf("failed to delete group memberships: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM group_admins WHERE domain_id = $1 AND group_id = $2", domainID, groupID,
	); err != nil {
		return fmt.Errorf("failed to delete group admins: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM sharing_grants WHERE domain_id = $1 AND group_id = $2", domainID, groupID,
	); err != nil {
		return fmt.Errorf("failed to delete group grants: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM user_groups WHERE domain_id = $1 AND group_id = $2", domainID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "group", ID: groupID}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit group deletion: %w", err)
	}
	return nil
}

// GroupExists checks whether a group id is registered in a domain
func (s *Store) GroupExists(ctx context.Context, domainID, groupID string) (bool, error) {
	var count int
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM user_groups WHERE domain_id = $1 AND group_id = $2", domainID, groupID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check group existence: %w", err)
	}
	return count > 0, nil
}

// ListGroups returns a domain's groups ordered by id
func (s *Store) ListGroups(ctx context.Context, domainID string, offset, limit int) ([]*UserGroup, error) {
	query := `
		SELECT domain_id, group_id, name, description, owner_id, group_type, group_cardinality, created_time, updated_time
		FROM user_groups WHERE domain_id = $1 ORDER BY group_id
	` + limitClause(offset, limit)
	rows, err := s.query(ctx, query, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*UserGroup
	for rows.Next() {
		group := &UserGroup{}
		if err := rows.Scan(
			&group.DomainID, &group.GroupID, &group.Name, &group.Description, &group.OwnerID,
			&group.GroupType, &group.GroupCardinality, &group.CreatedTime, &group.UpdatedTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// TransferGroupOwner swaps a group's owner and demotes the new owner
// from the admin set in one transaction
func (s *Store) TransferGroupOwner(ctx context.Context, domainID, groupID, newOwnerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM group_admins WHERE domain_id = $1 AND group_id = $2 AND admin_id = $3",
		domainID, groupID, newOwnerID,
	); err != nil {
		return fmt.Errorf("failed to demote new owner from admins: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE user_groups SET owner_id = $1, updated_time = $2 WHERE domain_id = $3 AND group_id = $4",
		newOwnerID, nowMillis(), domainID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to transfer group ownership: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &NotFoundError{Kind: "group", ID: groupID}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ownership transfer: %w", err)
	}
	return nil
}

// AddGroupAdmin inserts an admin edge
func (s *Store) AddGroupAdmin(ctx context.Context, domainID, groupID, adminID string) error {
	isAdmin, err := s.IsGroupAdmin(ctx, domainID, groupID, adminID)
	if err != nil {
		return err
	}
	if isAdmin {
		return &DuplicateEntryError{Kind: "group admin", ID: adminID}
	}
	_, err = s.exec(ctx,
		"INSERT INTO group_admins (domain_id, group_id, admin_id, created_time) VALUES ($1, $2, $3, $4)",
		domainID, groupID, adminID, nowMillis(),
	)
	if err != nil {
		return fmt.Errorf("failed to add group admin: %w", err)
	}
	return nil
}

// RemoveGroupAdmin deletes an admin edge; removing a non-admin is a no-op
func (s *Store) RemoveGroupAdmin(ctx context.Context, domainID, groupID, adminID string) error {
	_, err := s.exec(ctx,
		"DELETE FROM group_admins WHERE domain_id = $1 AND group_id = $2 AND admin_id = $3",
		domainID, groupID, adminID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove group admin: %w", err)
	}
	return nil
}

// IsGroupAdmin checks for an admin edge
func (s *Store) IsGroupAdmin(ctx context.Context, domainID, groupID, adminID string) (bool, error) {
	var count int
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM group_admins WHERE domain_id = $1 AND group_id = $2 AND admin_id = $3",
		domainID, groupID, adminID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check group admin: %w", err)
	}
	return count > 0, nil
}

// ListGroupAdmins returns the admin ids of a group
func (s *Store) ListGroupAdmins(ctx context.Context, domainID, groupID string) ([]string, error) {
	rows, err := s.query(ctx,
		"SELECT admin_id FROM group_admins WHERE domain_id = $1 AND group_id = $2 ORDER BY admin_id",
		domainID, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group admins: %w", err)
	}
	defer rows.Close()

	var admins []string
	for rows.Next() {
		var adminID string
		if err := rows.Scan(&adminID); err != nil {
			return nil, fmt.Errorf("failed to scan group admin: %w", err)
		}
		admins = append(admins, adminID)
	}
	return admins, rows.Err()
}

// AddMembership inserts a membership edge
func (s *Store) AddMembership(ctx context.Context, m *GroupMembership) error {
	exists, err := s.MembershipExists(ctx, m.DomainID, m.ParentGroupID, m.ChildID)
	if err != nil {
		return err
	}
	if exists {
		return &DuplicateEntryError{Kind: "group membership", ID: m.ChildID}
	}
	_, err = s.exec(ctx,
		"INSERT INTO group_memberships (domain_id, parent_group_id, child_id, child_type, created_time) VALUES ($1, $2, $3, $4, $5)",
		m.DomainID, m.ParentGroupID, m.ChildID, m.ChildType, m.CreatedTime,
	)
	if err != nil {
		return fmt.Errorf("failed to add group membership: %w", err)
	}
	return nil
}

// RemoveMembership deletes a membership edge
func (s *Store) RemoveMembership(ctx context.Context, domainID, parentGroupID, childID string) error {
	_, err := s.exec(ctx,
		"DELETE FROM group_memberships WHERE domain_id = $1 AND parent_group_id = $2 AND child_id = $3",
		domainID, parentGroupID, childID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove group membership: %w", err)
	}
	return nil
}

// MembershipExists checks for a direct membership edge
func (s *Store) MembershipExists(ctx context.Context, domainID, parentGroupID, childID string) (bool, error) {
	var count int
	err := s.queryRow(ctx,
		"SELECT COUNT(*) FROM group_memberships WHERE domain_id = $1 AND parent_group_id = $2 AND child_id = $3",
		domainID, parentGroupID, childID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}
	return count > 0, nil
}

// ListMembers returns the direct membership edges of a group, optionally
// filtered by member type
func (s *Store) ListMembers(ctx context.Context, domainID, parentGroupID string, childType MemberType) ([]*GroupMembership, error) {
	query := `
		SELECT domain_id, parent_group_id, child_id, child_type, created_time
		FROM group_memberships WHERE domain_id = $1 AND parent_group_id = $2
	`
	args := []interface{}{domainID, parentGroupID}
	if childType != "" {
		query += " AND child_type = $3"
		args = append(args, childType)
	}
	query += " ORDER BY child_id"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var members []*GroupMembership
	for rows.Next() {
		m := &GroupMembership{}
		if err := rows.Scan(&m.DomainID, &m.ParentGroupID, &m.ChildID, &m.ChildType, &m.CreatedTime); err != nil {
			return nil, fmt.Errorf("failed to scan group membership: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListParentGroups returns the ids of groups holding a direct edge to the
// given member
func (s *Store) ListParentGroups(ctx context.Context, domainID, childID string) ([]string, error) {
	rows, err := s.query(ctx,
		"SELECT parent_group_id FROM group_memberships WHERE domain_id = $1 AND child_id = $2 ORDER BY parent_group_id",
		domainID, childID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list parent groups: %w", err)
	}
	defer rows.Close()

	var parents []string
	for rows.Next() {
		var parentID string
		if err := rows.Scan(&parentID); err != nil {
			return nil, fmt.Errorf("failed to scan parent group: %w", err)
		}
		parents = append(parents, parentID)
	}
	return parents, rows.Err()
}

func limitClause(offset, limit int) string {
	clause := ""
	if limit >= 0 {
		clause += fmt.Sprintf(" LIMIT %d", limit)
	} else if offset > 0 {
		// sqlite rejects a bare OFFSET and postgres rejects a negative
		// LIMIT, so an unbounded page gets an effectively infinite one.
		clause += fmt.Sprintf(" LIMIT %d", math.MaxInt64)
	}
	if offset > 0 {
		clause += fmt.Sprintf(" OFFSET %d", offset)
	}
	return clause
}
