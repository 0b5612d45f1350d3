package sharing

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a referenced domain, user, group, entity or
// vocabulary entry does not exist. Existence-check predicates return
// false instead of this error.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// DuplicateEntryError indicates an attempt to create a record whose id
// already exists. Replication handlers treat it as a successful replay.
type DuplicateEntryError struct {
	Kind string
	ID   string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.ID)
}

// CycleError indicates a group-nesting or entity-parenting mutation that
// would create a cycle. The mutation is rejected before any write.
type CycleError struct {
	Kind string
	ID   string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("operation on %s %q would create a cycle", e.Kind, e.ID)
}

// NotAMemberError indicates an operation that requires prior group
// membership, such as ownership transfer or admin promotion
type NotAMemberError struct {
	GroupID string
	UserID  string
}

func (e *NotAMemberError) Error() string {
	return fmt.Sprintf("user %q is not a member of group %q", e.UserID, e.GroupID)
}

// InvalidGrantError indicates a share or revoke referencing an unknown
// group or permission type, or the reserved owner permission
type InvalidGrantError struct {
	Reason string
}

func (e *InvalidGrantError) Error() string {
	return fmt.Sprintf("invalid grant: %s", e.Reason)
}

// IsNotFound reports whether err wraps a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsDuplicateEntry reports whether err wraps a DuplicateEntryError
func IsDuplicateEntry(err error) bool {
	var dup *DuplicateEntryError
	return errors.As(err, &dup)
}
