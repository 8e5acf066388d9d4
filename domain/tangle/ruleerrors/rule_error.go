package ruleerrors

import (
	"fmt"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrDuplicateBlock indicates a block with the same id already
	// exists.
	ErrDuplicateBlock = newRuleError("ErrDuplicateBlock")

	// ErrInvalidParentsCount indicates a block has less than one or more
	// than eight parents.
	ErrInvalidParentsCount = newRuleError("ErrInvalidParentsCount")

	// ErrParentsNotSorted indicates a block's parents are not sorted in
	// ascending byte order, or contain duplicates.
	ErrParentsNotSorted = newRuleError("ErrParentsNotSorted")

	// ErrInvalidMilestone indicates a milestone payload failed validation.
	ErrInvalidMilestone = newRuleError("ErrInvalidMilestone")

	// ErrConflictingMilestone indicates two different blocks claim the
	// same milestone index.
	ErrConflictingMilestone = newRuleError("ErrConflictingMilestone")

	// ErrMilestoneNotFound indicates there's no milestone for the
	// requested index.
	ErrMilestoneNotFound = newRuleError("ErrMilestoneNotFound")

	// ErrMilestoneOutOfOrder indicates a white-flag run was requested for
	// an index other than the one following the latest solid milestone.
	ErrMilestoneOutOfOrder = newRuleError("ErrMilestoneOutOfOrder")

	// ErrMilestoneMerkleRootMismatch indicates the merkle root computed by
	// a white-flag run differs from the one the milestone declares.
	ErrMilestoneMerkleRootMismatch = newRuleError("ErrMilestoneMerkleRootMismatch")

	// ErrInvalidCounts indicates the white-flag bookkeeping doesn't add
	// up. It always points at a logic or data corruption bug.
	ErrInvalidCounts = newRuleError("ErrInvalidCounts")

	// ErrPruningTargetTooRecent indicates the requested pruning target is
	// inside the window that must be retained.
	ErrPruningTargetTooRecent = newRuleError("ErrPruningTargetTooRecent")

	// ErrPruningTargetAlreadyPruned indicates the requested pruning target
	// is not above the current pruning index.
	ErrPruningTargetAlreadyPruned = newRuleError("ErrPruningTargetAlreadyPruned")

	// ErrNoTipsAvailable indicates the tip pool is empty.
	ErrNoTipsAvailable = newRuleError("ErrNoTipsAvailable")

	// ErrBlockNotFound indicates the requested block is unknown.
	ErrBlockNotFound = newRuleError("ErrBlockNotFound")

	// ErrSnapshotOnInitializedTangle indicates a snapshot was loaded into
	// a tangle that already confirmed milestones.
	ErrSnapshotOnInitializedTangle = newRuleError("ErrSnapshotOnInitializedTangle")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or milestone failed due to one of the tangle
// rules. The caller can use errors.Is/As to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// ErrMissingAncestors lists parents that are neither present nor solid
// entry points.
type ErrMissingAncestors struct {
	MissingBlockIDs []*externalapi.BlockID
}

func (e ErrMissingAncestors) Error() string {
	return fmt.Sprintf("missing the following ancestors: %v",
		externalapi.BlockIDsToStrings(e.MissingBlockIDs))
}

// NewErrMissingAncestor creates a new ErrMissingAncestors error wrapped in a RuleError
func NewErrMissingAncestor(missingBlockIDs []*externalapi.BlockID) error {
	return errors.WithStack(RuleError{
		message: "ErrMissingAncestor",
		inner:   ErrMissingAncestors{missingBlockIDs},
	})
}

// IsMissingAncestorError returns the missing ids carried by err, if err
// is a missing-ancestor error.
func IsMissingAncestorError(err error) ([]*externalapi.BlockID, bool) {
	missing := ErrMissingAncestors{}
	if !errors.As(err, &missing) {
		return nil, false
	}
	return missing.MissingBlockIDs, true
}

// ErrCountsMismatch carries the white-flag counters that failed to add up.
type ErrCountsMismatch struct {
	Referenced    int
	Included      int
	Conflicting   int
	NoTransaction int
}

func (e ErrCountsMismatch) Error() string {
	return fmt.Sprintf("referenced %d != included %d + conflicting %d + no transaction %d",
		e.Referenced, e.Included, e.Conflicting, e.NoTransaction)
}

// NewErrInvalidCounts creates a new ErrCountsMismatch error wrapped in a RuleError
func NewErrInvalidCounts(referenced, included, conflicting, noTransaction int) error {
	return errors.WithStack(RuleError{
		message: "ErrInvalidCounts",
		inner:   ErrCountsMismatch{referenced, included, conflicting, noTransaction},
	})
}

// StorageError wraps a failure of the storage adapter. Batches are all or
// nothing, so an operation that failed with a StorageError may be retried.
type StorageError struct {
	inner error
}

func (e StorageError) Error() string {
	return "storage error: " + e.inner.Error()
}

// Unwrap satisfies the errors.Unwrap interface
func (e StorageError) Unwrap() error {
	return e.inner
}

// NewErrStorage wraps err in a StorageError
func NewErrStorage(err error) error {
	return errors.WithStack(StorageError{inner: err})
}

// IsStorageError returns whether err was caused by the storage adapter.
func IsStorageError(err error) bool {
	return errors.As(err, &StorageError{})
}
