package staging

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/ruleerrors"
	"github.com/iotaledger/bee-sub004/infrastructure/logger"
)

// CommitAllChanges writes everything staged in stagingArea in a single
// database transaction and then applies the in-memory side of the changes.
func CommitAllChanges(databaseContext model.DBManager, stagingArea *model.StagingArea) error {
	dbTx, err := databaseContext.Begin()
	if err != nil {
		return ruleerrors.NewErrStorage(err)
	}
	defer dbTx.RollbackUnlessClosed()

	err = stagingArea.Commit(dbTx)
	if err != nil {
		return ruleerrors.NewErrStorage(err)
	}

	err = dbTx.Commit()
	if err != nil {
		return ruleerrors.NewErrStorage(err)
	}

	stagingArea.PostCommit()
	return nil
}

// RetryPolicy configures CommitAllChangesWithRetry
type RetryPolicy struct {
	Interval   time.Duration
	MaxRetries uint64
}

// CommitAllChangesWithRetry is CommitAllChanges retried on storage
// failures. A failed transaction leaves nothing behind, so every attempt
// starts from the same state.
func CommitAllChangesWithRetry(ctx context.Context, databaseContext model.DBManager,
	stagingArea *model.StagingArea, policy RetryPolicy, log *logger.Logger) error {

	retryPolicy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Interval), policy.MaxRetries), ctx)

	operation := func() error {
		err := CommitAllChanges(databaseContext, stagingArea)
		if err != nil && !ruleerrors.IsStorageError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, nextTry time.Duration) {
		log.Warnf("Failed committing staged changes, retrying in %s: %s", nextTry, err)
	}

	return backoff.RetryNotify(operation, retryPolicy, notify)
}
