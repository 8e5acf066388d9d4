package model

import "github.com/pkg/errors"

// StagingShard is the set of changes a single store staged in a
// StagingArea.
type StagingShard interface {
	// Commit writes the staged changes into dbTx. It must not touch
	// in-memory state, so that it can run again if dbTx fails to commit.
	Commit(dbTx DBTransaction) error
}

// PostCommitStagingShard is a StagingShard that also updates in-memory
// state (caches, arenas) once the changes are durable.
type PostCommitStagingShard interface {
	StagingShard
	PostCommit()
}

// StagingArea collects the changes of a single operation across all
// stores, so that they are committed in one database transaction.
// A StagingArea is not safe for concurrent use.
type StagingArea struct {
	shards      map[string]StagingShard
	shardOrder  []string
	isCommitted bool
}

// NewStagingArea creates a new, empty staging area.
func NewStagingArea() *StagingArea {
	return &StagingArea{
		shards: make(map[string]StagingShard),
	}
}

// GetOrCreateShard attempts to retrieve a shard with the given name.
// If it does not exist - a new shard is created using `createFunc`.
func (sa *StagingArea) GetOrCreateShard(shardName string, createFunc func() StagingShard) StagingShard {
	if _, ok := sa.shards[shardName]; !ok {
		sa.shards[shardName] = createFunc()
		sa.shardOrder = append(sa.shardOrder, shardName)
	}
	return sa.shards[shardName]
}

// Commit writes all staged changes into dbTx. It may be called again with
// a fresh transaction if committing dbTx failed.
func (sa *StagingArea) Commit(dbTx DBTransaction) error {
	if sa.isCommitted {
		return errors.New("Attempt to call Commit on already committed stagingArea")
	}

	for _, shardName := range sa.shardOrder {
		err := sa.shards[shardName].Commit(dbTx)
		if err != nil {
			return err
		}
	}
	return nil
}

// PostCommit must be called once the transaction passed to Commit is
// durable. It applies in-memory updates and seals the staging area.
func (sa *StagingArea) PostCommit() {
	if sa.isCommitted {
		panic("Attempt to call PostCommit on already committed stagingArea")
	}
	sa.isCommitted = true

	for _, shardName := range sa.shardOrder {
		if postCommitShard, ok := sa.shards[shardName].(PostCommitStagingShard); ok {
			postCommitShard.PostCommit()
		}
	}
}
