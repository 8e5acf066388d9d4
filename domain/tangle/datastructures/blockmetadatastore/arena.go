package blockmetadatastore

import (
	"sync"

	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

const arenaShardCount = 64

type arenaShard struct {
	sync.RWMutex
	entries map[externalapi.BlockID]*externalapi.BlockMetadata
}

// arena holds exactly one live BlockMetadata per retained block. Entries
// are only removed when their block is pruned.
type arena struct {
	shards [arenaShardCount]*arenaShard
}

func newArena() *arena {
	a := &arena{}
	for i := range a.shards {
		a.shards[i] = &arenaShard{entries: make(map[externalapi.BlockID]*externalapi.BlockMetadata)}
	}
	return a
}

func (a *arena) shard(blockID *externalapi.BlockID) *arenaShard {
	return a.shards[blockID.ByteArray()[0]%arenaShardCount]
}

func (a *arena) get(blockID *externalapi.BlockID) (*externalapi.BlockMetadata, bool) {
	shard := a.shard(blockID)
	shard.RLock()
	defer shard.RUnlock()

	metadata, ok := shard.entries[*blockID]
	return metadata, ok
}

// loadOrStore returns the live entry of blockID, storing metadata if there
// is none yet.
func (a *arena) loadOrStore(metadata *externalapi.BlockMetadata) *externalapi.BlockMetadata {
	shard := a.shard(metadata.BlockID())
	shard.Lock()
	defer shard.Unlock()

	if existing, ok := shard.entries[*metadata.BlockID()]; ok {
		return existing
	}
	shard.entries[*metadata.BlockID()] = metadata
	return metadata
}

func (a *arena) remove(blockID *externalapi.BlockID) {
	shard := a.shard(blockID)
	shard.Lock()
	defer shard.Unlock()

	delete(shard.entries, *blockID)
}

func (a *arena) len() int {
	count := 0
	for _, shard := range a.shards {
		shard.RLock()
		count += len(shard.entries)
		shard.RUnlock()
	}
	return count
}
