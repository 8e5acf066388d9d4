package consensusstatestore

import (
	"sync"

	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/database/serialization"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

var latestSolidMilestoneIndexKey = database.MakeBucket(nil).Key([]byte("latest-solid-milestone-index"))
var pruningIndexKey = database.MakeBucket(nil).Key([]byte("pruning-index"))
var ledgerCommitmentKey = database.MakeBucket(nil).Key([]byte("ledger-commitment"))

type consensusStateStagingShard struct {
	store                     *consensusStateStore
	latestSolidMilestoneIndex *externalapi.MilestoneIndex
	pruningIndex              *externalapi.MilestoneIndex
	ledgerCommitment          []byte
}

func (css *consensusStateStore) stagingShard(stagingArea *model.StagingArea) *consensusStateStagingShard {
	return stagingArea.GetOrCreateShard("ConsensusStateStore", func() model.StagingShard {
		return &consensusStateStagingShard{store: css}
	}).(*consensusStateStagingShard)
}

func (csss *consensusStateStagingShard) Commit(dbTx model.DBTransaction) error {
	if csss.latestSolidMilestoneIndex != nil {
		err := dbTx.Put(latestSolidMilestoneIndexKey, serialization.SerializeMilestoneIndex(*csss.latestSolidMilestoneIndex))
		if err != nil {
			return err
		}
	}
	if csss.pruningIndex != nil {
		err := dbTx.Put(pruningIndexKey, serialization.SerializeMilestoneIndex(*csss.pruningIndex))
		if err != nil {
			return err
		}
	}
	if csss.ledgerCommitment != nil {
		err := dbTx.Put(ledgerCommitmentKey, csss.ledgerCommitment)
		if err != nil {
			return err
		}
	}
	return nil
}

func (csss *consensusStateStagingShard) PostCommit() {
	csss.store.mutex.Lock()
	defer csss.store.mutex.Unlock()

	if csss.latestSolidMilestoneIndex != nil {
		csss.store.latestSolidMilestoneIndexCache = csss.latestSolidMilestoneIndex
	}
	if csss.pruningIndex != nil {
		csss.store.pruningIndexCache = csss.pruningIndex
	}
	if csss.ledgerCommitment != nil {
		csss.store.ledgerCommitmentCache = csss.ledgerCommitment
	}
}

// consensusStateStore holds the singleton values of the tangle
type consensusStateStore struct {
	mutex                          sync.RWMutex
	latestSolidMilestoneIndexCache *externalapi.MilestoneIndex
	pruningIndexCache              *externalapi.MilestoneIndex
	ledgerCommitmentCache          []byte
}

// New instantiates a new ConsensusStateStore
func New() model.ConsensusStateStore {
	return &consensusStateStore{}
}

func (css *consensusStateStore) IsStaged(stagingArea *model.StagingArea) bool {
	stagingShard := css.stagingShard(stagingArea)
	return stagingShard.latestSolidMilestoneIndex != nil || stagingShard.pruningIndex != nil ||
		stagingShard.ledgerCommitment != nil
}

// StageLatestSolidMilestoneIndex stages the latest solid milestone index
func (css *consensusStateStore) StageLatestSolidMilestoneIndex(stagingArea *model.StagingArea, index externalapi.MilestoneIndex) {
	css.stagingShard(stagingArea).latestSolidMilestoneIndex = &index
}

// LatestSolidMilestoneIndex returns the latest solid milestone index. A
// tangle that was never initialized is at index 0.
func (css *consensusStateStore) LatestSolidMilestoneIndex(dbContext model.DBReader,
	stagingArea *model.StagingArea) (externalapi.MilestoneIndex, error) {

	if index := css.stagingShard(stagingArea).latestSolidMilestoneIndex; index != nil {
		return *index, nil
	}
	return css.index(dbContext, latestSolidMilestoneIndexKey, &css.latestSolidMilestoneIndexCache)
}

// StagePruningIndex stages the pruning index
func (css *consensusStateStore) StagePruningIndex(stagingArea *model.StagingArea, index externalapi.MilestoneIndex) {
	css.stagingShard(stagingArea).pruningIndex = &index
}

// PruningIndex returns the index of the latest pruned milestone
func (css *consensusStateStore) PruningIndex(dbContext model.DBReader,
	stagingArea *model.StagingArea) (externalapi.MilestoneIndex, error) {

	if index := css.stagingShard(stagingArea).pruningIndex; index != nil {
		return *index, nil
	}
	return css.index(dbContext, pruningIndexKey, &css.pruningIndexCache)
}

// StageLedgerCommitment stages the serialized ledger commitment
func (css *consensusStateStore) StageLedgerCommitment(stagingArea *model.StagingArea, serializedCommitment []byte) {
	css.stagingShard(stagingArea).ledgerCommitment = append([]byte(nil), serializedCommitment...)
}

// LedgerCommitment returns the serialized ledger commitment, or
// database.ErrNotFound if no ledger was booked yet
func (css *consensusStateStore) LedgerCommitment(dbContext model.DBReader, stagingArea *model.StagingArea) ([]byte, error) {
	if commitment := css.stagingShard(stagingArea).ledgerCommitment; commitment != nil {
		return commitment, nil
	}

	css.mutex.RLock()
	cached := css.ledgerCommitmentCache
	css.mutex.RUnlock()
	if cached != nil {
		return cached, nil
	}

	commitment, err := dbContext.Get(ledgerCommitmentKey)
	if err != nil {
		return nil, err
	}

	css.mutex.Lock()
	defer css.mutex.Unlock()
	if css.ledgerCommitmentCache == nil {
		css.ledgerCommitmentCache = commitment
	}
	return css.ledgerCommitmentCache, nil
}

// IsInitialized returns whether the tangle state was ever committed
func (css *consensusStateStore) IsInitialized(dbContext model.DBReader, stagingArea *model.StagingArea) (bool, error) {
	if css.stagingShard(stagingArea).latestSolidMilestoneIndex != nil {
		return true, nil
	}
	css.mutex.RLock()
	cached := css.latestSolidMilestoneIndexCache
	css.mutex.RUnlock()
	if cached != nil {
		return true, nil
	}
	return dbContext.Has(latestSolidMilestoneIndexKey)
}

func (css *consensusStateStore) index(dbContext model.DBReader, key model.DBKey,
	cache **externalapi.MilestoneIndex) (externalapi.MilestoneIndex, error) {

	css.mutex.RLock()
	cached := *cache
	css.mutex.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	indexBytes, err := dbContext.Get(key)
	if database.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	index, err := serialization.DeserializeMilestoneIndex(indexBytes)
	if err != nil {
		return 0, err
	}

	css.mutex.Lock()
	defer css.mutex.Unlock()
	if *cache == nil {
		*cache = &index
	}
	return **cache, nil
}
