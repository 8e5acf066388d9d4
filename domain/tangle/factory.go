package tangle

import (
	"os"
	"sync"

	"github.com/iotaledger/bee-sub004/domain/dagconfig"
	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/datastructures/blockmetadatastore"
	"github.com/iotaledger/bee-sub004/domain/tangle/datastructures/blockstore"
	"github.com/iotaledger/bee-sub004/domain/tangle/datastructures/childrenstore"
	"github.com/iotaledger/bee-sub004/domain/tangle/datastructures/consensusstatestore"
	"github.com/iotaledger/bee-sub004/domain/tangle/datastructures/milestonestore"
	"github.com/iotaledger/bee-sub004/domain/tangle/datastructures/pendingsolidificationstore"
	"github.com/iotaledger/bee-sub004/domain/tangle/datastructures/solidentrypointstore"
	"github.com/iotaledger/bee-sub004/domain/tangle/datastructures/unreferencedblockstore"
	"github.com/iotaledger/bee-sub004/domain/tangle/datastructures/utxostore"
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
	"github.com/iotaledger/bee-sub004/domain/tangle/processes/dagtopologymanager"
	"github.com/iotaledger/bee-sub004/domain/tangle/processes/dagtraversalmanager"
	"github.com/iotaledger/bee-sub004/domain/tangle/processes/milestonemanager"
	"github.com/iotaledger/bee-sub004/domain/tangle/processes/pruningmanager"
	"github.com/iotaledger/bee-sub004/domain/tangle/processes/solidifier"
	"github.com/iotaledger/bee-sub004/domain/tangle/processes/tipselection"
	"github.com/iotaledger/bee-sub004/domain/tangle/processes/whiteflag"
	"github.com/iotaledger/bee-sub004/domain/tangle/utils/staging"
	infrastructuredatabase "github.com/iotaledger/bee-sub004/infrastructure/db/database"
	"github.com/iotaledger/bee-sub004/infrastructure/db/database/badgerdb"
	"github.com/iotaledger/bee-sub004/infrastructure/db/database/ldb"
	"github.com/iotaledger/bee-sub004/util/prioritylock"
	"github.com/pkg/errors"
)

// Factory instantiates new Tangles
type Factory interface {
	NewTangle(params *dagconfig.Params, db infrastructuredatabase.Database, events *Events) (Tangle, error)
	NewTestTangle(params *dagconfig.Params, testName string) (tc TestTangle, teardown func(keepDataDir bool), err error)

	SetTestDataDir(dataDir string)
	SetTestDatabaseType(databaseType string)
	SetTestClock(clock tipselection.Clock)
}

// The storage backends a test tangle can run on
const (
	DatabaseTypeLevelDB = "leveldb"
	DatabaseTypeBadger  = "badger"
)

type factory struct {
	dataDir      string
	databaseType string
	clock        tipselection.Clock
}

// NewFactory creates a new Tangle factory
func NewFactory() Factory {
	return &factory{
		databaseType: DatabaseTypeLevelDB,
	}
}

// NewTangle instantiates a new Tangle over db. A database that holds no
// tangle is initialized with the root solid entry point of params.
func (f *factory) NewTangle(params *dagconfig.Params, db infrastructuredatabase.Database,
	events *Events) (Tangle, error) {

	return f.newTangle(params, db, events)
}

func (f *factory) newTangle(params *dagconfig.Params, db infrastructuredatabase.Database,
	events *Events) (*tangle, error) {

	err := params.Validate()
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = &Events{}
	}

	dbManager := database.New(db)

	// Data Structures
	blockStore, err := blockstore.New(dbManager, params.BlockCacheSize, false)
	if err != nil {
		return nil, err
	}
	blockMetadataStore := blockmetadatastore.New()
	childrenStore := childrenstore.New()
	milestoneStore := milestonestore.New()
	solidEntryPointStore, err := solidentrypointstore.New(dbManager)
	if err != nil {
		return nil, err
	}
	utxoStore := utxostore.New()
	consensusStateStore := consensusstatestore.New()
	unreferencedBlockStore := unreferencedblockstore.New()
	pendingSolidificationStore := pendingsolidificationstore.New()

	// Processes
	dagTopologyManager := dagtopologymanager.New(
		dbManager,
		blockStore,
		blockMetadataStore,
		childrenStore,
		solidEntryPointStore)
	dagTraversalManager := dagtraversalmanager.New(
		dagTopologyManager)
	solidifierInstance := solidifier.New(
		dbManager,
		dagTopologyManager,
		blockMetadataStore,
		pendingSolidificationStore,
		func(index externalapi.MilestoneIndex, blockID *externalapi.BlockID) {
			log.Debugf("Milestone %d in block %s is solid", index, blockID)
			events.milestoneSolid(index, blockID)
		})
	milestoneManager := milestonemanager.New(
		dbManager,
		params,
		milestoneStore,
		blockMetadataStore)
	whiteFlagEngine := whiteflag.New(
		dbManager,
		dagTopologyManager,
		utxoStore)
	tipScorer := tipselection.NewTipScorer(
		dbManager,
		params,
		dagTopologyManager,
		consensusStateStore)
	tipSelector := tipselection.NewTipSelector(
		params,
		tipScorer,
		dagTopologyManager,
		f.clock,
		nil,
		events.tipsChanged)
	pruningManager := pruningmanager.New(
		dbManager,
		params,
		dagTopologyManager,
		dagTraversalManager,
		events.milestoneIndexPruned,

		blockStore,
		blockMetadataStore,
		childrenStore,
		milestoneStore,
		solidEntryPointStore,
		utxoStore,
		consensusStateStore,
		unreferencedBlockStore)

	t := &tangle{
		params:          params,
		databaseContext: dbManager,
		events:          events,
		retryPolicy: staging.RetryPolicy{
			Interval:   params.StorageRetryInterval,
			MaxRetries: params.StorageMaxRetries,
		},
		windowLock: prioritylock.New(),
		attaching:  make(map[externalapi.BlockID]struct{}),

		dagTopologyManager:  dagTopologyManager,
		dagTraversalManager: dagTraversalManager,
		solidifier:          solidifierInstance,
		milestoneManager:    milestoneManager,
		whiteFlagEngine:     whiteFlagEngine,
		tipScorer:           tipScorer,
		tipSelector:         tipSelector,
		pruningManager:      pruningManager,

		blockStore:                 blockStore,
		blockMetadataStore:         blockMetadataStore,
		childrenStore:              childrenStore,
		milestoneStore:             milestoneStore,
		solidEntryPointStore:       solidEntryPointStore,
		utxoStore:                  utxoStore,
		consensusStateStore:        consensusStateStore,
		unreferencedBlockStore:     unreferencedBlockStore,
		pendingSolidificationStore: pendingSolidificationStore,
	}

	err = t.initialize()
	if err != nil {
		return nil, err
	}
	return t, nil
}

// NewTestTangle instantiates a Tangle over a fresh database in a
// temporary directory. The returned teardown closes the database and,
// unless keepDataDir is set, removes the directory.
func (f *factory) NewTestTangle(params *dagconfig.Params, testName string) (
	tc TestTangle, teardown func(keepDataDir bool), err error) {

	dataDir := f.dataDir
	if dataDir == "" {
		dataDir, err = os.MkdirTemp("", testName)
		if err != nil {
			return nil, nil, errors.WithStack(err)
		}
	}

	var db infrastructuredatabase.Database
	switch f.databaseType {
	case DatabaseTypeBadger:
		db, err = badgerdb.NewBadgerDB(dataDir)
	case DatabaseTypeLevelDB:
		db, err = ldb.NewLevelDB(dataDir, 8)
	default:
		err = errors.Errorf("unknown database type %s", f.databaseType)
	}
	if err != nil {
		return nil, nil, err
	}

	events := &Events{}
	t, err := f.newTangle(params, db, events)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	tstTangle := &testTangle{
		tangle: t,
		db:     db,
		events: events,
	}
	var teardownOnce sync.Once
	teardown = func(keepDataDir bool) {
		teardownOnce.Do(func() {
			db.Close()
			if !keepDataDir {
				os.RemoveAll(dataDir)
			}
		})
	}
	return tstTangle, teardown, nil
}

// SetTestDataDir sets the directory NewTestTangle opens its database in
func (f *factory) SetTestDataDir(dataDir string) {
	f.dataDir = dataDir
}

// SetTestDatabaseType sets the storage backend of NewTestTangle
func (f *factory) SetTestDatabaseType(databaseType string) {
	f.databaseType = databaseType
}

// SetTestClock sets the clock the tip pool of new tangles uses
func (f *factory) SetTestClock(clock tipselection.Clock) {
	f.clock = clock
}
