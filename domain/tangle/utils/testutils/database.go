package testutils

import (
	"os"
	"testing"

	"github.com/iotaledger/bee-sub004/domain/tangle/database"
	"github.com/iotaledger/bee-sub004/domain/tangle/model"
	infrastructuredatabase "github.com/iotaledger/bee-sub004/infrastructure/db/database"
	"github.com/iotaledger/bee-sub004/infrastructure/db/database/badgerdb"
	"github.com/iotaledger/bee-sub004/infrastructure/db/database/ldb"
)

// DatabaseType names a storage backend
type DatabaseType string

// The storage backends
const (
	LevelDB DatabaseType = "leveldb"
	Badger  DatabaseType = "badger"
)

// AllDatabaseTypes lists every storage backend
var AllDatabaseTypes = []DatabaseType{LevelDB, Badger}

// OpenDatabase opens a database of the given type under path
func OpenDatabase(databaseType DatabaseType, path string) (infrastructuredatabase.Database, error) {
	switch databaseType {
	case Badger:
		return badgerdb.NewBadgerDB(path)
	default:
		return ldb.NewLevelDB(path, 8)
	}
}

// PrepareDatabaseForTest opens a fresh database in a temporary directory
// and returns it together with a teardown function
func PrepareDatabaseForTest(t *testing.T, databaseType DatabaseType, testName string) (
	db infrastructuredatabase.Database, teardownFunc func()) {

	path, err := os.MkdirTemp("", testName)
	if err != nil {
		t.Fatalf("%s: MkdirTemp unexpectedly failed: %s", testName, err)
	}
	db, err = OpenDatabase(databaseType, path)
	if err != nil {
		t.Fatalf("%s: OpenDatabase unexpectedly failed: %s", testName, err)
	}
	teardownFunc = func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
		os.RemoveAll(path)
	}
	return db, teardownFunc
}

// ForAllDatabaseTypes runs testFunc against a fresh database of every type
func ForAllDatabaseTypes(t *testing.T, testName string, testFunc func(t *testing.T, dbManager model.DBManager)) {
	for _, databaseType := range AllDatabaseTypes {
		databaseType := databaseType
		t.Run(string(databaseType), func(t *testing.T) {
			db, teardown := PrepareDatabaseForTest(t, databaseType, testName)
			defer teardown()
			testFunc(t, database.New(db))
		})
	}
}
