package badgerdb

import (
	"github.com/dgraph-io/badger"
	"github.com/iotaledger/bee-sub004/infrastructure/db/database"
	"github.com/pkg/errors"
)

// BadgerDB is a thin wrapper around badger that implements database.Database.
type BadgerDB struct {
	db *badger.DB
}

// NewBadgerDB opens a badger instance at the given path,
// creating it if it doesn't exist.
func NewBadgerDB(path string) (*BadgerDB, error) {
	options := badger.DefaultOptions(path).WithLogger(badgerLogger{})
	db, err := badger.Open(options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening badger at %s", path)
	}
	return &BadgerDB{db: db}, nil
}

// Compact flattens the LSM tree and garbage collects the value log.
func (b *BadgerDB) Compact() error {
	err := b.db.Flatten(1)
	if err != nil {
		return errors.WithStack(err)
	}
	err = b.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return errors.WithStack(err)
	}
	return nil
}

// Close closes the badger instance.
func (b *BadgerDB) Close() error {
	return errors.WithStack(b.db.Close())
}

// Put sets the value for the given key.
func (b *BadgerDB) Put(key *database.Key, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key.Bytes(), value)
	})
	return errors.WithStack(err)
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (b *BadgerDB) Get(key *database.Key) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		value, err = getFromTxn(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Has returns true if the database contains the given key.
func (b *BadgerDB) Has(key *database.Key) (bool, error) {
	_, err := b.Get(key)
	if err != nil {
		if database.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete deletes the value for the given key.
func (b *BadgerDB) Delete(key *database.Key) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key.Bytes())
	})
	return errors.WithStack(err)
}

// Cursor begins a new cursor over the given bucket, backed by
// its own read-only badger transaction.
func (b *BadgerDB) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	txn := b.db.NewTransaction(false)
	return newCursor(txn, bucket, true), nil
}

func getFromTxn(txn *badger.Txn, key *database.Key) ([]byte, error) {
	item, err := txn.Get(key.Bytes())
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound, "key %s not found", key)
		}
		return nil, errors.WithStack(err)
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return value, nil
}
