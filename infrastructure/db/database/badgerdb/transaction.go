package badgerdb

import (
	"github.com/dgraph-io/badger"
	"github.com/iotaledger/bee-sub004/infrastructure/db/database"
	"github.com/pkg/errors"
)

type badgerTransaction struct {
	txn      *badger.Txn
	isClosed bool
}

// Begin begins a new read-write transaction. Unlike the leveldb
// backend, reads inside the transaction observe its own writes.
func (b *BadgerDB) Begin() (database.Transaction, error) {
	return &badgerTransaction{txn: b.db.NewTransaction(true)}, nil
}

func (tx *badgerTransaction) Put(key *database.Key, value []byte) error {
	if tx.isClosed {
		return errors.New("cannot put into a closed transaction")
	}
	return errors.WithStack(tx.txn.Set(key.Bytes(), value))
}

func (tx *badgerTransaction) Get(key *database.Key) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.New("cannot get from a closed transaction")
	}
	return getFromTxn(tx.txn, key)
}

func (tx *badgerTransaction) Has(key *database.Key) (bool, error) {
	_, err := tx.Get(key)
	if err != nil {
		if database.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (tx *badgerTransaction) Delete(key *database.Key) error {
	if tx.isClosed {
		return errors.New("cannot delete from a closed transaction")
	}
	return errors.WithStack(tx.txn.Delete(key.Bytes()))
}

func (tx *badgerTransaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	if tx.isClosed {
		return nil, errors.New("cannot open a cursor from a closed transaction")
	}
	return newCursor(tx.txn, bucket, false), nil
}

func (tx *badgerTransaction) Commit() error {
	if tx.isClosed {
		return errors.New("cannot commit a closed transaction")
	}
	tx.isClosed = true
	return errors.WithStack(tx.txn.Commit())
}

func (tx *badgerTransaction) Rollback() error {
	if tx.isClosed {
		return errors.New("cannot rollback a closed transaction")
	}
	tx.isClosed = true
	tx.txn.Discard()
	return nil
}

func (tx *badgerTransaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}
