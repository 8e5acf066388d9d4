package badgerdb

import (
	"bytes"

	"github.com/dgraph-io/badger"
	"github.com/iotaledger/bee-sub004/infrastructure/db/database"
	"github.com/pkg/errors"
)

type badgerCursor struct {
	txn        *badger.Txn
	ownsTxn    bool
	iterator   *badger.Iterator
	bucket     *database.Bucket
	prefix     []byte
	hasStarted bool
	isClosed   bool
}

func newCursor(txn *badger.Txn, bucket *database.Bucket, ownsTxn bool) *badgerCursor {
	prefix := bucket.Path()
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	return &badgerCursor{
		txn:      txn,
		ownsTxn:  ownsTxn,
		iterator: txn.NewIterator(options),
		bucket:   bucket,
		prefix:   prefix,
	}
}

func (c *badgerCursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	if !c.hasStarted {
		return c.First()
	}
	if !c.valid() {
		return false
	}
	c.iterator.Next()
	return c.valid()
}

func (c *badgerCursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	c.hasStarted = true
	c.iterator.Seek(c.prefix)
	return c.valid()
}

func (c *badgerCursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}
	c.hasStarted = true
	c.iterator.Seek(key.Bytes())
	if !c.valid() {
		return errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	return nil
}

func (c *badgerCursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	if !c.hasStarted || !c.valid() {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"key of an exhausted cursor")
	}
	fullKey := c.iterator.Item().KeyCopy(nil)
	return c.bucket.Key(bytes.TrimPrefix(fullKey, c.prefix)), nil
}

func (c *badgerCursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	if !c.hasStarted || !c.valid() {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"value of an exhausted cursor")
	}
	value, err := c.iterator.Item().ValueCopy(nil)
	return value, errors.WithStack(err)
}

func (c *badgerCursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	c.iterator.Close()
	if c.ownsTxn {
		c.txn.Discard()
	}
	return nil
}

func (c *badgerCursor) valid() bool {
	return c.iterator.ValidForPrefix(c.prefix)
}
