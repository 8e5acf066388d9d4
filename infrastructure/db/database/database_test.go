package database_test

import (
	"bytes"
	"testing"

	"github.com/iotaledger/bee-sub004/infrastructure/db/database"
)

func TestDatabasePutGetDelete(t *testing.T) {
	testForAllDatabaseTypes(t, "TestDatabasePutGetDelete", testDatabasePutGetDelete)
}

func testDatabasePutGetDelete(t *testing.T, db database.Database, testName string) {
	key := database.MakeBucket([]byte("blocks")).Key([]byte("key"))
	value := []byte("value")

	err := db.Put(key, value)
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	returnedValue, err := db.Get(key)
	if err != nil {
		t.Fatalf("%s: Get unexpectedly failed: %s", testName, err)
	}
	if !bytes.Equal(returnedValue, value) {
		t.Fatalf("%s: Get returned wrong value. Want: %s, got: %s",
			testName, string(value), string(returnedValue))
	}

	err = db.Delete(key)
	if err != nil {
		t.Fatalf("%s: Delete unexpectedly failed: %s", testName, err)
	}
	exists, err := db.Has(key)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if exists {
		t.Fatalf("%s: Has unexpectedly returned that the value exists", testName)
	}
	_, err = db.Get(key)
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Get after Delete returned wrong error: %v", testName, err)
	}
}

func TestDatabaseTransactionCommit(t *testing.T) {
	testForAllDatabaseTypes(t, "TestDatabaseTransactionCommit", testDatabaseTransactionCommit)
}

func testDatabaseTransactionCommit(t *testing.T, db database.Database, testName string) {
	bucket := database.MakeBucket([]byte("metadata"))
	entries := populateDatabaseForTest(t, db, bucket, testName)

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
	}
	defer dbTx.RollbackUnlessClosed()

	for _, entry := range entries[:5] {
		err := dbTx.Delete(entry.key)
		if err != nil {
			t.Fatalf("%s: Delete unexpectedly failed: %s", testName, err)
		}
	}
	newKey := bucket.Key([]byte("new"))
	err = dbTx.Put(newKey, []byte("new"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}

	// Nothing is visible outside the transaction before commit
	exists, err := db.Has(newKey)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if exists {
		t.Fatalf("%s: uncommitted Put is visible outside of the transaction", testName)
	}

	err = dbTx.Commit()
	if err != nil {
		t.Fatalf("%s: Commit unexpectedly failed: %s", testName, err)
	}

	cursor, err := db.Cursor(bucket)
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly failed: %s", testName, err)
	}
	defer cursor.Close()

	count := 0
	for cursor.Next() {
		count++
	}
	if count != 6 {
		t.Fatalf("%s: expected 6 entries after commit but got %d", testName, count)
	}
}

func TestDatabaseCursorSeek(t *testing.T) {
	testForAllDatabaseTypes(t, "TestDatabaseCursorSeek", testDatabaseCursorSeek)
}

func testDatabaseCursorSeek(t *testing.T, db database.Database, testName string) {
	bucket := database.MakeBucket([]byte("unreferenced"))
	populateDatabaseForTest(t, db, bucket, testName)

	cursor, err := db.Cursor(bucket)
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly failed: %s", testName, err)
	}
	defer cursor.Close()

	err = cursor.Seek(bucket.Key([]byte("key7")))
	if err != nil {
		t.Fatalf("%s: Seek unexpectedly failed: %s", testName, err)
	}
	key, err := cursor.Key()
	if err != nil {
		t.Fatalf("%s: Key unexpectedly failed: %s", testName, err)
	}
	if string(key.Suffix()) != "key7" {
		t.Fatalf("%s: Seek landed on the wrong key %s", testName, string(key.Suffix()))
	}
	value, err := cursor.Value()
	if err != nil {
		t.Fatalf("%s: Value unexpectedly failed: %s", testName, err)
	}
	if string(value) != "value7" {
		t.Fatalf("%s: got wrong value %s", testName, string(value))
	}

	remaining := 0
	for cursor.Next() {
		remaining++
	}
	if remaining != 2 {
		t.Fatalf("%s: expected 2 entries after key7 but got %d", testName, remaining)
	}
}
