////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package impl

import (
	"strings"
	"syscall/js"
	"testing"

	"github.com/hack-pad/go-indexeddb/idb"
)

// Error path: Tests that Get returns an error when trying to get a record that
// does not exist.
func TestGet_NoRecordError(t *testing.T) {
	db := newTestDB("rates", "index", t)

	_, err := Get(db, "rates", js.ValueOf(5))
	if err == nil || !strings.Contains(err.Error(), "undefined") {
		t.Errorf("Did not get expected error when getting a record that "+
			"does not exist: %+v", err)
	}
}

// Error path: Tests that GetIndex returns an error when trying to get a record
// that does not exist.
func TestGetIndex_NoRecordError(t *testing.T) {
	db := newTestDB("rates", "index", t)

	_, err := GetIndex(db, "rates", "index", js.ValueOf(5))
	if err == nil || !strings.Contains(err.Error(), "undefined") {
		t.Errorf("Did not get expected error when getting a record that "+
			"does not exist: %+v", err)
	}
}

// Test simple put on empty DB is successful
func TestPut(t *testing.T) {
	objectStoreName := "rates"
	db := newTestDB(objectStoreName, "index", t)
	testValue := js.ValueOf(make(map[string]interface{}))
	result, err := Put(db, objectStoreName, testValue)
	if err != nil {
		t.Fatalf(err.Error())
	}
	if !result.Equal(js.ValueOf(1)) {
		t.Fatalf("Failed to generate autoincremented key")
	}
}

// Tests Count and Clear across a handful of puts.
func TestCountAndClear(t *testing.T) {
	objectStoreName := "rates"
	db := newTestDB(objectStoreName, "index", t)

	count, err := Count(db, objectStoreName)
	if err != nil {
		t.Fatalf("Count on empty store failed: %+v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty store, got %d records", count)
	}

	for i := 0; i < 3; i++ {
		testValue := js.ValueOf(make(map[string]interface{}))
		if _, err = Put(db, objectStoreName, testValue); err != nil {
			t.Fatalf("Put %d failed: %+v", i, err)
		}
	}

	count, err = Count(db, objectStoreName)
	if err != nil {
		t.Fatalf("Count failed: %+v", err)
	}
	if count != 3 {
		t.Errorf("Unexpected count.\nexpected: %d\nreceived: %d", 3, count)
	}

	if err = Clear(db, objectStoreName); err != nil {
		t.Fatalf("Clear failed: %+v", err)
	}

	count, err = Count(db, objectStoreName)
	if err != nil {
		t.Fatalf("Count after Clear failed: %+v", err)
	}
	if count != 0 {
		t.Errorf("Expected cleared store, got %d records", count)
	}
}

// Tests that Delete removes a stored record and GetAll reflects it.
func TestDelete(t *testing.T) {
	objectStoreName := "rates"
	db := newTestDB(objectStoreName, "index", t)

	testValue := js.ValueOf(make(map[string]interface{}))
	key, err := Put(db, objectStoreName, testValue)
	if err != nil {
		t.Fatalf("Put failed: %+v", err)
	}

	if err = Delete(db, objectStoreName, key); err != nil {
		t.Fatalf("Delete failed: %+v", err)
	}

	rows, err := GetAll(db, objectStoreName)
	if err != nil {
		t.Fatalf("GetAll failed: %+v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no rows after delete, got %d", len(rows))
	}
}

// newTestDB creates a new idb.Database for testing.
func newTestDB(name, index string, t *testing.T) *idb.Database {
	// Attempt to open database object
	ctx, cancel := NewContext()
	defer cancel()
	openRequest, err := idb.Global().Open(ctx, t.Name(), 0,
		func(db *idb.Database, _ uint, _ uint) error {
			storeOpts := idb.ObjectStoreOptions{
				KeyPath:       js.ValueOf("id"),
				AutoIncrement: true,
			}

			// Build the ObjectStore and Indexes
			store, err := db.CreateObjectStore(name, storeOpts)
			if err != nil {
				return err
			}

			_, err = store.CreateIndex(
				index, js.ValueOf("id"), idb.IndexOptions{})
			if err != nil {
				return err
			}

			return nil
		})
	if err != nil {
		t.Fatal(err)
	}

	// Wait for database open to finish
	db, err := openRequest.Await(ctx)
	if err != nil {
		t.Fatal(err)
	}

	return db
}
