////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

// Package impl contains generic IndexedDB helper functions usable by any
// object store: each wraps one operation in its own transaction and awaits
// the request with a bounded context.
package impl

import (
	"context"
	"fmt"
	"syscall/js"
	"time"

	"github.com/aquilax/truncate"
	"github.com/hack-pad/go-indexeddb/idb"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/converterhq/converter-wasm/utils"
)

// dbTimeout is the global timeout for operations with the storage
// [context.Context].
const dbTimeout = time.Second

// ErrDoesNotExist is an error string for got undefined on Get operations.
const ErrDoesNotExist = "result is undefined"

// logValueLen caps how much of a stored value is printed at DEBUG.
const logValueLen = 64

// NewContext builds a context for IndexedDB operations.
func NewContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

// SendRequest is a wrapper for the request.Await() method providing a timeout.
func SendRequest(request *idb.Request) (js.Value, error) {
	ctx, cancel := NewContext()
	defer cancel()
	result, err := request.Await(ctx)
	if err != nil {
		return js.Undefined(), err
	} else if ctx.Err() != nil {
		return js.Undefined(), ctx.Err()
	}
	return result, nil
}

// SendCursorRequest is a wrapper for the cursorRequest.Await() method
// providing a timeout.
func SendCursorRequest(cur *idb.CursorWithValueRequest,
	iterFunc func(cursor *idb.CursorWithValue) error) error {
	ctx, cancel := NewContext()
	defer cancel()
	err := cur.Iter(ctx, iterFunc)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Get is a generic helper for getting values from the given [idb.ObjectStore].
// Only usable by primary key.
func Get(db *idb.Database, objectStoreName string, key js.Value) (js.Value, error) {
	parentErr := errors.Errorf("failed to Get %s", objectStoreName)

	// Prepare the Transaction
	txn, err := db.Transaction(idb.TransactionReadOnly, objectStoreName)
	if err != nil {
		return js.Undefined(), errors.WithMessagef(parentErr,
			"Unable to create Transaction: %+v", err)
	}
	store, err := txn.ObjectStore(objectStoreName)
	if err != nil {
		return js.Undefined(), errors.WithMessagef(parentErr,
			"Unable to get ObjectStore: %+v", err)
	}

	// Set up the operation
	getRequest, err := store.Get(key)
	if err != nil {
		return js.Undefined(), errors.WithMessagef(parentErr,
			"Unable to Get from ObjectStore: %+v", err)
	}

	// Perform the operation
	resultObj, err := SendRequest(getRequest)
	if err != nil {
		return js.Undefined(), errors.WithMessagef(parentErr,
			"Unable to get from ObjectStore: %+v", err)
	} else if resultObj.IsUndefined() {
		return js.Undefined(), errors.WithMessagef(parentErr,
			"Unable to get from ObjectStore: %s", ErrDoesNotExist)
	}

	jww.DEBUG.Printf("Got from %s: %s", objectStoreName, logValue(resultObj))
	return resultObj, nil
}

// GetIndex is a generic helper for getting values from the given
// [idb.ObjectStore] using the given [idb.Index].
func GetIndex(db *idb.Database, objectStoreName,
	indexName string, key js.Value) (js.Value, error) {
	parentErr := errors.Errorf("failed to GetIndex %s/%s",
		objectStoreName, indexName)

	// Prepare the Transaction
	txn, err := db.Transaction(idb.TransactionReadOnly, objectStoreName)
	if err != nil {
		return js.Undefined(), errors.WithMessagef(parentErr,
			"Unable to create Transaction: %+v", err)
	}
	store, err := txn.ObjectStore(objectStoreName)
	if err != nil {
		return js.Undefined(), errors.WithMessagef(parentErr,
			"Unable to get ObjectStore: %+v", err)
	}
	idx, err := store.Index(indexName)
	if err != nil {
		return js.Undefined(), errors.WithMessagef(parentErr,
			"Unable to get Index: %+v", err)
	}

	// Set up the operation
	getRequest, err := idx.Get(key)
	if err != nil {
		return js.Undefined(), errors.WithMessagef(parentErr,
			"Unable to Get from ObjectStore: %+v", err)
	}

	// Perform the operation
	resultObj, err := SendRequest(getRequest)
	if err != nil {
		return js.Undefined(), errors.WithMessagef(parentErr,
			"Unable to get from ObjectStore: %+v", err)
	} else if resultObj.IsUndefined() {
		return js.Undefined(), errors.WithMessagef(parentErr,
			"Unable to get from ObjectStore: %s", ErrDoesNotExist)
	}

	jww.DEBUG.Printf("Got from %s/%s: %s",
		objectStoreName, indexName, logValue(resultObj))
	return resultObj, nil
}

// GetAll is a generic helper for getting all values from the given
// [idb.ObjectStore].
func GetAll(db *idb.Database, objectStoreName string) ([]js.Value, error) {
	parentErr := errors.Errorf("failed to GetAll %s", objectStoreName)

	// Prepare the Transaction
	txn, err := db.Transaction(idb.TransactionReadOnly, objectStoreName)
	if err != nil {
		return nil, errors.WithMessagef(parentErr,
			"Unable to create Transaction: %+v", err)
	}
	store, err := txn.ObjectStore(objectStoreName)
	if err != nil {
		return nil, errors.WithMessagef(parentErr,
			"Unable to get ObjectStore: %+v", err)
	}

	// Set up the operation
	cursorRequest, err := store.OpenCursor(idb.CursorNext)
	if err != nil {
		return nil, errors.WithMessagef(parentErr, "Unable to open Cursor: %+v", err)
	}
	result := make([]js.Value, 0)

	// Perform the operation
	err = SendCursorRequest(cursorRequest,
		func(cursor *idb.CursorWithValue) error {
			row, err := cursor.Value()
			if err != nil {
				return err
			}
			result = append(result, row)
			return nil
		})
	if err != nil {
		return nil, errors.WithMessagef(parentErr, err.Error())
	}
	return result, nil
}

// Count is a generic helper for counting all records in the given
// [idb.ObjectStore].
func Count(db *idb.Database, objectStoreName string) (int, error) {
	parentErr := errors.Errorf("failed to Count %s", objectStoreName)

	// Prepare the Transaction
	txn, err := db.Transaction(idb.TransactionReadOnly, objectStoreName)
	if err != nil {
		return 0, errors.WithMessagef(parentErr,
			"Unable to create Transaction: %+v", err)
	}
	store, err := txn.ObjectStore(objectStoreName)
	if err != nil {
		return 0, errors.WithMessagef(parentErr,
			"Unable to get ObjectStore: %+v", err)
	}

	// Set up the operation
	countRequest, err := store.Count()
	if err != nil {
		return 0, errors.WithMessagef(parentErr,
			"Unable to Count ObjectStore: %+v", err)
	}

	// Perform the operation
	resultObj, err := SendRequest(countRequest.Request)
	if err != nil {
		return 0, errors.WithMessagef(parentErr,
			"Unable to Count ObjectStore: %+v", err)
	}
	return resultObj.Int(), nil
}

// Put is a generic helper for putting values into the given [idb.ObjectStore].
// Equivalent to insert if not exists else update. Returns the primary key of
// the stored object as a js.Value.
func Put(db *idb.Database, objectStoreName string, value js.Value) (js.Value, error) {
	// Prepare the Transaction
	txn, err := db.Transaction(idb.TransactionReadWrite, objectStoreName)
	if err != nil {
		return js.Undefined(), errors.Errorf("Unable to create Transaction: %+v", err)
	}
	store, err := txn.ObjectStore(objectStoreName)
	if err != nil {
		return js.Undefined(), errors.Errorf("Unable to get ObjectStore: %+v", err)
	}

	// Set up the operation
	request, err := store.Put(value)
	if err != nil {
		return js.Undefined(), errors.Errorf("Unable to Put: %+v", err)
	}

	// Perform the operation
	resultObj, err := SendRequest(request)
	if err != nil {
		return js.Undefined(), errors.Errorf("Putting value failed: %+v\n%s",
			err, utils.JsToJson(value))
	}
	jww.DEBUG.Printf("Successfully put value in %s: %s",
		objectStoreName, logValue(value))
	return resultObj, nil
}

// Delete is a generic helper for removing values from the given
// [idb.ObjectStore]. Only usable by primary key.
func Delete(db *idb.Database, objectStoreName string, key js.Value) error {
	parentErr := errors.Errorf("failed to Delete %s", objectStoreName)

	// Prepare the Transaction
	txn, err := db.Transaction(idb.TransactionReadWrite, objectStoreName)
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to create Transaction: %+v", err)
	}
	store, err := txn.ObjectStore(objectStoreName)
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to get ObjectStore: %+v", err)
	}

	// Set up the operation
	deleteRequest, err := store.Delete(key)
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to Delete from ObjectStore: %+v", err)
	}

	// Perform the operation
	_, err = SendRequest(deleteRequest.Request)
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to Delete from ObjectStore: %+v", err)
	}
	jww.DEBUG.Printf("Successfully deleted value at %s/%s",
		objectStoreName, utils.JsToJson(key))
	return nil
}

// Clear is a generic helper for removing every record in the given
// [idb.ObjectStore].
func Clear(db *idb.Database, objectStoreName string) error {
	parentErr := errors.Errorf("failed to Clear %s", objectStoreName)

	// Prepare the Transaction
	txn, err := db.Transaction(idb.TransactionReadWrite, objectStoreName)
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to create Transaction: %+v", err)
	}
	store, err := txn.ObjectStore(objectStoreName)
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to get ObjectStore: %+v", err)
	}

	// Set up the operation
	clearRequest, err := store.Clear()
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to Clear ObjectStore: %+v", err)
	}

	// Perform the operation
	_, err = SendRequest(clearRequest.Request)
	if err != nil {
		return errors.WithMessagef(parentErr,
			"Unable to Clear ObjectStore: %+v", err)
	}
	jww.DEBUG.Printf("Successfully cleared %s", objectStoreName)
	return nil
}

// logValue renders a stored value for DEBUG logs, truncated so large rows do
// not flood the console.
func logValue(value js.Value) string {
	return truncate.Truncate(fmt.Sprintf("%q", utils.JsToJson(value)),
		logValueLen, "...", truncate.PositionMiddle)
}
