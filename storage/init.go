////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package storage

import (
	"syscall/js"

	"github.com/hack-pad/go-indexeddb/idb"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/converterhq/converter-wasm/converter"
	"gitlab.com/converterhq/converter-wasm/indexedDb/impl"
)

// currentVersion is the current version of the IndexedDb runtime. Used for
// migration purposes.
const currentVersion uint = 1

// Supported reports whether the host environment offers IndexedDB at all.
// When it does not, callers should fall back to network-only operation
// instead of failing the application.
func Supported() bool {
	return !js.Global().Get("indexedDB").IsUndefined()
}

// NewStore opens (creating or migrating as needed) the converter database and
// returns a [converter.Store] backed by IndexedDb.
//
// Returns [converter.ErrStorageUnsupported] when the host has no IndexedDB.
func NewStore(databaseName string) (converter.Store, error) {
	if !Supported() {
		return nil, errors.WithMessage(converter.ErrStorageUnsupported,
			"indexedDB missing from host environment")
	}
	return newStore(databaseName)
}

// newStore opens the given [idb.Database] and returns a wasmStore.
func newStore(databaseName string) (*wasmStore, error) {
	// Attempt to open database object
	ctx, cancel := impl.NewContext()
	defer cancel()
	openRequest, err := idb.Global().Open(ctx, databaseName, currentVersion,
		func(db *idb.Database, oldVersion, newVersion uint) error {
			if oldVersion == newVersion {
				jww.INFO.Printf("IndexDb version for %s is current: v%d",
					databaseName, newVersion)
				return nil
			}

			jww.INFO.Printf("IndexDb upgrade required for %s: v%d -> v%d",
				databaseName, oldVersion, newVersion)

			if oldVersion == 0 && newVersion >= 1 {
				err := v1Upgrade(db)
				if err != nil {
					return err
				}
				oldVersion = 1
			}

			// if oldVersion == 1 && newVersion >= 2 { v2Upgrade(), oldVersion = 2 }
			return nil
		})
	if err != nil {
		return nil, err
	}

	// Wait for database open to finish
	db, err := openRequest.Await(ctx)
	if err != nil {
		return nil, err
	} else if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return &wasmStore{db: db}, nil
}

// v1Upgrade performs the v0 -> v1 database upgrade: the countries store keyed
// by id with a currencyId index, and the userSelect store keyed by the pair
// key with a reverse pair-key index. Only runs when the store does not exist
// yet, so re-opening an up-to-date database is a no-op.
//
// This can never be changed without permanently breaking backwards
// compatibility.
func v1Upgrade(db *idb.Database) error {
	indexOpts := idb.IndexOptions{
		Unique:     false,
		MultiEntry: false,
	}

	// Build countries ObjectStore and currency index
	countryStoreOpts := idb.ObjectStoreOptions{
		KeyPath:       js.ValueOf(countryPkeyName),
		AutoIncrement: false,
	}
	countryStore, err := db.CreateObjectStore(countryStoreName, countryStoreOpts)
	if err != nil {
		return err
	}
	_, err = countryStore.CreateIndex(countryStoreCurrencyIndex,
		js.ValueOf(countryStoreCurrency), indexOpts)
	if err != nil {
		return err
	}

	// Build userSelect ObjectStore and reverse pair-key index
	conversionStoreOpts := idb.ObjectStoreOptions{
		KeyPath:       js.ValueOf(conversionPkeyName),
		AutoIncrement: false,
	}
	conversionStore, err :=
		db.CreateObjectStore(conversionStoreName, conversionStoreOpts)
	if err != nil {
		return err
	}
	_, err = conversionStore.CreateIndex(conversionStoreSwarpConIndex,
		js.ValueOf(conversionStoreSwarpCon), indexOpts)
	return err
}
