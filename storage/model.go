////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

// Package storage persists country metadata and conversion records in
// IndexedDB and tracks the application version in localStorage.
package storage

const (
	// DatabaseName is the name of the IndexedDb database.
	DatabaseName = "the-currency-converter-app"

	// Text representation of primary key values (keyPath).
	countryPkeyName    = "id"
	conversionPkeyName = "con"

	// Text representation of the names of the various [idb.ObjectStore].
	countryStoreName    = "countries"
	conversionStoreName = "userSelect"

	// Index names.
	countryStoreCurrencyIndex    = "currencyId"
	conversionStoreSwarpConIndex = "swarpCon"

	// Index keyPath names (must match json struct tags).
	countryStoreCurrency    = "currencyId"
	conversionStoreSwarpCon = "swarpCon"
)
