////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package storage

import (
	"os"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// SEMVER is the current semantic version of the converter WASM binary.
const SEMVER = "1.2.0"

// semverKey is the local storage key the running version is recorded under.
const semverKey = "converterWasmSemanticVersion"

// CheckAndStoreVersion checks that the stored WASM version matches the
// current version and, if not, records the upgrade. On first load only the
// current version is stored.
//
// Schema migrations keyed on the old version go here; the IndexedDb schema
// has its own version handled by the open callback in init.go.
func CheckAndStoreVersion() error {
	return checkAndStoreVersion(SEMVER, GetLocalStorage())
}

func checkAndStoreVersion(currentVersion string, ls *LocalStorage) error {
	storedVersion, err := initOrLoadStoredSemver(currentVersion, ls)
	if err != nil {
		return err
	}

	if storedVersion != currentVersion {
		jww.INFO.Printf("Converter WASM out of date; upgrading version: "+
			"v%s -> v%s", storedVersion, currentVersion)
	} else {
		jww.INFO.Printf("Converter WASM version is current: v%s", storedVersion)
	}

	ls.SetItem(semverKey, []byte(currentVersion))
	return nil
}

// initOrLoadStoredSemver returns the stored version or, on first load, stores
// and returns the current version.
func initOrLoadStoredSemver(currentVersion string, ls *LocalStorage) (
	string, error) {
	storedVersion, err := ls.GetItem(semverKey)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", errors.Wrap(err, "could not load stored semver")
		}

		// Record not found, meaning this is the first run; save the current
		// version
		jww.INFO.Printf("Initialising stored version to v%s", currentVersion)
		ls.SetItem(semverKey, []byte(currentVersion))
		return currentVersion, nil
	}

	return string(storedVersion), nil
}
