////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package wasm

import (
	"syscall/js"

	"gitlab.com/converterhq/converter-wasm/storage"
)

// GetVersion returns the current semantic version of the converter binary
// (string).
func GetVersion(js.Value, []js.Value) interface{} {
	return storage.SEMVER
}
