////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package storage

import (
	"encoding/base64"
	"os"
	"syscall/js"

	jww "github.com/spf13/jwalterweatherman"
)

// localStorageWasmPrefix is prefixed to every keyName saved to local storage
// by LocalStorage. It allows the identification and deletion of keys only
// created by this WASM binary while ignoring keys made by other scripts on
// the same page.
const localStorageWasmPrefix = "converterWasmStorage/"

// LocalStorage contains the js.Value representation of localStorage.
type LocalStorage struct {
	// The Javascript value containing the localStorage object
	v js.Value

	// The prefix appended to each key name. This is so that all keys created
	// by this structure can be deleted without affecting other keys in local
	// storage.
	prefix string
}

// jsStorage is the global that stores Javascript as window.localStorage.
//
//   - Specification:
//     https://html.spec.whatwg.org/multipage/webstorage.html#dom-localstorage-dev
//   - Documentation:
//     https://developer.mozilla.org/en-US/docs/Web/API/Window/localStorage
var jsStorage = newLocalStorage(localStorageWasmPrefix)

// newLocalStorage creates a new LocalStorage object with the specified prefix.
func newLocalStorage(prefix string) *LocalStorage {
	return &LocalStorage{
		v:      js.Global().Get("localStorage"),
		prefix: prefix,
	}
}

// GetLocalStorage returns Javascript's local storage.
func GetLocalStorage() *LocalStorage {
	return jsStorage
}

// GetItem returns a key's value from the local storage given its name.
// Returns os.ErrNotExist if the key does not exist. Underneath, it calls
// localStorage.getItem().
func (ls *LocalStorage) GetItem(keyName string) ([]byte, error) {
	keyValue := ls.v.Call("getItem", ls.prefix+keyName)
	if keyValue.IsNull() {
		return nil, os.ErrNotExist
	}

	decodedKeyValue, err := base64.StdEncoding.DecodeString(keyValue.String())
	if err != nil {
		return nil, err
	}

	return decodedKeyValue, nil
}

// SetItem adds a key's value to local storage given its name. Underneath, it
// calls localStorage.setItem().
func (ls *LocalStorage) SetItem(keyName string, keyValue []byte) {
	encodedKeyValue := base64.StdEncoding.EncodeToString(keyValue)
	ls.v.Call("setItem", ls.prefix+keyName, encodedKeyValue)
}

// RemoveItem removes a key's value from local storage given its name. If the
// key does not exist, nothing happens. Underneath, it calls
// localStorage.removeItem().
func (ls *LocalStorage) RemoveItem(keyName string) {
	ls.v.Call("removeItem", ls.prefix+keyName)
}

// Clear clears all the keys in storage created by this binary. Underneath, it
// iterates localStorage and removes every key carrying the prefix.
func (ls *LocalStorage) Clear() {
	length := ls.v.Get("length").Int()
	var prefixed []string
	for i := 0; i < length; i++ {
		keyName := ls.v.Call("key", i)
		if keyName.IsNull() {
			continue
		}
		if len(keyName.String()) >= len(ls.prefix) &&
			keyName.String()[:len(ls.prefix)] == ls.prefix {
			prefixed = append(prefixed, keyName.String())
		}
	}
	for _, keyName := range prefixed {
		ls.v.Call("removeItem", keyName)
	}
	jww.DEBUG.Printf("Cleared %d local storage keys", len(prefixed))
}
