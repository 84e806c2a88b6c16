////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

// Package wasm exposes the converter to the page's Javascript. Each binding
// adheres to the js.FuncOf signature; blocking operations return promises.
package wasm

import (
	"encoding/json"
	"syscall/js"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/converterhq/converter-wasm/api"
	"gitlab.com/converterhq/converter-wasm/converter"
	"gitlab.com/converterhq/converter-wasm/storage"
	"gitlab.com/converterhq/converter-wasm/utils"
)

// Converter wraps the [converter.Manager] and the rate service client so
// their methods can be wrapped to be Javascript compatible.
type Converter struct {
	manager *converter.Manager
	client  *api.Client
}

// newConverterJS creates a new Javascript compatible object
// (map[string]interface{}) that matches the [Converter] structure.
func newConverterJS(manager *converter.Manager, client *api.Client,
	persistent bool) map[string]interface{} {
	c := Converter{manager: manager, client: client}
	return map[string]interface{}{
		"WarmCountries": js.FuncOf(c.WarmCountries),
		"Currencies":    js.FuncOf(c.Currencies),
		"ResolveRate":   js.FuncOf(c.ResolveRate),
		"CalRate":       js.FuncOf(c.CalRate),
		"History":       js.FuncOf(c.History),
		"Renew":         js.FuncOf(c.Renew),
		"Delete":        js.FuncOf(c.Delete),
		"SetLabel":      js.FuncOf(c.SetLabel),
		"ClearHistory":  js.FuncOf(c.ClearHistory),
		"Persistent":    js.ValueOf(persistent),
	}
}

// NewConverter constructs the conversion components (rate service client,
// local store, cache manager), wires them together, and returns the handle
// the page holds.
//
// When structured storage is unavailable the converter still works in
// degraded, network-only mode and its Persistent property is false.
//
// Parameters:
//   - args[0] - Base URL of the rate service (string). Optional; defaults to
//     the public service.
//
// Returns a promise:
//   - Resolves to a Javascript representation of the [Converter] object.
//   - Rejected with an error if opening the local store fails.
func NewConverter(_ js.Value, args []js.Value) interface{} {
	baseURL := api.DefaultBaseURL
	if len(args) > 0 && args[0].Type() == js.TypeString && args[0].String() != "" {
		baseURL = args[0].String()
	}

	promiseFn := func(resolve, reject func(args ...interface{}) js.Value) {
		client := api.NewClient(baseURL)

		store, err := storage.NewStore(storage.DatabaseName)
		if err != nil {
			if !errors.Is(err, converter.ErrStorageUnsupported) {
				reject(utils.JsTrace(err))
				return
			}
			jww.WARN.Printf("[CONV] %+v; continuing without persistence", err)
			store = nil
		}

		manager := converter.NewManager(store, client)
		resolve(js.ValueOf(newConverterJS(manager, client, store != nil)))
	}

	return utils.CreatePromise(promiseFn)
}

// WarmCountries ensures country metadata is cached locally and returns the
// country list for the selector dropdowns.
//
// Returns a promise:
//   - Resolves to a Javascript array of country objects, sorted by name.
//   - Rejected with an error if neither the store nor the network has the
//     list.
func (c *Converter) WarmCountries(js.Value, []js.Value) interface{} {
	promiseFn := func(resolve, reject func(args ...interface{}) js.Value) {
		countries, err := c.manager.WarmCountries()
		if err != nil {
			reject(utils.JsTrace(err))
			return
		}
		obj, err := sliceToJS(countries)
		if err != nil {
			reject(utils.JsTrace(err))
			return
		}
		resolve(obj)
	}

	return utils.CreatePromise(promiseFn)
}

// Currencies fetches the currency list from the rate service. It is not
// cached locally.
//
// Returns a promise:
//   - Resolves to a Javascript array of currency objects, sorted by ID.
//   - Rejected with an error on network failure.
func (c *Converter) Currencies(js.Value, []js.Value) interface{} {
	promiseFn := func(resolve, reject func(args ...interface{}) js.Value) {
		currencies, err := c.client.Currencies()
		if err != nil {
			reject(utils.JsTrace(err))
			return
		}
		obj, err := sliceToJS(currencies)
		if err != nil {
			reject(utils.JsTrace(err))
			return
		}
		resolve(obj)
	}

	return utils.CreatePromise(promiseFn)
}

// ResolveRate resolves the exchange rate between two countries, preferring
// the local cache and refreshing from the network when the cached rate is
// stale or absent.
//
// Parameters:
//   - args[0] - Country ID to convert from (string).
//   - args[1] - Country ID to convert to (string).
//
// Returns a promise:
//   - Resolves to a Javascript conversion record oriented with the first
//     country's currency as con1.
//   - Rejected with an error if no rate is available from cache or network.
func (c *Converter) ResolveRate(_ js.Value, args []js.Value) interface{} {
	countryIdA := args[0].String()
	countryIdB := args[1].String()

	promiseFn := func(resolve, reject func(args ...interface{}) js.Value) {
		record, err := c.manager.ResolveRate(countryIdA, countryIdB)
		if err != nil {
			reject(utils.JsTrace(err))
			return
		}
		obj, err := recordToJS(record)
		if err != nil {
			reject(utils.JsTrace(err))
			return
		}
		resolve(obj)
	}

	return utils.CreatePromise(promiseFn)
}

// CalRate computes the converted amount for an exchange rate, using the fixed
// two-stage rounding (to cents, then to 4 decimals).
//
// Parameters:
//   - args[0] - Amount to convert (number).
//   - args[1] - Exchange rate (number).
//
// Returns:
//   - The converted amount (number).
func (c *Converter) CalRate(_ js.Value, args []js.Value) interface{} {
	return converter.CalRate(args[0].Float(), args[1].Float())
}

// History lists the stored conversions, most recently refreshed first.
//
// Returns a promise:
//   - Resolves to a Javascript array of conversion records.
//   - Rejected with an error if the store read fails.
func (c *Converter) History(js.Value, []js.Value) interface{} {
	promiseFn := func(resolve, reject func(args ...interface{}) js.Value) {
		records, err := c.manager.History()
		if err != nil {
			reject(utils.JsTrace(err))
			return
		}
		obj, err := sliceToJS(records)
		if err != nil {
			reject(utils.JsTrace(err))
			return
		}
		resolve(obj)
	}

	return utils.CreatePromise(promiseFn)
}

// Renew forces a network refresh of a stored conversion regardless of
// staleness, falling back to the stored rate if the network fails.
//
// Parameters:
//   - args[0] - Pair key in either orientation (string).
//
// Returns a promise:
//   - Resolves to the refreshed Javascript conversion record.
//   - Rejected with an error if no conversion is stored for the key.
func (c *Converter) Renew(_ js.Value, args []js.Value) interface{} {
	con := args[0].String()

	promiseFn := func(resolve, reject func(args ...interface{}) js.Value) {
		record, err := c.manager.Renew(con)
		if err != nil {
			reject(utils.JsTrace(err))
			return
		}
		obj, err := recordToJS(record)
		if err != nil {
			reject(utils.JsTrace(err))
			return
		}
		resolve(obj)
	}

	return utils.CreatePromise(promiseFn)
}

// Delete removes a stored conversion. Both orientations of the pair key
// address the same row, which is deleted by its true primary key.
//
// Parameters:
//   - args[0] - Pair key in either orientation (string).
//
// Returns a promise:
//   - Resolves to undefined on success.
//   - Rejected with an error if the delete fails.
func (c *Converter) Delete(_ js.Value, args []js.Value) interface{} {
	con := args[0].String()

	promiseFn := func(resolve, reject func(args ...interface{}) js.Value) {
		if err := c.manager.Delete(con); err != nil {
			reject(utils.JsTrace(err))
			return
		}
		resolve()
	}

	return utils.CreatePromise(promiseFn)
}

// SetLabel sets the optional user label on a stored conversion.
//
// Parameters:
//   - args[0] - Pair key in either orientation (string).
//   - args[1] - Label (string).
//
// Returns a promise:
//   - Resolves to undefined on success.
//   - Rejected with an error if no conversion is stored for the key.
func (c *Converter) SetLabel(_ js.Value, args []js.Value) interface{} {
	con := args[0].String()
	name := args[1].String()

	promiseFn := func(resolve, reject func(args ...interface{}) js.Value) {
		if err := c.manager.SetLabel(con, name); err != nil {
			reject(utils.JsTrace(err))
			return
		}
		resolve()
	}

	return utils.CreatePromise(promiseFn)
}

// ClearHistory removes every stored conversion.
//
// Returns a promise:
//   - Resolves to undefined on success.
//   - Rejected with an error if the store clear fails.
func (c *Converter) ClearHistory(js.Value, []js.Value) interface{} {
	promiseFn := func(resolve, reject func(args ...interface{}) js.Value) {
		if err := c.manager.ClearHistory(); err != nil {
			reject(utils.JsTrace(err))
			return
		}
		resolve()
	}

	return utils.CreatePromise(promiseFn)
}

// recordToJS converts a conversion record to a Javascript object.
func recordToJS(record converter.Conversion) (js.Value, error) {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return js.Undefined(), err
	}
	return utils.JsonToJS(recordJSON)
}

// sliceToJS converts a slice of records to a Javascript array via JSON.
func sliceToJS(slice any) (js.Value, error) {
	sliceJSON, err := json.Marshal(slice)
	if err != nil {
		return js.Undefined(), err
	}
	return utils.JSON.Call("parse", string(sliceJSON)), nil
}
