////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package storage

import (
	"encoding/json"
	"strings"
	"syscall/js"

	"github.com/hack-pad/go-indexeddb/idb"
	"github.com/pkg/errors"

	"gitlab.com/converterhq/converter-wasm/api"
	"gitlab.com/converterhq/converter-wasm/converter"
	"gitlab.com/converterhq/converter-wasm/indexedDb/impl"
	"gitlab.com/converterhq/converter-wasm/utils"
)

// wasmStore implements the [converter.Store] interface backed by IndexedDb.
// NOTE: This model is NOT thread safe - write serialization is left to
// IndexedDb's per-store transactions.
type wasmStore struct {
	db *idb.Database
}

func (w *wasmStore) PutCountry(country api.Country) error {
	return w.put(countryStoreName, country)
}

func (w *wasmStore) Country(id string) (api.Country, error) {
	result, err := impl.Get(w.db, countryStoreName, js.ValueOf(id))
	if err != nil {
		return api.Country{}, asNotFound(err)
	}

	var country api.Country
	err = json.Unmarshal([]byte(utils.JsToJson(result)), &country)
	if err != nil {
		return api.Country{}, err
	}
	return country, nil
}

// CountryByCurrency returns one country using the given currency code, found
// through the currencyId index.
func (w *wasmStore) CountryByCurrency(currencyID string) (api.Country, error) {
	result, err := impl.GetIndex(w.db, countryStoreName,
		countryStoreCurrencyIndex, js.ValueOf(currencyID))
	if err != nil {
		return api.Country{}, asNotFound(err)
	}

	var country api.Country
	err = json.Unmarshal([]byte(utils.JsToJson(result)), &country)
	if err != nil {
		return api.Country{}, err
	}
	return country, nil
}

func (w *wasmStore) Countries() ([]api.Country, error) {
	rows, err := impl.GetAll(w.db, countryStoreName)
	if err != nil {
		return nil, err
	}

	countries := make([]api.Country, 0, len(rows))
	for _, row := range rows {
		var country api.Country
		err = json.Unmarshal([]byte(utils.JsToJson(row)), &country)
		if err != nil {
			return nil, err
		}
		countries = append(countries, country)
	}
	return countries, nil
}

func (w *wasmStore) CountCountries() (int, error) {
	return impl.Count(w.db, countryStoreName)
}

func (w *wasmStore) PutConversion(record converter.Conversion) error {
	return w.put(conversionStoreName, record)
}

func (w *wasmStore) Conversion(con string) (converter.Conversion, error) {
	result, err := impl.Get(w.db, conversionStoreName, js.ValueOf(con))
	if err != nil {
		return converter.Conversion{}, asNotFound(err)
	}
	return decodeConversion(result)
}

func (w *wasmStore) ConversionByReverse(con string) (converter.Conversion, error) {
	result, err := impl.GetIndex(w.db, conversionStoreName,
		conversionStoreSwarpConIndex, js.ValueOf(con))
	if err != nil {
		return converter.Conversion{}, asNotFound(err)
	}
	return decodeConversion(result)
}

func (w *wasmStore) Conversions() ([]converter.Conversion, error) {
	rows, err := impl.GetAll(w.db, conversionStoreName)
	if err != nil {
		return nil, err
	}

	records := make([]converter.Conversion, 0, len(rows))
	for _, row := range rows {
		record, err := decodeConversion(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (w *wasmStore) DeleteConversion(con string) error {
	return impl.Delete(w.db, conversionStoreName, js.ValueOf(con))
}

func (w *wasmStore) ClearConversions() error {
	return impl.Clear(w.db, conversionStoreName)
}

// ClearCountries removes all country metadata, forcing the next warm to hit
// the network.
func (w *wasmStore) ClearCountries() error {
	return impl.Clear(w.db, countryStoreName)
}

// put marshals the value through JSON into a Javascript object and upserts it
// into the named store.
func (w *wasmStore) put(objectStoreName string, value any) error {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return errors.Errorf("Unable to marshal for %s: %+v",
			objectStoreName, err)
	}
	valueObj, err := utils.JsonToJS(valueJSON)
	if err != nil {
		return errors.Errorf("Unable to convert %s value to js: %+v",
			objectStoreName, err)
	}

	_, err = impl.Put(w.db, objectStoreName, valueObj)
	if err != nil {
		return errors.Errorf("Unable to put in %s: %+v\n%s",
			objectStoreName, err, valueJSON)
	}
	return nil
}

// decodeConversion unmarshals a stored row into a conversion record.
func decodeConversion(row js.Value) (converter.Conversion, error) {
	var record converter.Conversion
	err := json.Unmarshal([]byte(utils.JsToJson(row)), &record)
	if err != nil {
		return converter.Conversion{}, err
	}
	return record, nil
}

// asNotFound maps the helper layer's undefined-result failure onto the domain
// NotFound condition so callers can distinguish a miss from a real fault.
func asNotFound(err error) error {
	if strings.Contains(err.Error(), impl.ErrDoesNotExist) {
		return errors.WithMessage(converter.ErrNotFound, err.Error())
	}
	return err
}
