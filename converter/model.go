////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package converter holds the domain core of the currency converter: the
// conversion record with its bidirectional pair-key invariant, the rounding
// contract, the staleness policy, and the cache manager that orchestrates the
// local store and the rate service client.
package converter

import (
	"math"
	"time"

	"gitlab.com/converterhq/converter-wasm/api"
)

// FreshnessWindow is the fixed staleness threshold for a stored rate. A record
// whose age reaches one hour is refreshed from the network before use.
const FreshnessWindow = time.Hour

// Conversion is one exchange-rate observation between two currencies. It is
// stored once but queryable from either direction: Con is the primary key of
// the row, SwarpCon the reverse pair key indexed by the store.
//
// Invariants:
//   - SwarpCon is always the string-reverse of Con.
//   - SwarpExrate = 1/Exrate rounded to 4 decimals.
//   - Exactly one row exists per unordered currency pair.
//
// The json tags double as the IndexedDb keyPath names and must not change.
type Conversion struct {
	Con         string      `json:"con"` // Primary key
	Con1        string      `json:"con1"`
	Con2        string      `json:"con2"`
	Exrate      float64     `json:"exrate"`
	SwarpCon    string      `json:"swarpCon"` // Index
	SwarpExrate float64     `json:"swarpExrate"`
	Date        time.Time   `json:"date"`
	Con1Data    api.Country `json:"con1Data"`
	Con2Data    api.Country `json:"con2Data"`
	Name        string      `json:"name"` // Optional user label
}

// PairKey builds the directional "{from}_{to}" key identifying a conversion.
func PairKey(fromCurrency, toCurrency string) string {
	return fromCurrency + "_" + toCurrency
}

// NewConversion builds a record for the rate from con1Data's currency to
// con2Data's currency, observed at now. The rate and its reciprocal are
// rounded to 4 decimals before storage.
func NewConversion(
	con1Data, con2Data api.Country, rate float64, now time.Time) Conversion {
	exrate := Round4(rate)
	return Conversion{
		Con:         PairKey(con1Data.CurrencyID, con2Data.CurrencyID),
		Con1:        con1Data.CurrencyID,
		Con2:        con2Data.CurrencyID,
		Exrate:      exrate,
		SwarpCon:    PairKey(con2Data.CurrencyID, con1Data.CurrencyID),
		SwarpExrate: Round4(1 / exrate),
		Date:        now,
		Con1Data:    con1Data,
		Con2Data:    con2Data,
	}
}

// Reorient returns the record expressed with primaryCurrency as Con1. When the
// record is already oriented that way it is returned unchanged; otherwise
// every paired field is swapped: Con↔SwarpCon, Con1↔Con2, Exrate↔SwarpExrate,
// Con1Data↔Con2Data. Date and Name are direction independent.
func Reorient(record Conversion, primaryCurrency string) Conversion {
	if record.Con1 == primaryCurrency {
		return record
	}

	return Conversion{
		Con:         record.SwarpCon,
		Con1:        record.Con2,
		Con2:        record.Con1,
		Exrate:      record.SwarpExrate,
		SwarpCon:    record.Con,
		SwarpExrate: record.Exrate,
		Date:        record.Date,
		Con1Data:    record.Con2Data,
		Con2Data:    record.Con1Data,
		Name:        record.Name,
	}
}

// Fresh reports whether the record is younger than the freshness window as of
// now. A fresh record is served without a network call.
func (c Conversion) Fresh(now time.Time) bool {
	return now.Sub(c.Date) < FreshnessWindow
}

// Round4 rounds to 4 decimal places, matching the display precision used for
// every stored rate.
func Round4(value float64) float64 {
	return math.Round(value*10000) / 10000
}

// CalRate computes the converted amount for the given rate. The two-stage
// rounding (to cents, then to 4 decimals) is a fixed contract, kept exactly
// even though the second stage is usually a no-op.
func CalRate(amount, exrate float64) float64 {
	total := exrate * amount
	cents := math.Round(total*100) / 100
	return Round4(cents)
}
