////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package converter

import (
	"reflect"
	"testing"
	"time"

	"gitlab.com/converterhq/converter-wasm/api"
)

var (
	testUSA = api.Country{
		ID:             "US",
		CurrencyID:     "USD",
		CurrencyName:   "United States Dollar",
		Name:           "United States of America",
		CurrencySymbol: "$",
	}
	testGermany = api.Country{
		ID:             "DE",
		CurrencyID:     "EUR",
		CurrencyName:   "Euro",
		Name:           "Germany",
		CurrencySymbol: "€",
	}
)

// Tests that PairKey produces the directional "{from}_{to}" key.
func TestPairKey(t *testing.T) {
	expected := "USD_EUR"
	received := PairKey("USD", "EUR")
	if received != expected {
		t.Errorf("Unexpected pair key.\nexpected: %s\nreceived: %s",
			expected, received)
	}
}

// Tests that NewConversion builds a record satisfying the pair-key and
// reciprocal-rate invariants.
func TestNewConversion(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	record := NewConversion(testUSA, testGermany, 0.85230001, now)

	if record.Con != "USD_EUR" {
		t.Errorf("Unexpected primary key.\nexpected: %s\nreceived: %s",
			"USD_EUR", record.Con)
	}
	if record.SwarpCon != "EUR_USD" {
		t.Errorf("Unexpected reverse key.\nexpected: %s\nreceived: %s",
			"EUR_USD", record.SwarpCon)
	}
	if record.Exrate != 0.8523 {
		t.Errorf("Rate was not rounded to 4 decimals.\nexpected: %f"+
			"\nreceived: %f", 0.8523, record.Exrate)
	}
	if record.SwarpExrate != Round4(1/0.8523) {
		t.Errorf("Unexpected reciprocal rate.\nexpected: %f\nreceived: %f",
			Round4(1/0.8523), record.SwarpExrate)
	}
	if !record.Date.Equal(now) {
		t.Errorf("Unexpected observation time.\nexpected: %s\nreceived: %s",
			now, record.Date)
	}
	if record.Con1Data != testUSA || record.Con2Data != testGermany {
		t.Error("Country metadata was not embedded in the record")
	}
}

// Tests that Reorient is a no-op when the record already has the requested
// primary currency and a full field swap otherwise, and that applying it twice
// returns the original record.
func TestReorient(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	record := NewConversion(testUSA, testGermany, 0.8523, now)
	record.Name = "trip budget"

	same := Reorient(record, "USD")
	if !reflect.DeepEqual(same, record) {
		t.Errorf("Reorient changed an already-oriented record."+
			"\nexpected: %+v\nreceived: %+v", record, same)
	}

	flipped := Reorient(record, "EUR")
	if flipped.Con != record.SwarpCon || flipped.SwarpCon != record.Con {
		t.Errorf("Pair keys were not swapped.\nexpected: %s/%s"+
			"\nreceived: %s/%s", record.SwarpCon, record.Con,
			flipped.Con, flipped.SwarpCon)
	}
	if flipped.Exrate != record.SwarpExrate ||
		flipped.SwarpExrate != record.Exrate {
		t.Error("Rates were not swapped")
	}
	if flipped.Con1Data != testGermany || flipped.Con2Data != testUSA {
		t.Error("Country metadata was not swapped")
	}
	if flipped.Name != record.Name {
		t.Errorf("Label did not survive reorientation.\nexpected: %s"+
			"\nreceived: %s", record.Name, flipped.Name)
	}
	if !flipped.Date.Equal(record.Date) {
		t.Error("Observation time changed under reorientation")
	}

	roundTrip := Reorient(flipped, "USD")
	if !reflect.DeepEqual(roundTrip, record) {
		t.Errorf("Double reorientation did not return the original record."+
			"\nexpected: %+v\nreceived: %+v", record, roundTrip)
	}
}

// Tests Fresh on both sides of the one-hour boundary.
func TestConversion_Fresh(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	record := Conversion{Date: now.Add(-59 * time.Minute)}
	if !record.Fresh(now) {
		t.Error("59-minute-old record reported stale")
	}

	record = Conversion{Date: now.Add(-61 * time.Minute)}
	if record.Fresh(now) {
		t.Error("61-minute-old record reported fresh")
	}

	record = Conversion{Date: now.Add(-FreshnessWindow)}
	if record.Fresh(now) {
		t.Error("Record exactly at the freshness window reported fresh")
	}
}

// Tests Round4 against hand-computed values.
func TestRound4(t *testing.T) {
	tests := []struct{ in, expected float64 }{
		{0.85230001, 0.8523},
		{1 / 0.8523, 1.1733},
		{0.00004, 0.0000},
		{0.00005, 0.0001},
		{123.456789, 123.4568},
		{1, 1},
	}

	for i, tt := range tests {
		if received := Round4(tt.in); received != tt.expected {
			t.Errorf("Unexpected rounding of %f (%d).\nexpected: %f"+
				"\nreceived: %f", tt.in, i, tt.expected, received)
		}
	}
}

// Tests that CalRate applies the two-stage rounding: to cents first, then to 4
// decimal places.
func TestCalRate(t *testing.T) {
	tests := []struct{ amount, exrate, expected float64 }{
		{100, 1.25, 125},
		{1, 0.8523, 0.85},
		{3, 1.1733, 3.52},
		{0, 1.1733, 0},
		{99.99, 1.0001, 100},
	}

	for i, tt := range tests {
		received := CalRate(tt.amount, tt.exrate)
		if received != tt.expected {
			t.Errorf("Unexpected converted amount for %f * %f (%d)."+
				"\nexpected: %f\nreceived: %f",
				tt.amount, tt.exrate, i, tt.expected, received)
		}
	}
}
