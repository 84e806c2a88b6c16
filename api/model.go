////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package api

// Country is a single entry from the countries endpoint. The field names match
// the wire format and double as the IndexedDb row format, so the struct is
// stored as-is by the storage layer.
type Country struct {
	ID             string `json:"id"`         // Primary key in the countries store
	CurrencyID     string `json:"currencyId"` // Index
	CurrencyName   string `json:"currencyName"`
	CurrencySymbol string `json:"currencySymbol"`
	Name           string `json:"name"`
}

// Currency is a single entry from the currencies endpoint.
type Currency struct {
	ID             string `json:"id"`
	CurrencyName   string `json:"currencyName"`
	CurrencySymbol string `json:"currencySymbol"`
}

// countriesResponse is the envelope returned by the countries endpoint.
type countriesResponse struct {
	Results map[string]Country `json:"results"`
}

// currenciesResponse is the envelope returned by the currencies endpoint.
type currenciesResponse struct {
	Results map[string]Currency `json:"results"`
}

// partRate is the per-pair envelope returned by the convert endpoint when the
// compact mode is [CompactPart].
type partRate struct {
	Val float64 `json:"val"`
}

// fullRate is the per-pair envelope inside the results map returned by the
// convert endpoint when the compact mode is [CompactNone].
type fullRate struct {
	ID  string  `json:"id"`
	Val float64 `json:"val"`
	To  string  `json:"to"`
	Fr  string  `json:"fr"`
}
