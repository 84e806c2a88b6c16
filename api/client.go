////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package api implements the client for the currency rate REST service. Under
// js/wasm, net/http is backed by the browser fetch API, so the same client
// runs in the page, in tests, and in native tooling.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
)

// DefaultBaseURL is the rate service used when no other base URL is given.
const DefaultBaseURL = "https://free.currencyconverterapi.com/"

// apiPath is the versioned path prefix for every endpoint.
const apiPath = "api/v5/"

// Endpoint names on the rate service.
const (
	endpointCountries  = "countries"
	endpointCurrencies = "currencies"
	endpointConvert    = "convert"
)

// requestTimeout bounds every request. The service itself offers no
// cancellation, so a hung fetch would otherwise block the caller forever.
const requestTimeout = 30 * time.Second

// ErrNetwork is returned for any transport failure or non-2xx response. No
// retries happen at this layer; recovery is the cache manager's stale-record
// fallback.
var ErrNetwork = errors.New("rate service request failed")

// CompactMode selects the verbosity of the convert endpoint response.
type CompactMode string

const (
	// CompactNone returns the full envelope with the query echoed back.
	CompactNone CompactMode = ""

	// CompactPart returns one object per pair holding only the rate.
	CompactPart CompactMode = "y"

	// CompactFull returns a bare map of pair key to rate. This is the default
	// used for rate lookups.
	CompactFull CompactMode = "ultra"
)

// Client issues requests against a fixed base URL and API version path.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient creates a rate service client for the given base URL. Pass
// [DefaultBaseURL] unless pointing at a mirror or a test server.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: requestTimeout},
	}
}

// Countries fetches the full country list, sorted by display name.
func (c *Client) Countries() ([]Country, error) {
	var envelope countriesResponse
	if err := c.get(c.baseURL+apiPath+endpointCountries, &envelope); err != nil {
		return nil, err
	}

	list := make([]Country, 0, len(envelope.Results))
	for _, country := range envelope.Results {
		list = append(list, country)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	jww.DEBUG.Printf("[API] Fetched %d countries", len(list))
	return list, nil
}

// Currencies fetches the full currency list, sorted by currency ID.
func (c *Client) Currencies() ([]Currency, error) {
	var envelope currenciesResponse
	if err := c.get(c.baseURL+apiPath+endpointCurrencies, &envelope); err != nil {
		return nil, err
	}

	list := make([]Currency, 0, len(envelope.Results))
	for id, currency := range envelope.Results {
		if currency.ID == "" {
			currency.ID = id
		}
		list = append(list, currency)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	jww.DEBUG.Printf("[API] Fetched %d currencies", len(list))
	return list, nil
}

// Rate fetches the current fromCurrency→toCurrency exchange rate using
// [CompactFull].
func (c *Client) Rate(fromCurrency, toCurrency string) (float64, error) {
	return c.RateWithMode(fromCurrency, toCurrency, CompactFull)
}

// RateWithMode fetches the current fromCurrency→toCurrency exchange rate with
// the given compact mode. The rate is the single numeric field addressed by
// the "{from}_{to}" query key inside the response envelope.
func (c *Client) RateWithMode(
	fromCurrency, toCurrency string, mode CompactMode) (float64, error) {
	pair := fromCurrency + "_" + toCurrency
	query := url.Values{}
	query.Set("q", pair)
	query.Set("compact", string(mode))
	requestURL := c.baseURL + apiPath + endpointConvert + "?" + query.Encode()

	var body json.RawMessage
	if err := c.get(requestURL, &body); err != nil {
		return 0, err
	}

	rate, err := extractRate(body, pair, mode)
	if err != nil {
		return 0, errors.WithMessagef(err, "failed to extract rate for %s", pair)
	}

	jww.DEBUG.Printf("[API] Rate %s: %f", pair, rate)
	return rate, nil
}

// get performs one HTTP GET and decodes the JSON body into out.
func (c *Client) get(requestURL string, out any) error {
	resp, err := c.hc.Get(requestURL)
	if err != nil {
		return errors.WithMessagef(ErrNetwork, "GET %s: %+v", requestURL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			jww.WARN.Printf("[API] Failed to close response body: %+v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.WithMessagef(
			ErrNetwork, "GET %s: bad status %s", requestURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithMessagef(ErrNetwork, "GET %s: %+v", requestURL, err)
	}

	if err = json.Unmarshal(body, out); err != nil {
		return errors.Errorf(
			"failed to unmarshal response from %s: %+v", requestURL, err)
	}
	return nil
}

// extractRate pulls the rate for the pair key out of the mode-specific
// convert envelope.
func extractRate(body json.RawMessage, pair string, mode CompactMode) (
	float64, error) {
	switch mode {
	case CompactFull:
		var envelope map[string]float64
		if err := json.Unmarshal(body, &envelope); err != nil {
			return 0, err
		}
		rate, exists := envelope[pair]
		if !exists {
			return 0, errors.Errorf("pair %s missing from response", pair)
		}
		return rate, nil

	case CompactPart:
		var envelope map[string]partRate
		if err := json.Unmarshal(body, &envelope); err != nil {
			return 0, err
		}
		rate, exists := envelope[pair]
		if !exists {
			return 0, errors.Errorf("pair %s missing from response", pair)
		}
		return rate.Val, nil

	case CompactNone:
		var envelope struct {
			Results map[string]fullRate `json:"results"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return 0, err
		}
		rate, exists := envelope.Results[pair]
		if !exists {
			return 0, errors.Errorf("pair %s missing from response", pair)
		}
		return rate.Val, nil

	default:
		return 0, errors.Errorf("unknown compact mode %q", mode)
	}
}
