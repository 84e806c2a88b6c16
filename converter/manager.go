////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package converter

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/converterhq/converter-wasm/api"
)

// Store is the persistence contract the manager needs. All lookups return
// [ErrNotFound] when no record matches; Put operations are upserts keyed on
// the record's primary key. The store serializes concurrent writes through the
// underlying engine's transactions; no locking is layered on top.
type Store interface {
	PutCountry(country api.Country) error
	Country(id string) (api.Country, error)
	Countries() ([]api.Country, error)
	CountCountries() (int, error)

	PutConversion(record Conversion) error
	// Conversion looks up a record by its primary pair key.
	Conversion(con string) (Conversion, error)
	// ConversionByReverse looks up a record through the reverse pair-key
	// index. The returned row is raw; reorientation is the manager's job.
	ConversionByReverse(con string) (Conversion, error)
	Conversions() ([]Conversion, error)
	DeleteConversion(con string) error
	ClearConversions() error
}

// RateFetcher is the slice of the rate service client the manager uses.
type RateFetcher interface {
	Countries() ([]api.Country, error)
	Rate(fromCurrency, toCurrency string) (float64, error)
}

// Manager resolves currency pairs to exchange rates, preferring the local
// store and refreshing from the network when a record is stale or absent.
//
// A nil store puts the manager in degraded, network-only mode: country
// metadata is kept as an in-memory working copy and every conversion goes to
// the network.
type Manager struct {
	store  Store
	client RateFetcher

	// countries holds the warmed country list when there is no store.
	countries map[string]api.Country

	// now is overridable in tests.
	now func() time.Time
}

// NewManager creates a manager over the given store and rate client. store may
// be nil when structured storage is unsupported.
func NewManager(store Store, client RateFetcher) *Manager {
	if store == nil {
		jww.WARN.Print("[CONV] No local store; running network-only")
	}
	return &Manager{
		store:     store,
		client:    client,
		countries: make(map[string]api.Country),
		now:       time.Now,
	}
}

// WarmCountries ensures country metadata is available locally and returns the
// list sorted by display name. The network is consulted only when the local
// copy is empty.
func (m *Manager) WarmCountries() ([]api.Country, error) {
	if m.store != nil {
		count, err := m.store.CountCountries()
		if err == nil && count > 0 {
			list, err := m.store.Countries()
			if err == nil {
				sort.Slice(list, func(i, j int) bool {
					return list[i].Name < list[j].Name
				})
				return list, nil
			}
			jww.WARN.Printf("[CONV] Failed to read countries from store: %+v", err)
		}
	} else if len(m.countries) > 0 {
		return m.countryList(), nil
	}

	list, err := m.client.Countries()
	if err != nil {
		return nil, errors.WithMessage(ErrDataUnavailable, err.Error())
	}

	for _, country := range list {
		if m.store == nil {
			m.countries[country.ID] = country
			continue
		}
		if err = m.store.PutCountry(country); err != nil {
			jww.WARN.Printf(
				"[CONV] Failed to store country %s: %+v", country.ID, err)
		}
	}

	jww.INFO.Printf("[CONV] Warmed %d countries", len(list))
	return list, nil
}

// countryList returns the in-memory working copy sorted by display name.
func (m *Manager) countryList() []api.Country {
	list := make([]api.Country, 0, len(m.countries))
	for _, country := range m.countries {
		list = append(list, country)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Country returns the warmed metadata for a country ID.
func (m *Manager) Country(id string) (api.Country, error) {
	if m.store != nil {
		return m.store.Country(id)
	}
	country, exists := m.countries[id]
	if !exists {
		return api.Country{}, errors.WithMessagef(ErrNotFound,
			"country %s not warmed", id)
	}
	return country, nil
}

// ResolveRate returns the conversion record for the pair of countries,
// oriented with countryIdA's currency as Con1.
//
// Resolution is three tiered: a fresh cached record is returned without a
// network call; a stale cached record triggers a refresh that falls back to
// the stale rate if the network fails; an absent record is network-only and
// fails with [ErrDataUnavailable] when the fetch does.
//
// Both countries must have been warmed (see [Manager.WarmCountries]);
// otherwise the call fails with [ErrDataUnavailable].
func (m *Manager) ResolveRate(countryIdA, countryIdB string) (Conversion, error) {
	con1Data, con2Data, err := m.lookupCountryPair(countryIdA, countryIdB)
	if err != nil {
		return Conversion{}, errors.WithMessage(ErrDataUnavailable, err.Error())
	}

	if m.store == nil {
		return m.refresh(con1Data, con2Data, nil)
	}

	record, err := m.lookupPair(con1Data.CurrencyID, con2Data.CurrencyID)
	if err != nil {
		// Nothing cached for the pair in either direction.
		return m.refresh(con1Data, con2Data, nil)
	}

	if record.Fresh(m.now()) {
		jww.DEBUG.Printf("[CONV] Using cached rate for %s", record.Con)
		return record, nil
	}

	jww.DEBUG.Printf("[CONV] Cached rate for %s is stale; refreshing", record.Con)
	return m.refresh(con1Data, con2Data, &record)
}

// Renew forces a network refresh of the stored pair regardless of staleness,
// falling back to the stored rate when the network fails. The pair key is
// accepted in either orientation.
func (m *Manager) Renew(con string) (Conversion, error) {
	if m.store == nil {
		return Conversion{}, errors.WithMessage(
			ErrStorageUnsupported, "no stored conversions to renew")
	}

	record, err := m.lookupByKey(con)
	if err != nil {
		return Conversion{}, errors.WithMessagef(ErrDataUnavailable,
			"no stored conversion for %s", con)
	}

	return m.refresh(record.Con1Data, record.Con2Data, &record)
}

// History returns all stored conversions, most recently refreshed first.
func (m *Manager) History() ([]Conversion, error) {
	if m.store == nil {
		return nil, nil
	}
	list, err := m.store.Conversions()
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Date.After(list[j].Date)
	})
	return list, nil
}

// Delete removes a stored conversion. The pair key is accepted in either
// orientation; the row's true primary key is resolved through the reverse
// index when needed so the single row behind both views is deleted.
func (m *Manager) Delete(con string) error {
	if m.store == nil {
		return nil
	}

	if _, err := m.store.Conversion(con); err == nil {
		return m.store.DeleteConversion(con)
	}

	record, err := m.store.ConversionByReverse(con)
	if err != nil {
		return errors.WithMessagef(ErrNotFound, "no conversion for %s", con)
	}
	return m.store.DeleteConversion(record.Con)
}

// SetLabel sets the optional user label on a stored conversion. The pair key
// is accepted in either orientation; the label lives on the single underlying
// row.
func (m *Manager) SetLabel(con, name string) error {
	if m.store == nil {
		return errors.WithMessage(
			ErrStorageUnsupported, "no stored conversions to label")
	}

	record, err := m.store.Conversion(con)
	if err != nil {
		record, err = m.store.ConversionByReverse(con)
		if err != nil {
			return errors.WithMessagef(ErrNotFound, "no conversion for %s", con)
		}
	}

	record.Name = name
	return m.store.PutConversion(record)
}

// ClearHistory removes every stored conversion.
func (m *Manager) ClearHistory() error {
	if m.store == nil {
		return nil
	}
	return m.store.ClearConversions()
}

// lookupCountryPair fetches both country records. The two lookups have no
// ordering dependency, so they run concurrently.
func (m *Manager) lookupCountryPair(idA, idB string) (
	api.Country, api.Country, error) {
	type result struct {
		country api.Country
		err     error
	}

	resultB := make(chan result, 1)
	go func() {
		country, err := m.Country(idB)
		resultB <- result{country, err}
	}()

	conA, errA := m.Country(idA)
	b := <-resultB

	if errA != nil {
		return api.Country{}, api.Country{}, errors.WithMessagef(errA,
			"country %s is not available locally", idA)
	}
	if b.err != nil {
		return api.Country{}, api.Country{}, errors.WithMessagef(b.err,
			"country %s is not available locally", idB)
	}
	return conA, b.country, nil
}

// lookupPair finds the stored record for from→to, trying the primary key
// first and the reverse index second. The reverse lookup is strictly
// sequential so the common case pays for a single read. The returned record
// is always oriented with from as Con1.
func (m *Manager) lookupPair(fromCurrency, toCurrency string) (Conversion, error) {
	con := PairKey(fromCurrency, toCurrency)

	record, err := m.store.Conversion(con)
	if err == nil {
		return record, nil
	}

	record, err = m.store.ConversionByReverse(con)
	if err != nil {
		return Conversion{}, errors.WithMessagef(ErrNotFound,
			"no conversion stored for %s in either direction", con)
	}
	return Reorient(record, fromCurrency), nil
}

// lookupByKey finds a stored record given a pair key in either orientation,
// reoriented so the key's first currency is Con1.
func (m *Manager) lookupByKey(con string) (Conversion, error) {
	record, err := m.store.Conversion(con)
	if err == nil {
		return record, nil
	}

	record, err = m.store.ConversionByReverse(con)
	if err != nil {
		return Conversion{}, err
	}
	return Reorient(record, record.Con2), nil
}

// refresh fetches the current rate from the network and persists the new
// observation. When the fetch fails and a stale record exists, the stale rate
// is returned instead (graceful degradation for offline use); otherwise the
// failure surfaces as [ErrDataUnavailable].
func (m *Manager) refresh(
	con1Data, con2Data api.Country, stale *Conversion) (Conversion, error) {
	rate, err := m.client.Rate(con1Data.CurrencyID, con2Data.CurrencyID)
	if err != nil {
		if stale != nil {
			jww.WARN.Printf("[CONV] Refresh of %s failed, using stale rate "+
				"from %s: %+v", stale.Con, stale.Date, err)
			return *stale, nil
		}
		return Conversion{}, errors.WithMessage(ErrDataUnavailable, err.Error())
	}

	record := NewConversion(con1Data, con2Data, rate, m.now())
	if stale != nil {
		// Keep the user label across refreshes of the same row.
		record.Name = stale.Name
	}

	if m.store != nil {
		if err = m.replaceRow(record); err != nil {
			jww.WARN.Printf("[CONV] Failed to store conversion %s: %+v",
				record.Con, err)
		}
	}

	return record, nil
}

// replaceRow upserts the record, first deleting any row stored under the
// reverse orientation so exactly one row exists per unordered pair.
func (m *Manager) replaceRow(record Conversion) error {
	if old, err := m.store.Conversion(record.SwarpCon); err == nil {
		if err = m.store.DeleteConversion(old.Con); err != nil {
			jww.WARN.Printf("[CONV] Failed to drop reverse row %s: %+v",
				old.Con, err)
		}
	}
	return m.store.PutConversion(record)
}
