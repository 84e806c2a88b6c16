////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package converter

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"gitlab.com/converterhq/converter-wasm/api"
)

// mockStore is an in-memory Store for manager tests.
type mockStore struct {
	countries   map[string]api.Country
	conversions map[string]Conversion
}

func newMockStore() *mockStore {
	return &mockStore{
		countries:   make(map[string]api.Country),
		conversions: make(map[string]Conversion),
	}
}

func (s *mockStore) PutCountry(country api.Country) error {
	s.countries[country.ID] = country
	return nil
}

func (s *mockStore) Country(id string) (api.Country, error) {
	country, exists := s.countries[id]
	if !exists {
		return api.Country{}, ErrNotFound
	}
	return country, nil
}

func (s *mockStore) Countries() ([]api.Country, error) {
	list := make([]api.Country, 0, len(s.countries))
	for _, country := range s.countries {
		list = append(list, country)
	}
	return list, nil
}

func (s *mockStore) CountCountries() (int, error) {
	return len(s.countries), nil
}

func (s *mockStore) PutConversion(record Conversion) error {
	s.conversions[record.Con] = record
	return nil
}

func (s *mockStore) Conversion(con string) (Conversion, error) {
	record, exists := s.conversions[con]
	if !exists {
		return Conversion{}, ErrNotFound
	}
	return record, nil
}

func (s *mockStore) ConversionByReverse(con string) (Conversion, error) {
	for _, record := range s.conversions {
		if record.SwarpCon == con {
			return record, nil
		}
	}
	return Conversion{}, ErrNotFound
}

func (s *mockStore) Conversions() ([]Conversion, error) {
	list := make([]Conversion, 0, len(s.conversions))
	for _, record := range s.conversions {
		list = append(list, record)
	}
	return list, nil
}

func (s *mockStore) DeleteConversion(con string) error {
	delete(s.conversions, con)
	return nil
}

func (s *mockStore) ClearConversions() error {
	s.conversions = make(map[string]Conversion)
	return nil
}

// mockFetcher is a scripted RateFetcher that counts its calls.
type mockFetcher struct {
	countries     []api.Country
	rate          float64
	err           error
	countryCalls  int
	rateCalls     int
}

func (f *mockFetcher) Countries() ([]api.Country, error) {
	f.countryCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.countries, nil
}

func (f *mockFetcher) Rate(string, string) (float64, error) {
	f.rateCalls++
	if f.err != nil {
		return 0, f.err
	}
	return f.rate, nil
}

// newTestManager builds a manager over a pre-warmed mock store with a fixed
// clock.
func newTestManager(fetcher *mockFetcher, now time.Time) (*Manager, *mockStore) {
	store := newMockStore()
	store.countries[testUSA.ID] = testUSA
	store.countries[testGermany.ID] = testGermany

	m := NewManager(store, fetcher)
	m.now = func() time.Time { return now }
	return m, store
}

// Tests that a fresh cached record is served without any network call.
func TestManager_ResolveRate_FreshCache(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{rate: 0.9}
	m, store := newTestManager(fetcher, now)

	cached := NewConversion(testUSA, testGermany, 0.8523, now.Add(-30*time.Minute))
	store.conversions[cached.Con] = cached

	record, err := m.ResolveRate(testUSA.ID, testGermany.ID)
	if err != nil {
		t.Fatalf("ResolveRate failed: %+v", err)
	}

	if record.Exrate != 0.8523 {
		t.Errorf("Fresh cached rate was not served.\nexpected: %f"+
			"\nreceived: %f", 0.8523, record.Exrate)
	}
	if fetcher.rateCalls != 0 {
		t.Errorf("Network was consulted for a fresh record (%d calls)",
			fetcher.rateCalls)
	}
}

// Tests that a fresh record stored under the reverse orientation is served
// reoriented, still without a network call.
func TestManager_ResolveRate_ReverseOrientation(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{rate: 0.9}
	m, store := newTestManager(fetcher, now)

	cached := NewConversion(testGermany, testUSA, 1.1733, now.Add(-5*time.Minute))
	store.conversions[cached.Con] = cached

	record, err := m.ResolveRate(testUSA.ID, testGermany.ID)
	if err != nil {
		t.Fatalf("ResolveRate failed: %+v", err)
	}

	if record.Con1 != "USD" {
		t.Errorf("Record was not reoriented.\nexpected Con1: %s"+
			"\nreceived Con1: %s", "USD", record.Con1)
	}
	if record.Exrate != cached.SwarpExrate {
		t.Errorf("Reoriented rate mismatch.\nexpected: %f\nreceived: %f",
			cached.SwarpExrate, record.Exrate)
	}
	if fetcher.rateCalls != 0 {
		t.Error("Network was consulted for a fresh reverse-oriented record")
	}
}

// Tests that a stale cached record triggers a refresh and that the new
// observation replaces the row while keeping the user label.
func TestManager_ResolveRate_StaleRefresh(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{rate: 0.9}
	m, store := newTestManager(fetcher, now)

	cached := NewConversion(testUSA, testGermany, 0.8523, now.Add(-2*time.Hour))
	cached.Name = "trip budget"
	store.conversions[cached.Con] = cached

	record, err := m.ResolveRate(testUSA.ID, testGermany.ID)
	if err != nil {
		t.Fatalf("ResolveRate failed: %+v", err)
	}

	if fetcher.rateCalls != 1 {
		t.Errorf("Expected exactly 1 network call, got %d", fetcher.rateCalls)
	}
	if record.Exrate != 0.9 {
		t.Errorf("Stale record was not refreshed.\nexpected: %f"+
			"\nreceived: %f", 0.9, record.Exrate)
	}
	if record.Name != "trip budget" {
		t.Errorf("User label was lost across refresh.\nexpected: %s"+
			"\nreceived: %s", "trip budget", record.Name)
	}

	stored, exists := store.conversions[record.Con]
	if !exists {
		t.Fatal("Refreshed record was not persisted")
	}
	if stored.Exrate != 0.9 || !stored.Date.Equal(now) {
		t.Errorf("Persisted record was not updated.\nexpected: %f at %s"+
			"\nreceived: %f at %s", 0.9, now, stored.Exrate, stored.Date)
	}
}

// Tests that a stale cached record is served as-is when the refresh fails.
func TestManager_ResolveRate_StaleFallback(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{err: errors.New("offline")}
	m, store := newTestManager(fetcher, now)

	cached := NewConversion(testUSA, testGermany, 0.8523, now.Add(-2*time.Hour))
	store.conversions[cached.Con] = cached

	record, err := m.ResolveRate(testUSA.ID, testGermany.ID)
	if err != nil {
		t.Fatalf("Stale fallback failed: %+v", err)
	}

	if record.Exrate != 0.8523 {
		t.Errorf("Stale rate was not served on network failure."+
			"\nexpected: %f\nreceived: %f", 0.8523, record.Exrate)
	}
}

// Tests that an absent record with a failing network surfaces
// ErrDataUnavailable.
func TestManager_ResolveRate_Unavailable(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{err: errors.New("offline")}
	m, _ := newTestManager(fetcher, now)

	_, err := m.ResolveRate(testUSA.ID, testGermany.ID)
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			ErrDataUnavailable, err)
	}
}

// Tests that resolving a pair in one direction and then the other uses the
// single stored row and makes exactly one network call.
func TestManager_ResolveRate_SingleRowPerPair(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{rate: 0.8523}
	m, store := newTestManager(fetcher, now)

	forward, err := m.ResolveRate(testUSA.ID, testGermany.ID)
	if err != nil {
		t.Fatalf("Forward resolve failed: %+v", err)
	}

	reverse, err := m.ResolveRate(testGermany.ID, testUSA.ID)
	if err != nil {
		t.Fatalf("Reverse resolve failed: %+v", err)
	}

	if fetcher.rateCalls != 1 {
		t.Errorf("Expected exactly 1 network call, got %d", fetcher.rateCalls)
	}
	if len(store.conversions) != 1 {
		t.Errorf("Expected exactly 1 stored row, got %d", len(store.conversions))
	}
	if reverse.Exrate != forward.SwarpExrate {
		t.Errorf("Reverse rate is not the stored reciprocal.\nexpected: %f"+
			"\nreceived: %f", forward.SwarpExrate, reverse.Exrate)
	}
}

// Tests that warming countries reads from the store when populated and only
// hits the network when the store is empty.
func TestManager_WarmCountries(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{countries: []api.Country{testGermany, testUSA}}

	store := newMockStore()
	m := NewManager(store, fetcher)
	m.now = func() time.Time { return now }

	list, err := m.WarmCountries()
	if err != nil {
		t.Fatalf("WarmCountries failed: %+v", err)
	}
	if fetcher.countryCalls != 1 {
		t.Errorf("Expected 1 network call for a cold store, got %d",
			fetcher.countryCalls)
	}
	if len(list) != 2 || len(store.countries) != 2 {
		t.Fatalf("Countries were not warmed into the store: list %d, store %d",
			len(list), len(store.countries))
	}

	list, err = m.WarmCountries()
	if err != nil {
		t.Fatalf("Second WarmCountries failed: %+v", err)
	}
	if fetcher.countryCalls != 1 {
		t.Errorf("Warm store still hit the network (%d calls)",
			fetcher.countryCalls)
	}
	if list[0].Name != testGermany.Name {
		t.Errorf("Country list is not sorted by name.\nexpected first: %s"+
			"\nreceived first: %s", testGermany.Name, list[0].Name)
	}
}

// Tests that Renew refreshes regardless of freshness and accepts the pair key
// in either orientation.
func TestManager_Renew(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{rate: 0.9}
	m, store := newTestManager(fetcher, now)

	cached := NewConversion(testUSA, testGermany, 0.8523, now.Add(-time.Minute))
	store.conversions[cached.Con] = cached

	record, err := m.Renew(cached.SwarpCon)
	if err != nil {
		t.Fatalf("Renew failed: %+v", err)
	}

	if fetcher.rateCalls != 1 {
		t.Errorf("Expected 1 network call, got %d", fetcher.rateCalls)
	}
	if record.Con1 != "EUR" {
		t.Errorf("Renewed record not oriented to the requested key."+
			"\nexpected Con1: %s\nreceived Con1: %s", "EUR", record.Con1)
	}
	if len(store.conversions) != 1 {
		t.Errorf("Renew left %d rows for one pair", len(store.conversions))
	}
}

// Tests that Renew of an unknown pair returns ErrDataUnavailable.
func TestManager_Renew_Unknown(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	m, _ := newTestManager(&mockFetcher{rate: 0.9}, now)

	_, err := m.Renew("USD_EUR")
	if !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("Unexpected error.\nexpected: %v\nreceived: %+v",
			ErrDataUnavailable, err)
	}
}

// Tests that History is sorted most recently refreshed first.
func TestManager_History(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	m, store := newTestManager(&mockFetcher{}, now)

	older := NewConversion(testUSA, testGermany, 0.8523, now.Add(-2*time.Hour))
	newer := Conversion{
		Con: "GBP_USD", SwarpCon: "USD_GBP", Date: now.Add(-time.Minute)}
	store.conversions[older.Con] = older
	store.conversions["EUR_CAD"] = Conversion{
		Con: "EUR_CAD", SwarpCon: "CAD_EUR", Date: now.Add(-time.Hour)}
	store.conversions[newer.Con] = newer

	list, err := m.History()
	if err != nil {
		t.Fatalf("History failed: %+v", err)
	}

	if len(list) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Date.After(list[i-1].Date) {
			t.Errorf("History out of order at %d: %s before %s",
				i, list[i-1].Date, list[i].Date)
		}
	}
}

// Tests that Delete removes the single row regardless of which orientation of
// the pair key is given.
func TestManager_Delete(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	m, store := newTestManager(&mockFetcher{}, now)

	record := NewConversion(testUSA, testGermany, 0.8523, now)
	store.conversions[record.Con] = record

	if err := m.Delete(record.SwarpCon); err != nil {
		t.Fatalf("Delete by reverse key failed: %+v", err)
	}
	if len(store.conversions) != 0 {
		t.Fatal("Row survived delete by reverse key")
	}

	store.conversions[record.Con] = record
	if err := m.Delete(record.Con); err != nil {
		t.Fatalf("Delete by primary key failed: %+v", err)
	}
	if len(store.conversions) != 0 {
		t.Fatal("Row survived delete by primary key")
	}

	if err := m.Delete("AAA_BBB"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Unexpected error for unknown pair.\nexpected: %v"+
			"\nreceived: %+v", ErrNotFound, err)
	}
}

// Tests that SetLabel writes the label onto the single underlying row from
// either orientation of the pair key.
func TestManager_SetLabel(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	m, store := newTestManager(&mockFetcher{}, now)

	record := NewConversion(testUSA, testGermany, 0.8523, now)
	store.conversions[record.Con] = record

	if err := m.SetLabel(record.SwarpCon, "savings"); err != nil {
		t.Fatalf("SetLabel by reverse key failed: %+v", err)
	}

	stored := store.conversions[record.Con]
	if stored.Name != "savings" {
		t.Errorf("Label was not written to the underlying row."+
			"\nexpected: %s\nreceived: %s", "savings", stored.Name)
	}
	if len(store.conversions) != 1 {
		t.Errorf("SetLabel created an extra row (%d total)",
			len(store.conversions))
	}
}

// Tests degraded, network-only behavior when no store is available.
func TestManager_NilStore(t *testing.T) {
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	fetcher := &mockFetcher{
		countries: []api.Country{testUSA, testGermany}, rate: 0.8523}

	m := NewManager(nil, fetcher)
	m.now = func() time.Time { return now }

	if _, err := m.WarmCountries(); err != nil {
		t.Fatalf("WarmCountries failed without a store: %+v", err)
	}

	record, err := m.ResolveRate(testUSA.ID, testGermany.ID)
	if err != nil {
		t.Fatalf("ResolveRate failed without a store: %+v", err)
	}
	if record.Exrate != 0.8523 {
		t.Errorf("Unexpected rate.\nexpected: %f\nreceived: %f",
			0.8523, record.Exrate)
	}

	// Every resolve goes to the network; nothing is cached.
	if _, err = m.ResolveRate(testUSA.ID, testGermany.ID); err != nil {
		t.Fatalf("Second ResolveRate failed: %+v", err)
	}
	if fetcher.rateCalls != 2 {
		t.Errorf("Expected 2 network calls without a store, got %d",
			fetcher.rateCalls)
	}

	history, err := m.History()
	if err != nil || history != nil {
		t.Errorf("Expected empty history without a store, got %v (%+v)",
			history, err)
	}

	if _, err = m.Renew("USD_EUR"); !errors.Is(err, ErrStorageUnsupported) {
		t.Errorf("Unexpected Renew error.\nexpected: %v\nreceived: %+v",
			ErrStorageUnsupported, err)
	}
	if err = m.SetLabel("USD_EUR", "x"); !errors.Is(err, ErrStorageUnsupported) {
		t.Errorf("Unexpected SetLabel error.\nexpected: %v\nreceived: %+v",
			ErrStorageUnsupported, err)
	}
}
