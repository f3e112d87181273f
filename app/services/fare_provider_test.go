package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amirphl/planeit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFareProvider(baseURL string) *AmadeusFareProvider {
	return NewAmadeusFareProvider(&config.FaresConfig{
		Enabled:      true,
		BaseURL:      baseURL,
		ClientID:     "id",
		ClientSecret: "secret",
		Currency:     "EUR",
		Timeout:      5 * time.Second,
		RateLimit:    100,
		RateBurst:    10,
	})
}

func testFareQuery() FareQuery {
	return FareQuery{
		Origin:        "LHR",
		Destination:   "LIS",
		DepartureDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		ReturnDate:    time.Date(2026, 6, 8, 0, 0, 0, 0, time.UTC),
		Adults:        3,
	}
}

func TestAmadeusCheapestFare(t *testing.T) {
	var tokenCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":1799}`))
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "LHR", q.Get("originLocationCode"))
		assert.Equal(t, "LIS", q.Get("destinationLocationCode"))
		assert.Equal(t, "2026-06-01", q.Get("departureDate"))
		assert.Equal(t, "2026-06-08", q.Get("returnDate"))
		assert.Equal(t, "3", q.Get("adults"))
		assert.Equal(t, "EUR", q.Get("currencyCode"))
		assert.Equal(t, "1", q.Get("max"))
		_, _ = w.Write([]byte(`{"data":[{"price":{"total":"412.30","currency":"EUR"}}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestFareProvider(srv.URL)

	for i := 0; i < 2; i++ {
		fare, err := p.CheapestFare(context.Background(), testFareQuery())
		require.NoError(t, err)
		assert.Equal(t, &Fare{Amount: "412.30", Currency: "EUR"}, fare)
	}
	assert.Equal(t, int32(1), tokenCalls.Load(), "token should be cached")
}

func TestAmadeusNoOffers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":1799}`))
	})
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestFareProvider(srv.URL).CheapestFare(context.Background(), testFareQuery())
	assert.ErrorIs(t, err, ErrFareNotFound)
}

func TestAmadeusUpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestFareProvider(srv.URL).CheapestFare(context.Background(), testFareQuery())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFareNotFound)
}

func TestAmadeusNotConfigured(t *testing.T) {
	p := NewAmadeusFareProvider(&config.FaresConfig{Enabled: true, RateLimit: 1, RateBurst: 1})

	_, err := p.CheapestFare(context.Background(), testFareQuery())
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestAmadeusRejectsInvalidQuery(t *testing.T) {
	p := newTestFareProvider("http://127.0.0.1:0")
	q := testFareQuery()
	q.Adults = 0

	_, err := p.CheapestFare(context.Background(), q)
	assert.Error(t, err)
}
