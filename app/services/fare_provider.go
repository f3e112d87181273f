package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/planeit/config"
	"github.com/amirphl/planeit/utils"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// tokenExpiryMargin renews the OAuth token slightly before it lapses
const tokenExpiryMargin = 30 * time.Second

// FareQuery describes a round trip priced for a whole party
type FareQuery struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    time.Time
	Adults        int
}

// Fare is the cheapest total offer for a FareQuery
type Fare struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// FareProvider prices round trips
type FareProvider interface {
	CheapestFare(ctx context.Context, q FareQuery) (*Fare, error)
}

// AmadeusFareProvider implements FareProvider against the Amadeus self-service API
type AmadeusFareProvider struct {
	config  *config.FaresConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *Breaker

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

type amadeusTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type amadeusOffersResponse struct {
	Data []struct {
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"data"`
}

// NewAmadeusFareProvider creates a new Amadeus client
func NewAmadeusFareProvider(cfg *config.FaresConfig) *AmadeusFareProvider {
	return &AmadeusFareProvider{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		breaker: NewBreaker("amadeus", DefaultBreakerConfig()),
	}
}

func (p *AmadeusFareProvider) configured() bool {
	return p.config.Enabled && p.config.ClientID != "" && p.config.ClientSecret != ""
}

// CheapestFare returns the lowest total price for q
func (p *AmadeusFareProvider) CheapestFare(ctx context.Context, q FareQuery) (*Fare, error) {
	if !p.configured() {
		return nil, ErrProviderNotConfigured
	}
	if q.Origin == "" || q.Destination == "" || q.Adults <= 0 {
		return nil, fmt.Errorf("invalid fare query %s->%s for %d adults", q.Origin, q.Destination, q.Adults)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return execute(p.breaker, func() (*Fare, error) {
		token, err := p.token(ctx)
		if err != nil {
			return nil, err
		}
		return p.searchOffers(ctx, token, q)
	})
}

func (p *AmadeusFareProvider) searchOffers(ctx context.Context, token string, q FareQuery) (*Fare, error) {
	currency := p.config.Currency
	if currency == "" {
		currency = utils.FareCurrency
	}

	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", utils.FormatDate(q.DepartureDate))
	params.Set("returnDate", utils.FormatDate(q.ReturnDate))
	params.Set("adults", strconv.Itoa(q.Adults))
	params.Set("currencyCode", currency)
	params.Set("max", "1")

	endpoint := strings.TrimRight(p.config.BaseURL, "/") + "/v2/shopping/flight-offers?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call amadeus flight offers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		p.invalidateToken()
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("amadeus flight offers returned status %d", resp.StatusCode)
	}

	var offers amadeusOffersResponse
	if err := json.NewDecoder(resp.Body).Decode(&offers); err != nil {
		return nil, fmt.Errorf("failed to decode amadeus flight offers: %w", err)
	}
	if len(offers.Data) == 0 || offers.Data[0].Price.Total == "" {
		return nil, ErrFareNotFound
	}

	price := offers.Data[0].Price
	if price.Currency == "" {
		price.Currency = currency
	}
	return &Fare{Amount: price.Total, Currency: price.Currency}, nil
}

// token returns a cached OAuth2 client-credentials token, fetching a new one when needed
func (p *AmadeusFareProvider) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && utils.UTCNow().Before(p.expiresAt) {
		return p.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.config.ClientID)
	form.Set("client_secret", p.config.ClientSecret)

	endpoint := strings.TrimRight(p.config.BaseURL, "/") + "/v1/security/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call amadeus token endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("amadeus token endpoint returned status %d", resp.StatusCode)
	}

	var tok amadeusTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("failed to decode amadeus token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("amadeus token endpoint returned an empty token")
	}

	p.accessToken = tok.AccessToken
	p.expiresAt = utils.UTCNow().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenExpiryMargin)
	return p.accessToken, nil
}

func (p *AmadeusFareProvider) invalidateToken() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accessToken = ""
	p.expiresAt = time.Time{}
}

// MockFareProvider implements FareProvider for testing
type MockFareProvider struct {
	mu     sync.Mutex
	Fares  map[string]*Fare // keyed by destination airport code
	Errors map[string]error
	Calls  []FareQuery
}

// NewMockFareProvider creates a new mock fare provider
func NewMockFareProvider() *MockFareProvider {
	return &MockFareProvider{
		Fares:  make(map[string]*Fare),
		Errors: make(map[string]error),
	}
}

func (m *MockFareProvider) CheapestFare(ctx context.Context, q FareQuery) (*Fare, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, q)
	if err, ok := m.Errors[q.Destination]; ok {
		return nil, err
	}
	if fare, ok := m.Fares[q.Destination]; ok {
		return fare, nil
	}
	return nil, ErrFareNotFound
}

// CallCount returns how many queries were received
func (m *MockFareProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
