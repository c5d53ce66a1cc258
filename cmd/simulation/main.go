package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	minOrders     = 10
	maxOrders     = 60
	numWorkers    = 5
	serverAddress = "http://localhost:8080"
	fundAmount    = 100000.0
)

var (
	pairs = []struct {
		currency string
		pair     string
	}{
		{"BTC", "USDT"},
		{"ETH", "USDT"},
		{"SOL", "USDT"},
	}
	contractTypes = []string{"RISE_FALL", "HIGHER_LOWER", "TOUCH_NO_TOUCH", "CALL_PUT", "TURBO"}
	sidesByType   = map[string][]string{
		"RISE_FALL":      {"RISE", "FALL"},
		"HIGHER_LOWER":   {"HIGHER", "LOWER"},
		"TOUCH_NO_TOUCH": {"TOUCH", "NO_TOUCH"},
		"CALL_PUT":       {"CALL", "PUT"},
		"TURBO":          {"UP", "DOWN"},
	}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the binary options API
type simulationClient struct {
	baseURL   string
	authToken string
	client    *http.Client

	mu    sync.Mutex
	stats map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client
// It authenticates with the API, funds the simulated wallet and prepares
// performance tracking
func newSimulationClient() (*simulationClient, error) {
	// Create HTTP client with timeout
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	sc := &simulationClient{
		baseURL: serverAddress,
		client:  client,
		stats: map[string]*routeStats{
			"auth":   {name: "Authentication"},
			"fund":   {name: "Fund Wallet"},
			"create": {name: "Create Order"},
			"get":    {name: "Get Order"},
			"cancel": {name: "Cancel Order"},
			"sweep":  {name: "Sweep"},
		},
	}

	// Get auth token
	token, err := sc.authenticate()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	sc.authToken = token

	if err := sc.fundWallet(); err != nil {
		return nil, fmt.Errorf("failed to fund wallet: %w", err)
	}

	return sc, nil
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate() (string, error) {
	body := map[string]string{
		"api_key":    "test-api-key",
		"api_secret": "test-api-secret",
	}

	var data struct {
		Token string `json:"jwt_token"`
	}
	if err := sc.call("auth", http.MethodPost, "/api/v1/auth/token", body, &data); err != nil {
		return "", err
	}
	return data.Token, nil
}

// fundWallet credits the simulated user's USDT wallet through the internal
// funding endpoint.
func (sc *simulationClient) fundWallet() error {
	body := map[string]interface{}{
		"user_id":  "test-api-key",
		"currency": "USDT",
		"amount":   fundAmount,
	}
	return sc.call("fund", http.MethodPost, "/api/v1/internal/wallets/fund", body, nil)
}

// call issues one API request, records its latency and decodes the response
// envelope into out when provided.
func (sc *simulationClient) call(route, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, sc.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if sc.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+sc.authToken)
	}

	start := time.Now()
	resp, err := sc.client.Do(req)
	duration := time.Since(start)

	sc.mu.Lock()
	stats := sc.stats[route]
	stats.addDuration(duration)
	if err != nil || resp.StatusCode >= 400 {
		stats.failures++
	}
	sc.mu.Unlock()

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("bad response (%d): %s", resp.StatusCode, string(raw))
	}
	if !envelope.Success {
		msg := "unknown error"
		if envelope.Error != nil {
			msg = envelope.Error.Message
		}
		return fmt.Errorf("api error (%d): %s", resp.StatusCode, msg)
	}
	if out != nil {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}

type orderResult struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// createRandomOrder submits one randomly parameterised binary order and
// returns its id.
func (sc *simulationClient) createRandomOrder() (string, error) {
	p := pairs[rand.Intn(len(pairs))]
	contractType := contractTypes[rand.Intn(len(contractTypes))]
	sides := sidesByType[contractType]

	body := map[string]interface{}{
		"currency":  p.currency,
		"pair":      p.pair,
		"amount":    float64(10 + rand.Intn(90)),
		"side":      sides[rand.Intn(len(sides))],
		"type":      contractType,
		"closed_at": time.Now().Add(time.Duration(2+rand.Intn(8)) * time.Minute).Format(time.RFC3339),
	}

	switch contractType {
	case "HIGHER_LOWER", "TOUCH_NO_TOUCH":
		body["barrier"] = 100 + rand.Float64()*100
	case "CALL_PUT":
		body["strike_price"] = 100 + rand.Float64()*100
		body["payout_per_point"] = 1 + rand.Float64()*5
	case "TURBO":
		body["barrier"] = 100 + rand.Float64()*100
		body["payout_per_point"] = 1 + rand.Float64()*5
		body["duration_type"] = "TIME"
	}

	var order orderResult
	if err := sc.call("create", http.MethodPost, "/api/v1/binary/orders", body, &order); err != nil {
		return "", err
	}
	return order.OrderID, nil
}

// runOrderFlow exercises the full lifecycle for one order: create, read
// back, and sometimes cancel early with a random penalty.
func (sc *simulationClient) runOrderFlow() error {
	orderID, err := sc.createRandomOrder()
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	var order orderResult
	if err := sc.call("get", http.MethodGet, "/api/v1/binary/orders/"+orderID, nil, &order); err != nil {
		return fmt.Errorf("get: %w", err)
	}

	// Cancel roughly a third of orders early
	if rand.Intn(3) == 0 {
		pct := rand.Intn(50)
		path := fmt.Sprintf("/api/v1/binary/orders/%s?percentage=%d", orderID, pct)
		if err := sc.call("cancel", http.MethodDelete, path, nil, nil); err != nil {
			return fmt.Errorf("cancel: %w", err)
		}
	}

	return nil
}

// printStats outputs the performance report for all routes
func (sc *simulationClient) printStats() {
	log.Info().Msg("=== Simulation Performance Report ===")
	for _, stats := range sc.stats {
		if stats.totalCalls == 0 {
			continue
		}
		min, max, mean, median, p95, p99 := stats.calculate()
		log.Info().
			Str("route", stats.name).
			Int("calls", stats.totalCalls).
			Int("failures", stats.failures).
			Dur("min", min).
			Dur("max", max).
			Dur("mean", mean).
			Dur("median", median).
			Dur("p95", p95).
			Dur("p99", p99).
			Msg("route statistics")
	}
}

// main runs a randomized load simulation against a running API server
func main() {
	sc, err := newSimulationClient()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize simulation client")
	}

	totalOrders := minOrders + rand.Intn(maxOrders-minOrders+1)
	log.Info().Int("orders", totalOrders).Int("workers", numWorkers).Msg("starting simulation")

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for range jobs {
				if err := sc.runOrderFlow(); err != nil {
					log.Warn().Int("worker", worker).Err(err).Msg("order flow failed")
				}
			}
		}(w)
	}

	for i := 0; i < totalOrders; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Trigger a sweep so expired orders settle before the report
	if err := sc.call("sweep", http.MethodPost, "/api/v1/internal/sweep", nil, nil); err != nil {
		log.Warn().Err(err).Msg("sweep failed")
	}

	sc.printStats()
}
