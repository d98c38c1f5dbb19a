package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type SimConfig struct {
	APIBaseURL string
	APIKey     string
	Duration   time.Duration
	Workers    int
	BookRatio  float64 // remainder goes to slot listings
	DaysAhead  int
	Services   []string
}

// DatePool holds the candidate dates and the free slots the listings have
// discovered so far, so booking attempts target times the gateway offered.
type DatePool struct {
	Dates []string

	mu    sync.RWMutex
	slots map[string][]string // date -> free slot times
}

func (dp *DatePool) SetSlots(date string, slots []string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.slots[date] = slots
}

func (dp *DatePool) RandomSlot(rng *rand.Rand) (date, slot string, ok bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	var withSlots []string
	for d, s := range dp.slots {
		if len(s) > 0 {
			withSlots = append(withSlots, d)
		}
	}
	if len(withSlots) == 0 {
		return "", "", false
	}
	date = withSlots[rng.Intn(len(withSlots))]
	slots := dp.slots[date]
	return date, slots[rng.Intn(len(slots))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	ListSlots OperationMetrics
	Booking   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DatePool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d book_ratio=%.2f days_ahead=%d",
		cfg.Duration, cfg.Workers, cfg.BookRatio, cfg.DaysAhead)

	gofakeit.Seed(time.Now().UnixNano())

	pool := &DatePool{slots: make(map[string][]string)}
	for i := 1; i <= cfg.DaysAhead; i++ {
		pool.Dates = append(pool.Dates, time.Now().AddDate(0, 0, i).Format("2006-01-02"))
	}

	sim := &Simulator{
		config: cfg,
		pool:   pool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	services := strings.Split(getEnv("SIM_SERVICES", "Konsultacija,Higiena,"), ",")

	return SimConfig{
		APIBaseURL: getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		APIKey:     os.Getenv("SIM_API_KEY"),
		Duration:   getDuration("SIM_DURATION", 30*time.Second),
		Workers:    getInt("SIM_WORKERS", 10),
		BookRatio:  getFloat("SIM_BOOK_RATIO", 0.3),
		DaysAhead:  getInt("SIM_DAYS_AHEAD", 21),
		Services:   services,
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.BookRatio < 0 || cfg.BookRatio > 1 {
		return fmt.Errorf("SIM_BOOK_RATIO must be in [0,1]")
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if rng.Float64() < s.config.BookRatio {
				s.doBooking(ctx, rng)
			} else {
				s.doListSlots(ctx, rng)
			}
		}
	}
}

func (s *Simulator) doListSlots(ctx context.Context, rng *rand.Rand) {
	date := s.pool.Dates[rng.Intn(len(s.pool.Dates))]
	service := s.config.Services[rng.Intn(len(s.config.Services))]

	target := fmt.Sprintf("%s/free-slots?date=%s", s.config.APIBaseURL, date)
	if service != "" {
		target += "&service=" + service
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET", target, nil)
	s.authorize(req)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			success = true
			var slotsResp struct {
				Allowed bool     `json:"allowed"`
				Slots   []string `json:"slots"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if json.Unmarshal(bodyBytes, &slotsResp) == nil && slotsResp.Allowed {
				s.pool.SetSlots(date, slotsResp.Slots)
			}
		}
	}

	s.metrics.ListSlots.Record(latency, success, false)
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	date, slot, ok := s.pool.RandomSlot(rng)
	if !ok {
		// Nothing discovered yet; listings will fill the pool.
		s.doListSlots(ctx, rng)
		return
	}

	service := s.config.Services[rng.Intn(len(s.config.Services))]

	reqBody := map[string]string{
		"name":  gofakeit.Name(),
		"phone": gofakeit.Phone(),
		"date":  date,
		"time":  slot,
	}
	if service != "" {
		reqBody["service"] = service
	}
	body, _ := json.Marshal(reqBody)

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/create-booking", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			success = true
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) authorize(req *http.Request) {
	if s.config.APIKey != "" {
		req.Header.Set("X-Api-Key", s.config.APIKey)
	}
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("List slots", &s.metrics.ListSlots)
	printOperationReport("Booking", &s.metrics.Booking)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
