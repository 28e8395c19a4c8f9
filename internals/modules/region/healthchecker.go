package region

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"
	"watchtower/config"

	"github.com/rs/zerolog"
)

// Store is what the health loop needs from persistence.
type Store interface {
	ListEnabled(ctx context.Context) ([]Region, error)
	UpdateHealth(ctx context.Context, code string, healthy bool, checkedAt time.Time) error
}

type healthPayload struct {
	Status string `json:"status"`
	Region string `json:"region"`
}

// HealthChecker polls every enabled non-local region's /health endpoint and
// records the healthy flag the dispatcher routes on. Checks run in parallel
// and are isolated: one failing probe cannot block or fail the others.
type HealthChecker struct {
	ctx          context.Context
	store        Store
	httpClient   *http.Client
	interval     time.Duration
	probeTimeout time.Duration
	logger       *zerolog.Logger
}

func NewHealthChecker(
	ctx context.Context,
	cfg *config.RegionHealthConfig,
	store Store,
	httpClient *http.Client,
	logger *zerolog.Logger,
) *HealthChecker {

	return &HealthChecker{
		ctx:          ctx,
		store:        store,
		httpClient:   httpClient,
		interval:     cfg.Interval,
		probeTimeout: cfg.ProbeTimeout,
		logger:       logger,
	}
}

// Run starts the polling loop. Blocks until the context is cancelled.
func (hc *HealthChecker) Run() {
	if hc.interval <= 0 {
		panic("region health interval must be > 0")
	}
	hc.logger.Info().Msg("region health checker started")
	ticker := time.NewTicker(hc.interval)
	defer func() {
		ticker.Stop()
		hc.logger.Info().Msg("region health checker stopped")
	}()

	// first sweep immediately so routing has health data at startup
	hc.sweep()

	for {
		select {
		case <-hc.ctx.Done():
			return

		case <-ticker.C:
			hc.sweep()
		}
	}
}

func (hc *HealthChecker) sweep() {
	regions, err := hc.store.ListEnabled(hc.ctx)
	if err != nil {
		hc.logger.Error().Err(err).Msg("failed to list regions for health sweep")
		return
	}

	var wg sync.WaitGroup
	for _, reg := range regions {
		wg.Add(1)
		go func(reg Region) {
			defer wg.Done()
			hc.checkOne(reg)
		}(reg)
	}
	wg.Wait()
}

func (hc *HealthChecker) checkOne(reg Region) {
	healthy := hc.probe(reg)
	checkedAt := time.Now()

	if healthy != reg.Healthy {
		hc.logger.Info().
			Str("region", reg.Code).
			Bool("healthy", healthy).
			Msg("region health changed")
	}

	if err := hc.store.UpdateHealth(hc.ctx, reg.Code, healthy, checkedAt); err != nil {
		hc.logger.Error().Err(err).Str("region", reg.Code).Msg("failed to record region health")
	}
}

// probe requires both HTTP success and a payload whose status is "ok" and
// whose region echoes the expected code, guarding against a misconfigured
// endpoint serving another region's data.
func (hc *HealthChecker) probe(reg Region) bool {
	ctx, cancel := context.WithTimeout(hc.ctx, hc.probeTimeout)
	defer cancel()

	healthURL := strings.TrimSuffix(reg.EndpointURL, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		hc.logger.Warn().Err(err).Str("region", reg.Code).Msg("invalid region health endpoint")
		return false
	}

	resp, err := hc.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}

	var payload healthPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false
	}

	return payload.Status == "ok" && payload.Region == reg.Code
}
