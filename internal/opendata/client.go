// Package opendata fetches civic dataset records from a Socrata-style
// open-data provider. Fetch failures degrade to empty record sets: the
// scoring pipeline treats "no data" as a common, valid outcome, so a feed
// being down must never fail an assessment.
package opendata

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/safepath-labs/safepath/internal/model"
)

// Logical dataset names accepted by the client.
const (
	DatasetIncidents = "incidents"
	DatasetLights    = "lights"
	DatasetCases     = "cases"
)

// ErrUnknownDataset is returned when a dataset name is not in the registry.
// Unlike transient fetch failures, this is a caller bug and is not retried
// or degraded.
var ErrUnknownDataset = eris.New("opendata: unknown dataset")

// DefaultResources maps logical dataset names to SF OpenData resource IDs:
// police incident reports, street light status, and 311 service cases.
func DefaultResources() map[string]string {
	return map[string]string{
		DatasetIncidents: "wg3w-h783",
		DatasetLights:    "2gc3-4hv4",
		DatasetCases:     "vw6y-z8j6",
	}
}

// Options configures the open-data client.
type Options struct {
	BaseURL    string
	AppToken   string
	Resources  map[string]string
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
}

// Client talks to the open-data provider with per-request timeouts, bounded
// retries, and provider-wide rate limiting.
type Client struct {
	client    *http.Client
	opts      Options
	resources map[string]string
	limiter   *rate.Limiter
}

// NewClient creates a Client with the given options, filling in defaults
// for anything unset.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://data.sfgov.org/resource"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "safepath/1.0"
	}
	resources := DefaultResources()
	for k, v := range opts.Resources {
		resources[k] = v
	}
	return &Client{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:      opts,
		resources: resources,
		limiter:   rate.NewLimiter(10, 10),
	}
}

// resourceURL resolves a logical dataset name to its provider URL.
func (c *Client) resourceURL(dataset string) (string, error) {
	id, ok := c.resources[dataset]
	if !ok {
		return "", eris.Wrapf(ErrUnknownDataset, "%q", dataset)
	}
	return c.opts.BaseURL + "/" + id + ".json", nil
}

// Incidents fetches incident records for the query window. Transient fetch
// failures return an empty slice; only an unknown dataset registry entry is
// an error.
func (c *Client) Incidents(ctx context.Context, q model.GeoQuery, now time.Time) ([]model.IncidentRecord, error) {
	return fetch[model.IncidentRecord](ctx, c, DatasetIncidents, incidentQuery(q, now))
}

// Lights fetches street light records within the query circle.
func (c *Client) Lights(ctx context.Context, q model.GeoQuery) ([]model.LightRecord, error) {
	return fetch[model.LightRecord](ctx, c, DatasetLights, lightQuery(q))
}

// Cases fetches 311 case records for the query window.
func (c *Client) Cases(ctx context.Context, q model.GeoQuery, now time.Time) ([]model.CaseRecord, error) {
	return fetch[model.CaseRecord](ctx, c, DatasetCases, caseQuery(q, now))
}

// FetchRaw fetches a dataset by logical name without decoding into a typed
// record, validating the name against the registry. Used by the fetch
// debugging command.
func (c *Client) FetchRaw(ctx context.Context, dataset string, q model.GeoQuery, now time.Time) ([]map[string]any, error) {
	var params url.Values
	switch dataset {
	case DatasetIncidents:
		params = incidentQuery(q, now)
	case DatasetLights:
		params = lightQuery(q)
	case DatasetCases:
		params = caseQuery(q, now)
	default:
		return nil, eris.Wrapf(ErrUnknownDataset, "%q", dataset)
	}
	return fetch[map[string]any](ctx, c, dataset, params)
}

// fetch performs one logged dataset request and decodes the JSON array
// response. Any network failure, timeout, non-2xx status, or undecodable
// body is recovered by returning an empty slice: availability wins over
// completeness at this layer.
func fetch[T any](ctx context.Context, c *Client, dataset string, params url.Values) ([]T, error) {
	endpoint, err := c.resourceURL(dataset)
	if err != nil {
		return nil, err
	}

	zap.L().Info("opendata: request",
		zap.String("dataset", dataset),
		zap.String("where", params.Get(paramWhere)),
	)

	start := time.Now()
	body, status, err := c.get(ctx, endpoint, params)
	latency := time.Since(start)

	zap.L().Info("opendata: response",
		zap.String("dataset", dataset),
		zap.Int("status", status),
		zap.Duration("latency", latency),
	)

	if err != nil {
		zap.L().Warn("opendata: fetch degraded to empty result",
			zap.String("dataset", dataset),
			zap.Error(err),
		)
		return []T{}, nil
	}

	var records []T
	if err := json.Unmarshal(body, &records); err != nil {
		zap.L().Warn("opendata: undecodable response, degrading to empty result",
			zap.String("dataset", dataset),
			zap.Error(err),
		)
		return []T{}, nil
	}
	return records, nil
}

// get issues the request with retries on transient failures. It returns the
// response body and the last HTTP status observed (0 if the request never
// reached the provider).
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, int, error) {
	reqURL := endpoint + "?" + params.Encode()

	var lastErr error
	lastStatus := 0
	for attempt := range c.opts.MaxRetries {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, lastStatus, eris.Wrap(err, "rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, 0, eris.Wrap(err, "create request")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")
		if c.opts.AppToken != "" {
			req.Header.Set("X-App-Token", c.opts.AppToken)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			c.backoff(ctx, attempt)
			continue
		}

		lastStatus = resp.StatusCode
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("http %d from provider", resp.StatusCode)
			c.backoff(ctx, attempt)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, lastStatus, eris.Errorf("unexpected status %d", resp.StatusCode)
		}

		body, err := readAll(resp)
		if err != nil {
			lastErr = err
			c.backoff(ctx, attempt)
			continue
		}
		return body, lastStatus, nil
	}

	return nil, lastStatus, eris.Wrap(lastErr, "all retries exhausted")
}

func readAll(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close() //nolint:errcheck
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}
	return buf, nil
}

// backoff sleeps with exponential growth and jitter between retries,
// respecting context cancellation.
func (c *Client) backoff(ctx context.Context, attempt int) {
	base := 500 * time.Millisecond
	maxBackoff := 10 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
