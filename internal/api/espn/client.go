package espn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/omarshaarawi/leaguedesk/internal/apperr"
	"github.com/omarshaarawi/leaguedesk/internal/credentials"
)

const DefaultBaseURL = "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Request describes one read against the fantasy API. An empty LeagueID
// addresses the season resource itself.
type Request struct {
	LeagueID string
	Season   int
	Views    []string
	Period   int
	Filter   any
}

func (r Request) path() string {
	if r.LeagueID == "" {
		return fmt.Sprintf("/seasons/%d", r.Season)
	}
	return fmt.Sprintf("/seasons/%d/segments/0/leagues/%s", r.Season, r.LeagueID)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	clock      clockwork.Clock
	limiter    *Limiter
	tracer     trace.Tracer

	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	onRetry    func(attempt int, delay time.Duration)
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
		clock:      clockwork.NewRealClock(),
		limiter:    NewLimiter(60, 5, 30*time.Second),
		tracer:     otel.Tracer("github.com/omarshaarawi/leaguedesk/internal/api/espn"),
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		maxDelay:   8 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry ceiling and the backoff bounds.
func WithRetries(max int, base, maxDelay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.baseDelay = base
		c.maxDelay = maxDelay
	}
}

func WithLimiter(l *Limiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithClock(clock clockwork.Clock) ClientOption {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithRetryHook registers fn to be called before each backoff sleep.
func WithRetryHook(fn func(attempt int, delay time.Duration)) ClientOption {
	return func(c *Client) {
		c.onRetry = fn
	}
}

// Fetch performs req and returns the raw response body. Rate limiting and
// retries are applied per league.
func (c *Client) Fetch(ctx context.Context, req Request, creds credentials.Credentials) ([]byte, error) {
	resp, err := c.fetch(ctx, req, creds)
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// FetchInto performs req and decodes the JSON body into v. A body that does
// not decode is reported as an unavailable upstream.
func (c *Client) FetchInto(ctx context.Context, req Request, creds credentials.Credentials, v any) error {
	resp, err := c.fetch(ctx, req, creds)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.body, v); err != nil {
		return &UpstreamError{
			StatusCode: resp.status,
			LeagueID:   req.LeagueID,
			Views:      req.Views,
			Attempts:   resp.attempts,
			Err:        apperr.Wrap(apperr.KindUpstreamUnavailable, "decode response", err),
		}
	}
	return nil
}

type response struct {
	body     []byte
	status   int
	attempts int
}

func (c *Client) fetch(ctx context.Context, req Request, creds credentials.Credentials) (response, error) {
	ctx, span := c.tracer.Start(ctx, "espn.Fetch", trace.WithAttributes(
		attribute.String("espn.league_id", req.LeagueID),
		attribute.Int("espn.season", req.Season),
		attribute.StringSlice("espn.views", req.Views),
	))
	defer span.End()

	resp, err := c.doWithRetry(ctx, req, creds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return response{}, err
	}
	return resp, nil
}

// backoff returns the delay before retry number attempt (starting at 1):
// min(base*2^(attempt-1), max), half fixed and half random.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.baseDelay << (attempt - 1)
	if d <= 0 || d > c.maxDelay {
		d = c.maxDelay
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + time.Duration(rand.Int64N(int64(half)))
}

func (c *Client) doWithRetry(ctx context.Context, req Request, creds credentials.Credentials) (response, error) {
	limiterKey := req.LeagueID
	if limiterKey == "" {
		limiterKey = "season:" + strconv.Itoa(req.Season)
	}

	var lastErr *UpstreamError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			c.logger.DebugContext(ctx, "retrying espn request",
				"league_id", req.LeagueID,
				"attempt", attempt,
				"backoff", delay,
				"status", lastErr.StatusCode,
			)
			if c.onRetry != nil {
				c.onRetry(attempt, delay)
			}

			select {
			case <-ctx.Done():
				return response{}, ctx.Err()
			case <-c.clock.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx, limiterKey); err != nil {
			var ae *apperr.Error
			if errors.As(err, &ae) {
				return response{}, &UpstreamError{LeagueID: req.LeagueID, Views: req.Views, Attempts: attempt, Err: ae}
			}
			return response{}, err
		}

		resp, err := c.doRequest(ctx, req, creds)
		if err == nil {
			resp.attempts = attempt + 1
			return resp, nil
		}

		var ue *UpstreamError
		if !errors.As(err, &ue) {
			return response{}, err
		}
		ue.Attempts = attempt + 1
		lastErr = ue
		if !ue.Retryable() {
			return response{}, ue
		}
	}

	c.logger.WarnContext(ctx, "espn retries exhausted",
		"league_id", req.LeagueID,
		"attempts", lastErr.Attempts,
		"status", lastErr.StatusCode,
	)
	return response{}, lastErr
}

func (c *Client) doRequest(ctx context.Context, r Request, creds credentials.Credentials) (response, error) {
	q := url.Values{}
	for _, view := range r.Views {
		for _, v := range strings.Split(view, ",") {
			if v = strings.TrimSpace(v); v != "" {
				q.Add("view", v)
			}
		}
	}
	if r.Period > 0 {
		q.Set("scoringPeriodId", strconv.Itoa(r.Period))
	}

	fullURL := c.baseURL + r.path()
	if len(q) > 0 {
		fullURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if r.Filter != nil {
		filter, err := json.Marshal(r.Filter)
		if err != nil {
			return response{}, fmt.Errorf("marshal filter: %w", err)
		}
		req.Header.Set("x-fantasy-filter", string(filter))
	}

	if !creds.Empty() {
		req.AddCookie(&http.Cookie{Name: "SWID", Value: creds.SWID})
		req.AddCookie(&http.Cookie{Name: "espn_s2", Value: creds.ESPNS2})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return response{}, ctx.Err()
		}
		return response{}, &UpstreamError{
			LeagueID: r.LeagueID,
			Views:    r.Views,
			Err:      apperr.Wrap(apperr.KindUpstreamUnavailable, "request failed", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return response{}, ctx.Err()
		}
		return response{}, &UpstreamError{
			StatusCode: resp.StatusCode,
			LeagueID:   r.LeagueID,
			Views:      r.Views,
			Err:        apperr.Wrap(apperr.KindUpstreamUnavailable, "read response", err),
		}
	}

	if resp.StatusCode >= 400 {
		kind := classifyStatus(resp.StatusCode)
		return response{}, &UpstreamError{
			StatusCode: resp.StatusCode,
			LeagueID:   r.LeagueID,
			Views:      r.Views,
			Err:        apperr.New(kind, http.StatusText(resp.StatusCode)),
		}
	}

	return response{body: body, status: resp.StatusCode}, nil
}
