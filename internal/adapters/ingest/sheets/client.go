// Package sheets reads period rows from Google Sheets with retries and client side rate limiting
package sheets

import (
	"context"
	"fmt"
	"os"
	"time"

	"namecensus/internal/adapters/ingest"
	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/logger"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
	defaultTimeout    = 2 * time.Minute
	defaultRPS        = 1.0
	readonlyScope     = "https://www.googleapis.com/auth/spreadsheets.readonly"
)

// Options configures the Client
type Options struct {
	// CredentialsFile points at a service account json key
	CredentialsFile string
	// CredentialsJSON wins over CredentialsFile when set
	CredentialsJSON []byte

	// Attempts per fetch including the first
	MaxRetries int
	RetryDelay time.Duration
	// Timeout bounds a single attempt
	Timeout time.Duration
	// RPS caps outgoing requests across all callers
	RPS float64

	// ClientOptions are appended to the credentials option, mostly for tests
	ClientOptions []option.ClientOption
}

// Client fetches value ranges and flattens them to text rows
type Client struct {
	svc     *gsheets.Service
	opts    Options
	limiter *rate.Limiter
	log     logger.Logger
	sleep   func(context.Context, time.Duration) error
}

// New builds the Sheets service from the configured credentials
func New(ctx context.Context, o Options) (*Client, error) {
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	} else if o.RetryDelay == 0 {
		o.RetryDelay = defaultRetryDelay
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.RPS <= 0 {
		o.RPS = defaultRPS
	}

	var copts []option.ClientOption
	switch {
	case len(o.CredentialsJSON) > 0:
		copts = append(copts, option.WithCredentialsJSON(o.CredentialsJSON), option.WithScopes(readonlyScope))
	case o.CredentialsFile != "":
		b, err := os.ReadFile(o.CredentialsFile)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "read sheets credentials %s", o.CredentialsFile)
		}
		copts = append(copts, option.WithCredentialsJSON(b), option.WithScopes(readonlyScope))
	}
	copts = append(copts, o.ClientOptions...)

	svc, err := gsheets.NewService(ctx, copts...)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "create sheets service")
	}
	return &Client{
		svc:     svc,
		opts:    o,
		limiter: rate.NewLimiter(rate.Limit(o.RPS), 1),
		log:     *logger.Named("sheets"),
		sleep:   sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fetch implements ingest.Fetcher for sheets refs
func (c *Client) Fetch(ctx context.Context, ref ingest.Ref) ([][]string, error) {
	if ref.Kind != ingest.KindSheets {
		return nil, perr.InvalidArgf("sheets client cannot read %s sources", ref.Kind)
	}
	return c.Values(ctx, ref.SpreadsheetID, ref.Range)
}

// Values reads one range retrying transport and server failures with a fixed delay
func (c *Client) Values(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "sheets rate limiter")
		}

		start := time.Now()
		rows, err := c.get(ctx, spreadsheetID, rng)
		if err == nil {
			c.log.Info().
				Str("spreadsheet", spreadsheetID).
				Str("range", rng).
				Int("rows", len(rows)).
				Dur("latency", time.Since(start)).
				Int("attempt", attempt).
				Msg("sheets range fetched")
			return rows, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == c.opts.MaxRetries {
			break
		}
		c.log.Warn().Err(err).
			Int("attempt", attempt).
			Int("max", c.opts.MaxRetries).
			Dur("retry_in", c.opts.RetryDelay).
			Msg("sheets fetch failed retrying")
		if err := c.sleep(ctx, c.opts.RetryDelay); err != nil {
			return nil, err
		}
	}
	c.log.Error().Err(lastErr).Int("attempts", c.opts.MaxRetries).Msg("sheets fetch gave up")
	return nil, perr.Wrapf(lastErr, perr.ErrorCodeUnavailable,
		"fetch sheet %s range %s after %d attempts", spreadsheetID, rng, c.opts.MaxRetries)
}

func (c *Client) get(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	actx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(actx).
		Do()
	if err != nil {
		return nil, err
	}
	return flatten(resp.Values), nil
}

// flatten renders each cell as text; sheets omits trailing empty cells
func flatten(values [][]any) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch t := v.(type) {
			case nil:
			case string:
				cells[j] = t
			default:
				cells[j] = fmt.Sprint(t)
			}
		}
		out[i] = cells
	}
	return out
}
