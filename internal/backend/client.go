package backend

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Observer receives the outcome of every backend call.
type Observer func(op, table string, err error, elapsed time.Duration)

// Client is the explicitly constructed handle to the backend. It satisfies
// Driver so services depend on the interface only.
type Client struct {
	driver   Driver
	logger   *zap.Logger
	observer Observer
	degraded bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithObserver installs a per-call observer such as a metrics recorder.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient wraps driver. A nil driver yields a degraded client.
func NewClient(driver Driver, logger *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{driver: driver, logger: logger}
	if driver == nil {
		c.driver = Unavailable()
	}
	if _, ok := c.driver.(unavailable); ok {
		c.degraded = true
		logger.Warn("Backend client running in degraded mode; every call will fail until URL and anon key are configured")
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Degraded reports whether the client lacks endpoint configuration.
func (c *Client) Degraded() bool {
	return c.degraded
}

func (c *Client) Name() string {
	return c.driver.Name()
}

func (c *Client) observe(op, table string, start time.Time, err error) {
	elapsed := time.Since(start)
	if c.observer != nil {
		c.observer(op, table, err, elapsed)
	}
	if err != nil && !IsNoRows(err) {
		c.logger.Debug("Backend call failed",
			zap.String("op", op),
			zap.String("table", table),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	}
}

func (c *Client) Select(ctx context.Context, q *Query, dest interface{}) (err error) {
	defer func(start time.Time) { c.observe("select", q.Table, start, err) }(time.Now())
	return c.driver.Select(ctx, q, dest)
}

func (c *Client) SelectOne(ctx context.Context, q *Query, dest interface{}) (err error) {
	defer func(start time.Time) { c.observe("select_one", q.Table, start, err) }(time.Now())
	return c.driver.SelectOne(ctx, q, dest)
}

func (c *Client) Count(ctx context.Context, q *Query) (n int64, err error) {
	defer func(start time.Time) { c.observe("count", q.Table, start, err) }(time.Now())
	return c.driver.Count(ctx, q)
}

func (c *Client) Insert(ctx context.Context, table string, row interface{}) (err error) {
	defer func(start time.Time) { c.observe("insert", table, start, err) }(time.Now())
	return c.driver.Insert(ctx, table, row)
}

func (c *Client) Update(ctx context.Context, q *Query, values map[string]interface{}, dest interface{}) (err error) {
	defer func(start time.Time) { c.observe("update", q.Table, start, err) }(time.Now())
	return c.driver.Update(ctx, q, values, dest)
}

func (c *Client) Delete(ctx context.Context, q *Query) (n int64, err error) {
	defer func(start time.Time) { c.observe("delete", q.Table, start, err) }(time.Now())
	return c.driver.Delete(ctx, q)
}

func (c *Client) Ping(ctx context.Context) error {
	return c.driver.Ping(ctx)
}

// Close releases the driver's resources.
func (c *Client) Close() error {
	c.logger.Info("Closing backend client", zap.String("driver", c.driver.Name()))
	return c.driver.Close()
}

// unavailable fails every call with ErrBackendUnavailable.
type unavailable struct{}

// Unavailable returns the driver used in degraded mode.
func Unavailable() Driver {
	return unavailable{}
}

func (unavailable) Name() string { return "unavailable" }

func (unavailable) Select(context.Context, *Query, interface{}) error {
	return ErrBackendUnavailable
}

func (unavailable) SelectOne(context.Context, *Query, interface{}) error {
	return ErrBackendUnavailable
}

func (unavailable) Count(context.Context, *Query) (int64, error) {
	return 0, ErrBackendUnavailable
}

func (unavailable) Insert(context.Context, string, interface{}) error {
	return ErrBackendUnavailable
}

func (unavailable) Update(context.Context, *Query, map[string]interface{}, interface{}) error {
	return ErrBackendUnavailable
}

func (unavailable) Delete(context.Context, *Query) (int64, error) {
	return 0, ErrBackendUnavailable
}

func (unavailable) Ping(context.Context) error { return ErrBackendUnavailable }

func (unavailable) Close() error { return nil }
