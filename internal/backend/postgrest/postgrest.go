// Package postgrest talks to a Supabase project over its REST surface:
// PostgREST for tables and the Storage API for objects.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"furniture-miniapp/internal/backend"

	"github.com/cenkalti/backoff/v4"
	pgrest "github.com/supabase-community/postgrest-go"
	"go.uber.org/zap"
)

const mediaObject = "application/vnd.pgrst.object+json"

// Config holds the project endpoint and credentials.
type Config struct {
	URL        string
	AnonKey    string
	Timeout    time.Duration
	MaxRetries int
	// Transport carries every table request; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Driver implements backend.Driver against PostgREST.
type Driver struct {
	baseURL    string
	apiKey     string
	transport  http.RoundTripper
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

// New creates a driver. URL and AnonKey are required.
func New(cfg Config, logger *zap.Logger) (*Driver, error) {
	if strings.TrimSpace(cfg.URL) == "" || strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, backend.ErrBackendUnavailable
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Driver{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.AnonKey,
		transport:  transport,
		timeout:    timeout,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}, nil
}

func (d *Driver) Name() string { return "postgrest" }

func (d *Driver) Close() error {
	if t, ok := d.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
	return nil
}

func (d *Driver) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	client, x := d.client(ctx)
	if client.Ping() {
		return nil
	}
	if x.status != 0 {
		return parseError(x.status, x.body)
	}
	return fmt.Errorf("network error: %w", client.ClientError)
}

func (d *Driver) Select(ctx context.Context, q *backend.Query, dest interface{}) error {
	data, _, err := d.execute(ctx, http.MethodGet, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return applyQuery(c.From(q.Table).Select(selectColumns(q), "", false), q)
	})
	if err != nil {
		return err
	}
	return decode(data, dest)
}

func (d *Driver) SelectOne(ctx context.Context, q *backend.Query, dest interface{}) error {
	data, _, err := d.execute(ctx, http.MethodGet, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return applyQuery(c.From(q.Table).Select(selectColumns(q), "", false), q).Single()
	})
	if err != nil {
		return err
	}
	return decode(data, dest)
}

// Count issues a HEAD request and reads the total from Content-Range.
func (d *Driver) Count(ctx context.Context, q *backend.Query) (int64, error) {
	counted := *q
	counted.Orders = nil
	counted.Limit, counted.Offset = 0, 0
	_, n, err := d.execute(ctx, http.MethodHead, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return applyQuery(c.From(q.Table).Select("id", "exact", true), &counted)
	})
	return n, err
}

func (d *Driver) Insert(ctx context.Context, table string, row interface{}) error {
	values, err := backend.RowValues(row)
	if err != nil {
		return fmt.Errorf("encode %s row: %w", table, err)
	}
	body, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode %s row: %w", table, err)
	}
	data, _, err := d.execute(ctx, http.MethodPost, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return c.From(table).Insert(json.RawMessage(body), false, "", "representation", "").Single()
	})
	if err != nil {
		return err
	}
	return decode(data, row)
}

func (d *Driver) Update(ctx context.Context, q *backend.Query, values map[string]interface{}, dest interface{}) error {
	body, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode %s patch: %w", q.Table, err)
	}
	returning := "minimal"
	if dest != nil {
		returning = "representation"
	}
	data, _, err := d.execute(ctx, http.MethodPatch, func(c *pgrest.Client) *pgrest.FilterBuilder {
		fb := applyQuery(c.From(q.Table).Update(json.RawMessage(body), returning, ""), q)
		if dest != nil {
			fb = fb.Single()
		}
		return fb
	})
	if err != nil {
		return err
	}
	return decode(data, dest)
}

func (d *Driver) Delete(ctx context.Context, q *backend.Query) (int64, error) {
	if len(q.Filters) == 0 {
		return 0, fmt.Errorf("refusing to delete from %s without filters", q.Table)
	}
	data, _, err := d.execute(ctx, http.MethodDelete, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return applyQuery(c.From(q.Table).Delete("representation", ""), q)
	})
	if err != nil {
		return 0, err
	}
	var deleted []json.RawMessage
	if err := decode(data, &deleted); err != nil {
		return 0, err
	}
	return int64(len(deleted)), nil
}

func selectColumns(q *backend.Query) string {
	return strings.Join(q.ColumnList(), ",")
}

// applyQuery renders q's filters, search group, ordering and window onto fb
// in PostgREST's query-string grammar.
func applyQuery(fb *pgrest.FilterBuilder, q *backend.Query) *pgrest.FilterBuilder {
	for _, f := range q.Filters {
		switch f.Op {
		case backend.OpIn:
			ids, _ := f.Value.([]int64)
			values := make([]string, len(ids))
			for i, id := range ids {
				values[i] = strconv.FormatInt(id, 10)
			}
			fb = fb.In(f.Column, values)
		case backend.OpLt:
			fb = fb.Lt(f.Column, formatValue(f.Value))
		default:
			fb = fb.Eq(f.Column, formatValue(f.Value))
		}
	}

	if q.AnyOf != nil && len(q.AnyOf.Columns) > 0 {
		fb = fb.Or(searchFilter(q.AnyOf), "")
	}

	for _, o := range q.Orders {
		fb = fb.Order(o.Column, &pgrest.OrderOpts{Ascending: o.Ascending})
	}

	if q.Limit > 0 {
		fb = fb.Range(q.Offset, q.Offset+q.Limit-1, "")
	}
	return fb
}

// searchFilter renders an ILikeGroup as the body of an or=(...) filter. The
// term is matched literally: LIKE metacharacters are escaped and a "*",
// which PostgREST would turn into "%", matches a single character instead.
func searchFilter(g *backend.ILikeGroup) string {
	pattern := quote("*" + likeLiteral(g.Term) + "*")
	parts := make([]string, len(g.Columns))
	for i, c := range g.Columns {
		parts[i] = c + ".ilike." + pattern
	}
	return strings.Join(parts, ",")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `_`)

func likeLiteral(term string) string {
	return likeEscaper.Replace(term)
}

// quote wraps a value in double quotes so reserved characters (commas,
// parentheses, dots) inside search terms stay literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

func decode(data []byte, dest interface{}) error {
	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

// exchange binds the requests of one postgrest-go client to ctx and keeps
// the raw status and body, which the library folds into an error string.
type exchange struct {
	ctx    context.Context
	base   http.RoundTripper
	status int
	body   []byte
}

func (x *exchange) RoundTrip(req *http.Request) (*http.Response, error) {
	// The client appends its default Accept after a builder's own.
	if accept := req.Header.Values("Accept"); len(accept) > 1 {
		req.Header.Set("Accept", accept[0])
	}

	resp, err := x.base.RoundTrip(req.WithContext(x.ctx))
	if err != nil {
		return nil, err
	}
	// The library does not close every body it reads, so hand it a buffer.
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	x.status = resp.StatusCode
	x.body = data
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

func (d *Driver) client(ctx context.Context) (*pgrest.Client, *exchange) {
	x := &exchange{ctx: ctx, base: d.transport}
	client := pgrest.NewClient(d.baseURL+"/rest/v1", "", map[string]string{
		"apikey":        d.apiKey,
		"Authorization": "Bearer " + d.apiKey,
	})
	client.Transport.Parent = x
	return client, x
}

// execute runs one PostgREST call, retrying transient failures with
// exponential backoff. build gets a fresh client per attempt.
func (d *Driver) execute(ctx context.Context, method string, build func(*pgrest.Client) *pgrest.FilterBuilder) ([]byte, int64, error) {
	var (
		data  []byte
		count int64
	)
	err := d.retry(ctx, method, func() error {
		callCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		client, x := d.client(callCtx)
		body, n, err := build(client).Execute()
		if err == nil {
			data, count = body, n
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if x.status == 0 {
			return fmt.Errorf("network error: %w", err)
		}
		return statusError(parseError(x.status, x.body))
	})
	return data, count, err
}

// retry runs operation under the driver's backoff policy. Errors wrapped in
// backoff.Permanent stop the loop and are returned unwrapped.
func (d *Driver) retry(ctx context.Context, method string, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second

	retries := d.maxRetries
	if retries < 0 {
		retries = 0
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx),
		func(err error, wait time.Duration) {
			d.logger.Warn("Retrying backend request",
				zap.String("method", method),
				zap.Duration("wait", wait),
				zap.Error(err))
		})
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return permanent.Err
		}
		return err
	}
	return nil
}

// statusError marks apiErr permanent unless its status is worth retrying.
func statusError(apiErr *backend.Error) error {
	if retryable(apiErr.Status) {
		return apiErr
	}
	return backoff.Permanent(apiErr)
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func parseError(status int, body []byte) *backend.Error {
	apiErr := &backend.Error{Status: status}
	if len(body) > 0 && json.Unmarshal(body, apiErr) == nil && apiErr.Message != "" {
		return apiErr
	}

	// Storage errors use {"error": ..., "message": ...}.
	var alt struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &alt) == nil && (alt.Message != "" || alt.Error != "") {
		apiErr.Message = alt.Message
		if apiErr.Message == "" {
			apiErr.Message = alt.Error
		}
		return apiErr
	}

	apiErr.Message = http.StatusText(status)
	if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}
