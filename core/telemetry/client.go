package telemetry

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// RawSink receives raw provider payloads that could not be normalized, so
// they can be preserved for diagnosis. Implementations must be best-effort
// and never block the caller on failure.
type RawSink interface {
	StoreRaw(ctx context.Context, deviceID string, payload []byte)
}

// Client fetches and normalizes telemetry from the tracking provider.
//
// Each Fetch performs at most one authenticated track lookup with a bounded
// timeout; there are no retries beyond a single transparent token refresh
// when the provider rejects the cached token. Concurrent fetches for the
// same device are collapsed into one provider call via singleflight.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens *tokenCache
	sf     singleflight.Group
	logger *zap.Logger
	sink   RawSink
}

// NewClient creates a provider client. sink may be nil when raw payload
// archiving is disabled.
func NewClient(cfg Config, logg *zap.Logger, sink RawSink) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 15
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeoutDuration,
		},
		tokens: newTokenCache(cfg.TokenMarginSeconds),
		logger: logg,
		sink:   sink,
	}
}

// Fetch retrieves the latest track for the device and normalizes it into a
// Sample. On any failure it returns a *ProviderError, never a zero Sample.
func (c *Client) Fetch(ctx context.Context, deviceID string) (*Sample, error) {
	if deviceID == "" {
		return nil, Malformed("track", fmt.Errorf("device id is empty"))
	}

	v, err, _ := c.sf.Do(deviceID, func() (any, error) {
		return c.fetch(ctx, deviceID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Sample), nil
}

func (c *Client) fetch(ctx context.Context, deviceID string) (*Sample, error) {
	record, err := c.latestTrack(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	sample, nerr := normalizeRecord(deviceID, record)
	if nerr != nil {
		if raw, merr := json.Marshal(record); merr == nil && c.sink != nil {
			c.sink.StoreRaw(ctx, deviceID, raw)
		}
		c.logger.Warn("Malformed telemetry record",
			zap.String("device_id", deviceID),
			zap.Error(nerr),
		)
		return nil, Malformed("track", nerr)
	}

	return sample, nil
}

// latestTrack fetches the newest raw track record for the device, refreshing
// the access token once if the provider rejects the cached one.
func (c *Client) latestTrack(ctx context.Context, deviceID string) (map[string]any, error) {
	token, err := c.accessToken(ctx, false)
	if err != nil {
		return nil, err
	}

	record, rejected, err := c.track(ctx, token, deviceID)
	if rejected {
		// Cached token no longer accepted; refresh and try once more.
		token, err = c.accessToken(ctx, true)
		if err != nil {
			return nil, err
		}
		record, rejected, err = c.track(ctx, token, deviceID)
		if rejected {
			return nil, Unavailable("track", fmt.Errorf("provider rejected freshly issued token"))
		}
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// accessToken returns a valid access token, acquiring a new one when the
// cache is empty, expired, or force is set.
func (c *Client) accessToken(ctx context.Context, force bool) (string, error) {
	if !force {
		if token, ok := c.tokens.get(); ok {
			return token, nil
		}
	}
	c.tokens.invalidate()

	if c.cfg.Account == "" || c.cfg.Password == "" {
		return "", Unavailable("authorization", fmt.Errorf("provider account or password not configured"))
	}

	now := time.Now().Unix()
	signature := md5Hex(md5Hex(c.cfg.Password) + strconv.FormatInt(now, 10))

	params := url.Values{}
	params.Set("time", strconv.FormatInt(now, 10))
	params.Set("account", c.cfg.Account)
	params.Set("signature", signature)

	env, err := c.get(ctx, "authorization", "/api/authorization", params)
	if err != nil {
		return "", err
	}
	if env.Code != 0 {
		return "", Unavailable("authorization", fmt.Errorf("provider returned code %d", env.Code))
	}

	var rec struct {
		AccessToken string `json:"access_token"`
		ExpireTime  int64  `json:"expire_time"`
	}
	if err := json.Unmarshal(env.recordOrData(), &rec); err != nil {
		return "", Malformed("authorization", fmt.Errorf("decoding token record: %w", err))
	}
	if rec.AccessToken == "" {
		return "", Malformed("authorization", fmt.Errorf("access_token missing from authorization response"))
	}

	expiresAt := rec.ExpireTime
	if expiresAt <= now {
		ttl := c.cfg.TokenTTLSeconds
		if ttl <= 0 {
			ttl = 1800
		}
		expiresAt = now + ttl
	}
	c.tokens.set(rec.AccessToken, expiresAt)

	return rec.AccessToken, nil
}

// track performs the single-device lookup. The rejected return is true when
// the provider refused the token, letting the caller refresh and retry once.
func (c *Client) track(ctx context.Context, token, deviceID string) (map[string]any, bool, error) {
	params := url.Values{}
	params.Set("access_token", token)
	params.Set("imeis", deviceID)

	env, err := c.get(ctx, "track", "/api/track", params)
	if err != nil {
		return nil, false, err
	}
	if env.Code != 0 {
		return nil, true, nil
	}

	var records []map[string]any
	if err := json.Unmarshal(env.recordOrData(), &records); err != nil {
		return nil, false, Malformed("track", fmt.Errorf("decoding track records: %w", err))
	}
	if len(records) == 0 {
		return nil, false, Unavailable("track", fmt.Errorf("no track record returned for device %s", deviceID))
	}

	// The provider returns a list even for a single imei; the first entry is
	// the newest track.
	return records[0], false, nil
}

// envelope is the provider's standard response wrapper. Some endpoints place
// the payload under "record", others under "data".
type envelope struct {
	Code   int             `json:"code"`
	Record json.RawMessage `json:"record"`
	Data   json.RawMessage `json:"data"`
}

func (e *envelope) recordOrData() json.RawMessage {
	if len(e.Record) > 0 && string(e.Record) != "null" {
		return e.Record
	}
	return e.Data
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values) (*envelope, error) {
	u := c.cfg.BaseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, Unavailable(op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, Unavailable(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Unavailable(op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, Unavailable(op, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256)))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, Malformed(op, fmt.Errorf("decoding response: %w: %s", err, truncate(body, 256)))
	}

	return &env, nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
