package reanalysis

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/forestclim/canopyfft/canopyfft"
	"github.com/sony/gobreaker"
)

// Open-Meteo の過去データAPI (ERA5, ERA5-Land)
const DefaultBaseURL = "https://archive-api.open-meteo.com/v1/archive"

// 再試行の設定
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// 再解析APIのクライアント
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Backoff  BackoffConfig
	CacheDir string // 空の場合はキャッシュしない

	circuit *gobreaker.CircuitBreaker
}

// 連続してこの回数失敗するとサーキットブレーカーが開き、
// Timeout までの再試行と Fetch は errCircuitOpen ですぐに失敗します。
const breakerFailures = 3

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

func NewClient(baseURL string, httpClient *http.Client, cacheDir string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		BaseURL:  baseURL,
		HTTP:     httpClient,
		CacheDir: cacheDir,
		Backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "reanalysis",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warnf("circuit breaker %s: %s -> %s", name, from, to)
			},
		}),
	}
}

// APIの応答
type archiveResponse struct {
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Timezone    string            `json:"timezone"`
	HourlyUnits map[string]string `json:"hourly_units"`
	Hourly      struct {
		Time          []string   `json:"time"`
		Temperature2m []*float64 `json:"temperature_2m"`
	} `json:"hourly"`
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// 地点・期間 q の毎時2m気温を取得し、摂氏の系列 (tas) にして返します。
// キャッシュディレクトリに同じ問い合わせの応答があればそれを使います。
func (c *Client) Fetch(ctx context.Context, q Query) (*Dataset, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	body, err := c.load(ctx, q)
	if err != nil {
		return nil, err
	}

	var payload archiveResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Error {
		return nil, fmt.Errorf("reanalysis api: %s", payload.Reason)
	}

	data, err := payload.dataset()
	if err != nil {
		return nil, err
	}
	data.locate(q)
	return data, nil
}

func (p *archiveResponse) dataset() (*Dataset, error) {
	if len(p.Hourly.Time) != len(p.Hourly.Temperature2m) {
		return nil, fmt.Errorf("response has %d times and %d temperatures", len(p.Hourly.Time), len(p.Hourly.Temperature2m))
	}

	unit, ok := p.HourlyUnits["temperature_2m"]
	if !ok {
		unit = "°C"
	}
	toCelsius, err := ToCelsius(unit)
	if err != nil {
		return nil, err
	}

	s := &canopyfft.Series{
		Name:  "tas",
		Date:  make([]time.Time, len(p.Hourly.Time)),
		Value: make([]float64, len(p.Hourly.Time)),
	}
	for i, raw := range p.Hourly.Time {
		date, err := time.Parse("2006-01-02T15:04", raw)
		if err != nil {
			return nil, fmt.Errorf("time[%d] %q: %w", i, raw, err)
		}
		s.Date[i] = date.UTC()
		if v := p.Hourly.Temperature2m[i]; v != nil {
			s.Value[i] = toCelsius(*v)
		} else {
			s.Value[i] = math.NaN()
		}
	}

	return &Dataset{Lat: p.Latitude, Lon: p.Longitude, Series: s}, nil
}

// キャッシュ、なければAPIから応答を読み込みます。
func (c *Client) load(ctx context.Context, q Query) ([]byte, error) {
	cache_path := ""
	if c.CacheDir != "" {
		cache_path = filepath.Join(c.CacheDir, q.cacheKey()+".json.gz")
		if fileExists(cache_path) {
			logger.Infof("reanalysis cache: %s", cache_path)
			return readGzip(cache_path)
		}
	}

	u := c.requestURL(q)
	logger.Infof("reanalysis download %s", redact(u))

	resp, err := c.do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if cache_path != "" {
		if err := writeGzip(cache_path, b); err != nil {
			return nil, fmt.Errorf("cache %s: %w", cache_path, err)
		}
		logger.Infof("reanalysis cached => %s", cache_path)
	}

	return b, nil
}

func (c *Client) requestURL(q Query) string {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", q.Lat))
	values.Set("longitude", fmt.Sprintf("%f", q.Lon))
	values.Set("start_date", q.Start.Format("2006-01-02"))
	values.Set("end_date", q.End.Format("2006-01-02"))
	values.Set("hourly", "temperature_2m")
	values.Set("timezone", "GMT")
	if q.Dataset != "" {
		values.Set("models", q.Dataset)
	}
	if q.Project != "" {
		values.Set("apikey", q.Project)
	}
	return fmt.Sprintf("%s?%s", c.BaseURL, values.Encode())
}

// 再試行 (指数バックオフ) とサーキットブレーカー付きでリクエストを実行します。
func (c *Client) do(ctx context.Context, buildRequest func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	var attempt int
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest(ctx)
		if err != nil {
			return nil, err
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, err := c.HTTP.Do(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d %s", errUnexpected, resp.StatusCode, bytes.TrimSpace(msg))
			}
			return resp, nil
		})
		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		// 4xx は再試行しない
		if errors.Is(err, errUnexpected) || attempt >= c.Backoff.MaxRetries {
			return nil, err
		}

		delay := c.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.Backoff.MaxInterval && c.Backoff.MaxInterval > 0 {
			delay = c.Backoff.MaxInterval
		}
		logger.Warnf("reanalysis request failed (%v), retry in %s", err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func readGzip(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gf, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer gf.Close()

	return io.ReadAll(gf)
}

func writeGzip(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(b); err != nil {
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ログに APIキーを出さない
func redact(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	values := parsed.Query()
	if values.Has("apikey") {
		values.Set("apikey", "***")
		parsed.RawQuery = values.Encode()
	}
	return parsed.String()
}
