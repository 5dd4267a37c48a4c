// Package backend 是分析服务的 HTTP 客户端。
//
// AnalysisClient 与 RecommendationClient 共用同一个 transport，
// 但生命周期相互独立：任何一个失败都不会影响另一个已经拿到的结果。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/lucidly/internal/apperr"
	"github.com/iWorld-y/lucidly/internal/logger"
)

const (
	checkPath           = "/api/check"
	recommendationsPath = "/api/recommendations"
)

// Option 客户端选项
type Option func(*transport)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) { t.client = c }
}

// WithLimiter 设置请求限流器
func WithLimiter(l *rate.Limiter) Option {
	return func(t *transport) { t.limiter = l }
}

// WithTimeout 设置单次请求超时，0 表示不超时。
// 作用在当前 client 的副本上，与 WithHTTPClient 的先后顺序无关。
func WithTimeout(d time.Duration) Option {
	return func(t *transport) { t.timeout = &d }
}

// transport JSON over HTTP，每次调用只发一次请求，不重试、不缓存
type transport struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	timeout *time.Duration
}

func newTransport(baseURL string, opts ...Option) *transport {
	t := &transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.timeout != nil {
		c := *t.client
		c.Timeout = *t.timeout
		t.client = &c
	}
	return t
}

// postJSON 发送 POST 请求并把响应解码到 out。
// 网络错误和非 2xx 返回 TRANSPORT，body 无法解码返回 PARSE。
func (t *transport) postJSON(ctx context.Context, path string, in, out any) error {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return apperr.Transport("rate limiter wait failed", err)
		}
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := t.client.Do(httpReq)
	if err != nil {
		logger.Log.Warnf("请求失败 [%s]: %v", path, err)
		return apperr.Transport(fmt.Sprintf("request %s failed", path), err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return apperr.Transport(fmt.Sprintf("read %s body failed", path), err)
	}
	logger.Log.Debugf("请求 [%s] 完成: status=%d, 耗时 %s", path, res.StatusCode, time.Since(start))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		logger.Log.Warnf("服务返回错误 [%s]: status=%d body=%s", path, res.StatusCode, truncate(string(body), 200))
		return apperr.Transport(fmt.Sprintf("api error (status %d)", res.StatusCode), nil)
	}

	if err := json.Unmarshal(body, out); err != nil {
		logger.Log.Warnf("响应解析失败 [%s]: %v", path, err)
		return apperr.Parse(fmt.Sprintf("decode %s response failed", path), err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
