package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	xproxy "golang.org/x/net/proxy"

	"github.com/farmbot/gofarm/pkg/retry"
)

const (
	// DefaultTimeout 单次请求超时
	DefaultTimeout = 10 * time.Second
	// DefaultAttempts 默认总尝试次数（含首次）
	DefaultAttempts = 3
	// DefaultRetryDelay 两次尝试之间的固定等待
	DefaultRetryDelay = 2 * time.Second
)

// Client 带重试的 HTTP 客户端。按代理缓存底层 resty 客户端：
// 同一个代理在整个运行期间复用同一个连接池。
type Client struct {
	host    string
	origin  string
	timeout time.Duration
	sleep   func(time.Duration)

	mu      sync.Mutex
	clients map[string]*resty.Client // key 为代理 URI，"" 表示直连
}

// NewClient 创建新的 HTTP 客户端
func NewClient(host string) *Client {
	host = strings.TrimSuffix(host, "/")
	return &Client{
		host:    host,
		timeout: DefaultTimeout,
		clients: make(map[string]*resty.Client),
	}
}

// SetOrigin 设置 Origin/Referer 伪装（浏览器样式请求头）
func (c *Client) SetOrigin(origin string) *Client {
	c.origin = strings.TrimSuffix(origin, "/")
	return c
}

// SetSleep 注入 sleep 函数（测试用，默认 time.Sleep）
func (c *Client) SetSleep(fn func(time.Duration)) *Client {
	c.sleep = fn
	return c
}

// RequestOptions 单次请求的可选参数
type RequestOptions struct {
	Headers  map[string]string // 请求级 Header，key 冲突时覆盖默认 Header
	Body     any               // POST body（JSON 序列化）
	Proxy    string            // 代理 URI（http/https/socks5），空表示直连
	Attempts int               // 总尝试次数，0 表示默认值
}

// clientFor 返回指定代理对应的 resty 客户端（懒创建并缓存）
func (c *Client) clientFor(proxy string) (*resty.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rc, ok := c.clients[proxy]; ok {
		return rc, nil
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid proxy uri: %s", proxy)
		}
		if strings.HasPrefix(u.Scheme, "socks") {
			// SOCKS 代理走专用拨号器（x/net/proxy），其余 scheme 走通用正向代理
			dialer, err := xproxy.FromURL(u, xproxy.Direct)
			if err != nil {
				return nil, errors.Wrapf(err, "socks proxy: %s", proxy)
			}
			cd, ok := dialer.(xproxy.ContextDialer)
			if !ok {
				return nil, errors.Errorf("socks dialer has no context support: %s", proxy)
			}
			transport.DialContext = cd.DialContext
		} else {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	rc := resty.NewWithClient(&http.Client{
		Transport: transport,
		Timeout:   c.timeout,
	}).SetBaseURL(c.host)

	c.clients[proxy] = rc
	return rc, nil
}

// 仅设置本次请求的默认 Header（不要再改 client 级 Header）
func (c *Client) newRequest(ctx context.Context, rc *resty.Client, headers map[string]string) *resty.Request {
	r := rc.R()
	if ctx != nil {
		r.SetContext(ctx)
	}
	r.SetHeader("Accept", "application/json, text/plain, */*")
	r.SetHeader("Accept-Language", "en-US,en;q=0.9")
	r.SetHeader("Connection", "keep-alive")
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	if c.origin != "" {
		r.SetHeader("Origin", c.origin)
		r.SetHeader("Referer", c.origin+"/")
	}
	// 请求级 Header 覆盖默认 Header（例如会话 Cookie）
	for k, v := range headers {
		r.SetHeader(k, v)
	}
	return r
}

// Execute 执行请求，网络错误与非 2xx 按固定间隔重试，
// 预算耗尽后返回最后一次的错误。
// 非 2xx 但带有结构化 {success:false, message} 响应体的应用层失败
// 不属于传输错误，直接交给调用方分类处理。
func (c *Client) Execute(ctx context.Context, method, endpoint string, opt *RequestOptions) (*resty.Response, error) {
	if opt == nil {
		opt = &RequestOptions{}
	}
	rc, err := c.clientFor(opt.Proxy)
	if err != nil {
		return nil, err
	}

	attempts := opt.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	policy := retry.Policy{
		MaxAttempts: attempts,
		Delay:       retry.Flat(DefaultRetryDelay),
		Sleep:       c.sleep,
	}

	var resp *resty.Response
	err = policy.Do(ctx, func(attempt int) error {
		r := c.newRequest(ctx, rc, opt.Headers)
		if opt.Body != nil {
			r.SetBody(opt.Body)
		}

		var doErr error
		switch strings.ToUpper(method) {
		case http.MethodGet:
			resp, doErr = r.Get(endpoint)
		case http.MethodPost:
			resp, doErr = r.Post(endpoint)
		case http.MethodPut:
			resp, doErr = r.Put(endpoint)
		case http.MethodDelete:
			resp, doErr = r.Delete(endpoint)
		default:
			return errors.Errorf("unsupported method: %s", method)
		}

		if doErr != nil {
			return doErr
		}
		if resp.IsSuccess() {
			return nil
		}
		// 非 2xx：若响应体是结构化失败，视为应用层结果而非传输错误
		if isStructuredFailure(resp.Body()) {
			return nil
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode(), truncate(string(resp.Body()), 200))
	})
	if err != nil {
		return nil, errors.Wrapf(err, "request %s %s failed after %d attempts", method, endpoint, attempts)
	}
	return resp, nil
}

// isStructuredFailure 判断响应体是否为 {success:..., message:...} 形式
func isStructuredFailure(body []byte) bool {
	var envelope struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false
	}
	return envelope.Success != nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
