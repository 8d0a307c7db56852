package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	sdkhttp "github.com/farmbot/gofarm/pkg/sdk/http"
)

// ErrProtocol marks a well-formed HTTP response whose body does not match
// the expected shape. These are never retried at this layer.
var ErrProtocol = errors.New("unexpected response shape")

// CallOptions carries the per-call proxy and session credential.
type CallOptions struct {
	Proxy       string
	AccessToken string
}

func (o *CallOptions) headers() map[string]string {
	if o == nil || o.AccessToken == "" {
		return nil
	}
	return map[string]string{
		"Cookie": "access_token=" + o.AccessToken,
	}
}

func (o *CallOptions) proxy() string {
	if o == nil {
		return ""
	}
	return o.Proxy
}

// Client is the typed boundary to the rewards service. All network I/O goes
// through the shared retrying HTTP client; this layer only shapes requests
// and decodes responses.
type Client struct {
	http *sdkhttp.Client
}

// NewClient creates an API client for the given base URL. origin is the
// browser origin to spoof on every request.
func NewClient(baseURL, origin string) *Client {
	return &Client{
		http: sdkhttp.NewClient(baseURL).SetOrigin(origin),
	}
}

// HTTP exposes the underlying request client (used by tests and cmd wiring).
func (c *Client) HTTP() *sdkhttp.Client {
	return c.http
}

func decode(resp *resty.Response, out any) error {
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(ErrProtocol, "decode %s: %v", resp.Request.URL, err)
	}
	return nil
}

// ConnectWallet performs the login handshake. The returned header set is the
// raw response headers; the session layer extracts the access_token cookie
// from it.
func (c *Client) ConnectWallet(ctx context.Context, req *ConnectWalletRequest, opt *CallOptions) (*ConnectWalletResponse, http.Header, error) {
	resp, err := c.http.Execute(ctx, http.MethodPost, "/user/connect-wallet", &sdkhttp.RequestOptions{
		Body:    req,
		Proxy:   opt.proxy(),
		Headers: opt.headers(),
	})
	if err != nil {
		return nil, nil, err
	}
	var out ConnectWalletResponse
	if err := decode(resp, &out); err != nil {
		return nil, nil, err
	}
	return &out, resp.Header(), nil
}

// Register completes social-handle onboarding for a pending account.
func (c *Client) Register(ctx context.Context, req *RegisterRequest, opt *CallOptions) (*RegisterResponse, error) {
	resp, err := c.http.Execute(ctx, http.MethodPost, "/auth/register", &sdkhttp.RequestOptions{
		Body:    req,
		Proxy:   opt.proxy(),
		Headers: opt.headers(),
	})
	if err != nil {
		return nil, err
	}
	var out RegisterResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBalance fetches the current balance for a user.
func (c *Client) GetBalance(ctx context.Context, userID string, opt *CallOptions) (*BalanceResponse, error) {
	resp, err := c.http.Execute(ctx, http.MethodGet, fmt.Sprintf("/transaction/get-balance/%s", userID), &sdkhttp.RequestOptions{
		Proxy:   opt.proxy(),
		Headers: opt.headers(),
	})
	if err != nil {
		return nil, err
	}
	var out BalanceResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FundWallet requests the daily reward disbursement.
func (c *Client) FundWallet(ctx context.Context, userID string, opt *CallOptions) (*FundWalletResponse, error) {
	resp, err := c.http.Execute(ctx, http.MethodGet, fmt.Sprintf("/transaction/fund-wallet/%s", userID), &sdkhttp.RequestOptions{
		Proxy:   opt.proxy(),
		Headers: opt.headers(),
	})
	if err != nil {
		return nil, err
	}
	var out FundWalletResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transfer submits a single transfer. No extra retry layer on top of the
// request client: transfers are not idempotent from the caller's view.
func (c *Client) Transfer(ctx context.Context, req *TransferRequest, opt *CallOptions) (*TransferResponse, error) {
	resp, err := c.http.Execute(ctx, http.MethodPost, "/transaction/transfer", &sdkhttp.RequestOptions{
		Body:    req,
		Proxy:   opt.proxy(),
		Headers: opt.headers(),
	})
	if err != nil {
		return nil, err
	}
	var out TransferResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
