package services

import (
	"context"
	"net/http"

	"github.com/farmbot/gofarm/pkg/sdk/api"
)

// fakeAPI 测试用的 RewardAPI 实现：按字段注入行为，记录调用次数
type fakeAPI struct {
	connectFn  func(req *api.ConnectWalletRequest, opt *api.CallOptions) (*api.ConnectWalletResponse, http.Header, error)
	registerFn func(req *api.RegisterRequest, opt *api.CallOptions) (*api.RegisterResponse, error)
	balanceFn  func(userID string, opt *api.CallOptions) (*api.BalanceResponse, error)
	fundFn     func(userID string, opt *api.CallOptions) (*api.FundWalletResponse, error)
	transferFn func(req *api.TransferRequest, opt *api.CallOptions) (*api.TransferResponse, error)

	connectCalls  int
	registerCalls int
	balanceCalls  int
	fundCalls     int
	transferCalls int
}

func (f *fakeAPI) ConnectWallet(_ context.Context, req *api.ConnectWalletRequest, opt *api.CallOptions) (*api.ConnectWalletResponse, http.Header, error) {
	f.connectCalls++
	return f.connectFn(req, opt)
}

func (f *fakeAPI) Register(_ context.Context, req *api.RegisterRequest, opt *api.CallOptions) (*api.RegisterResponse, error) {
	f.registerCalls++
	return f.registerFn(req, opt)
}

func (f *fakeAPI) GetBalance(_ context.Context, userID string, opt *api.CallOptions) (*api.BalanceResponse, error) {
	f.balanceCalls++
	return f.balanceFn(userID, opt)
}

func (f *fakeAPI) FundWallet(_ context.Context, userID string, opt *api.CallOptions) (*api.FundWalletResponse, error) {
	f.fundCalls++
	return f.fundFn(userID, opt)
}

func (f *fakeAPI) Transfer(_ context.Context, req *api.TransferRequest, opt *api.CallOptions) (*api.TransferResponse, error) {
	f.transferCalls++
	return f.transferFn(req, opt)
}

// loginOKHeader 带有 access_token Cookie 的响应头
func loginOKHeader(token string) http.Header {
	h := http.Header{}
	h.Add("Set-Cookie", "access_token="+token+"; Path=/; HttpOnly")
	return h
}

// connectOK 构造成功的登录响应
func connectOK(userID, state string) *api.ConnectWalletResponse {
	resp := &api.ConnectWalletResponse{Success: true}
	resp.Data.UserID = jsonNumber(userID)
	resp.Data.IsSocialExists = state
	return resp
}

// balanceOK 构造成功的余额响应
func balanceOK(balance string) *api.BalanceResponse {
	resp := &api.BalanceResponse{Success: true}
	resp.Data.Balance = mustDecimal(balance)
	return resp
}

// fundOK 构造成功的领取响应
func fundOK(amount string) *api.FundWalletResponse {
	resp := &api.FundWalletResponse{Success: true}
	resp.Data.FundedAmount = mustDecimal(amount)
	return resp
}

// fundFail 构造失败的领取响应
func fundFail(message string) *api.FundWalletResponse {
	return &api.FundWalletResponse{Success: false, Message: message}
}
