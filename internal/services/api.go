package services

import (
	"context"
	"net/http"

	"github.com/farmbot/gofarm/pkg/sdk/api"
)

// RewardAPI 服务层依赖的接口（*api.Client 实现；测试用 fake 替换）
type RewardAPI interface {
	ConnectWallet(ctx context.Context, req *api.ConnectWalletRequest, opt *api.CallOptions) (*api.ConnectWalletResponse, http.Header, error)
	Register(ctx context.Context, req *api.RegisterRequest, opt *api.CallOptions) (*api.RegisterResponse, error)
	GetBalance(ctx context.Context, userID string, opt *api.CallOptions) (*api.BalanceResponse, error)
	FundWallet(ctx context.Context, userID string, opt *api.CallOptions) (*api.FundWalletResponse, error)
	Transfer(ctx context.Context, req *api.TransferRequest, opt *api.CallOptions) (*api.TransferResponse, error)
}
