package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/farmbot/gofarm/internal/domain"
	"github.com/farmbot/gofarm/pkg/logger"
	"github.com/farmbot/gofarm/pkg/sdk/api"
)

// ErrNoSession 操作要求已建立会话（前置条件失败，不发起网络调用）
var ErrNoSession = errors.New("no session established")

var (
	// transferFloor 余额低于等于此值时不转账
	transferFloor = decimal.RequireFromString("0.1")
	// transferReserve 留在账户里的缓冲，避免转空后无法支付手续费
	transferReserve = decimal.RequireFromString("0.05")
)

// TransferService 转账流程。单次提交，不在本层叠加重试：
// 转账在调用方视角不是幂等的，激进重发会有重复转出的风险。
type TransferService struct {
	api RewardAPI
}

// NewTransferService 创建转账服务
func NewTransferService(apiClient RewardAPI) *TransferService {
	return &TransferService{api: apiClient}
}

// SendableAmount 计算安全可转金额。
// 只有余额严格大于 0.1 才转账（恰好 0.1 不转），转出 balance-0.05。
func SendableAmount(balance decimal.Decimal) (decimal.Decimal, bool) {
	if balance.Cmp(transferFloor) <= 0 {
		return decimal.Zero, false
	}
	return balance.Sub(transferReserve), true
}

// Transfer 提交一笔转账，返回交易哈希
func (s *TransferService) Transfer(ctx context.Context, acct *domain.Account, toAddress string, amount decimal.Decimal, proxy string) (string, error) {
	if !acct.HasSession() {
		return "", ErrNoSession
	}

	resp, err := s.api.Transfer(ctx, &api.TransferRequest{
		ToAddress: toAddress,
		Amount:    amount.InexactFloat64(),
		UserID:    acct.UserID,
	}, &api.CallOptions{Proxy: proxy, AccessToken: acct.AccessToken})
	if err != nil {
		return "", errors.Wrap(err, "transfer")
	}
	if !resp.Success {
		return "", errors.Errorf("transfer rejected: %s", resp.Message)
	}
	return resp.Data.TransferData.Hash, nil
}

// Sweep 查询余额并按安全金额策略转账。
// 余额不足阈值时不视为错误，返回 (false, nil)。
func (s *TransferService) Sweep(ctx context.Context, acct *domain.Account, toAddress, proxy string) (bool, error) {
	if !acct.HasSession() {
		return false, ErrNoSession
	}

	opt := &api.CallOptions{Proxy: proxy, AccessToken: acct.AccessToken}
	balResp, err := s.api.GetBalance(ctx, acct.UserID, opt)
	if err != nil {
		return false, errors.Wrap(err, "get balance")
	}
	if !balResp.Success {
		return false, errors.Errorf("get balance rejected: %s", balResp.Message)
	}

	amount, ok := SendableAmount(balResp.Data.Balance)
	if !ok {
		logger.Debugf("[transfer] %s: 余额 %s 低于阈值，跳过转账", acct.Address, balResp.Data.Balance)
		return false, nil
	}

	hash, err := s.Transfer(ctx, acct, toAddress, amount, proxy)
	if err != nil {
		return false, err
	}
	logger.Infof("[transfer] %s: 转出 %s → %s (tx=%s)", acct.Address, amount, toAddress, hash)
	return true, nil
}
