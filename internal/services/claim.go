package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmbot/gofarm/internal/domain"
	"github.com/farmbot/gofarm/pkg/logger"
	"github.com/farmbot/gofarm/pkg/retry"
	"github.com/farmbot/gofarm/pkg/sdk/api"
)

const (
	// claimMaxAttempts 每账户每轮运行的领取尝试预算
	claimMaxAttempts = 5
	// 限流退避：base + step*attempt（第 1 次失败等 15s，第 2 次 20s ...）
	claimRateLimitBase = 10 * time.Second
	claimRateLimitStep = 5 * time.Second
	// 普通失败的平速重试间隔
	claimGenericDelay = 5 * time.Second
)

// ClaimService 领取状态机：NotClaimed → Claiming → {Claimed, AlreadyClaimed, Failed}。
// 每账户每轮运行一个实例状态；跨运行的状态由远端服务的每日限额兜底。
type ClaimService struct {
	api       RewardAPI
	sleep     func(time.Duration)
	rateDelay retry.DelayFunc
}

// NewClaimService 创建领取服务
func NewClaimService(apiClient RewardAPI) *ClaimService {
	return &ClaimService{
		api:       apiClient,
		sleep:     time.Sleep,
		rateDelay: retry.Escalating(claimRateLimitBase, claimRateLimitStep),
	}
}

// SetSleep 注入 sleep 函数（测试用）
func (s *ClaimService) SetSleep(fn func(time.Duration)) {
	s.sleep = fn
}

// Claim 为单个账户驱动领取协议，返回终态结果。
// 三类失败的处理必须不同：每日限额立即终止（继续重试只会烧掉预算），
// 限流递增退避（过早放弃会丢掉可恢复的领取机会），其余平速重试。
func (s *ClaimService) Claim(ctx context.Context, acct *domain.Account, proxy string) domain.ClaimOutcome {
	if !acct.HasSession() {
		return domain.ClaimFailed("no session established")
	}

	opt := &api.CallOptions{Proxy: proxy, AccessToken: acct.AccessToken}
	lastReason := "attempt budget exhausted"

	for attempt := 1; attempt <= claimMaxAttempts; attempt++ {
		resp, err := s.api.FundWallet(ctx, acct.UserID, opt)
		if err != nil {
			// 网络层已按自身预算重试过；这里按普通失败处理
			logger.Warnf("[claim] %s: 第 %d/%d 次请求失败: %v", acct.Address, attempt, claimMaxAttempts, err)
			lastReason = err.Error()
			if attempt < claimMaxAttempts {
				s.sleep(claimGenericDelay)
			}
			continue
		}

		if resp.Success {
			balance := s.fetchBalance(ctx, acct, opt)
			logger.Infof("[claim] %s: 领取成功 +%s，余额 %s", acct.Address, resp.Data.FundedAmount, balance)
			return domain.Claimed(resp.Data.FundedAmount, balance)
		}

		switch ClassifyFailure(resp.Message) {
		case FailureDailyLimit:
			// 终态：今日额度已用完，剩余预算作废
			balance := s.fetchBalance(ctx, acct, opt)
			logger.Infof("[claim] %s: 今日已领取，余额 %s", acct.Address, balance)
			return domain.AlreadyClaimed(balance)

		case FailureRateLimited:
			lastReason = resp.Message
			logger.Warnf("[claim] %s: 第 %d/%d 次被限流: %s", acct.Address, attempt, claimMaxAttempts, resp.Message)
			if attempt < claimMaxAttempts {
				s.sleep(s.rateDelay(attempt))
			}

		default:
			lastReason = resp.Message
			logger.Warnf("[claim] %s: 第 %d/%d 次失败: %s", acct.Address, attempt, claimMaxAttempts, resp.Message)
			if attempt < claimMaxAttempts {
				s.sleep(claimGenericDelay)
			}
		}
	}

	return domain.ClaimFailed(lastReason)
}

// fetchBalance 查询领取后的余额（失败时返回零值，不影响领取结果）
func (s *ClaimService) fetchBalance(ctx context.Context, acct *domain.Account, opt *api.CallOptions) decimal.Decimal {
	resp, err := s.api.GetBalance(ctx, acct.UserID, opt)
	if err != nil {
		logger.Warnf("[claim] %s: 查询余额失败: %v", acct.Address, err)
		return decimal.Zero
	}
	if !resp.Success {
		logger.Warnf("[claim] %s: 查询余额被拒绝: %s", acct.Address, resp.Message)
		return decimal.Zero
	}
	return resp.Data.Balance
}
