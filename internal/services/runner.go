package services

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/farmbot/gofarm/internal/domain"
	"github.com/farmbot/gofarm/pkg/logger"
)

// Mode 运行模式
type Mode string

const (
	// ModeClaim 只领取
	ModeClaim Mode = "claim"
	// ModeClaimTransfer 领取后把余额归集到主钱包
	ModeClaimTransfer Mode = "claim-transfer"
	// ModeRegister 为 PENDING 账户补注册后再领取
	ModeRegister Mode = "register"
)

// RunSink 运行结果的可选落地接口（控制面的运行历史仓库实现它）
type RunSink interface {
	RecordRun(summary *domain.RunSummary) error
}

// RunnerConfig 编排器配置
type RunnerConfig struct {
	Mode              Mode
	InterAccountDelay time.Duration // 账户之间的固定间隔
	PreClaimDelayMin  time.Duration // 领取前的拟人延迟下界（0 表示关闭）
	PreClaimDelayMax  time.Duration // 领取前的拟人延迟上界
	TransferTo        string        // 归集目标地址（claim-transfer 模式）
	ReferralCode      string        // 注册用的邀请码
	Handles           func(address string) string // 地址 → social handle（register 模式）
}

// Runner 编排器：按列表顺序串行处理所有账户。
// 串行是有意的设计而非实现偷懒——远端服务按 IP/账户限流，
// 并发请求会直接触发风控。
type Runner struct {
	cfg       RunnerConfig
	sessions  *SessionService
	claims    *ClaimService
	transfers *TransferService
	proxies   []string
	sink      RunSink

	sleep   func(time.Duration)
	randInt func(n int64) int64
}

// NewRunner 创建编排器。proxies 可以为空（全部直连）。
func NewRunner(cfg RunnerConfig, sessions *SessionService, claims *ClaimService, transfers *TransferService, proxies []string) *Runner {
	return &Runner{
		cfg:       cfg,
		sessions:  sessions,
		claims:    claims,
		transfers: transfers,
		proxies:   proxies,
		sleep:     time.Sleep,
		randInt:   rand.Int63n,
	}
}

// SetSink 设置运行结果落地
func (r *Runner) SetSink(sink RunSink) {
	r.sink = sink
}

// SetSleep 注入 sleep 函数（测试用）
func (r *Runner) SetSleep(fn func(time.Duration)) {
	r.sleep = fn
}

// ProxyFor 返回第 index 个账户使用的代理。
// 固定取模轮询而非随机：同一个账户跨运行始终从同一个出口 IP 出现。
func (r *Runner) ProxyFor(index int) string {
	if len(r.proxies) == 0 {
		return ""
	}
	return r.proxies[index%len(r.proxies)]
}

// Run 对账户列表执行一轮完整处理并返回汇总。
// 单个账户的任何失败都不会中断循环。
func (r *Runner) Run(ctx context.Context, accounts []*domain.Account) *domain.RunSummary {
	summary := &domain.RunSummary{RunID: uuid.NewString()}

	logger.Infof("[runner] 开始运行 %s：%d 个账户，%d 个代理，模式 %s",
		summary.RunID, len(accounts), len(r.proxies), r.cfg.Mode)

	for i, acct := range accounts {
		if err := ctx.Err(); err != nil {
			logger.Warnf("[runner] 运行被取消：%v", err)
			break
		}

		proxy := r.ProxyFor(i)
		r.processAccount(ctx, acct, proxy, summary)

		// 账户间固定间隔，降低被风控识别为自动化流量的概率
		if i < len(accounts)-1 && r.cfg.InterAccountDelay > 0 {
			r.sleep(r.cfg.InterAccountDelay)
		}
	}

	logger.Infof("[runner] 运行结束：领取 %d，今日已领 %d，失败 %d，共 %d",
		summary.Claimed, summary.AlreadyClaimed, summary.Failed, summary.Total)

	if r.sink != nil {
		if err := r.sink.RecordRun(summary); err != nil {
			logger.Warnf("[runner] 记录运行历史失败: %v", err)
		}
	}
	return summary
}

// processAccount 处理单个账户：登录 → （注册）→ 领取 → （归集）
func (r *Runner) processAccount(ctx context.Context, acct *domain.Account, proxy string, summary *domain.RunSummary) {
	log := logger.WithField("address", acct.Address)

	if err := r.sessions.Login(ctx, acct, proxy); err != nil {
		log.Warnf("登录失败: %v", err)
		summary.AddFailure()
		return
	}

	if acct.State == domain.StatePending {
		if r.cfg.Mode != ModeRegister {
			log.Warn("账户未完成注册，跳过领取")
			summary.AddFailure()
			return
		}
		handle := ""
		if r.cfg.Handles != nil {
			handle = r.cfg.Handles(acct.Address)
		}
		if handle == "" {
			log.Warn("缺少 social handle，无法注册")
			summary.AddFailure()
			return
		}
		ok, err := r.sessions.Register(ctx, acct, handle, r.cfg.ReferralCode, proxy)
		if err != nil || !ok {
			if err != nil {
				log.Warnf("注册失败: %v", err)
			}
			summary.AddFailure()
			return
		}
		log.Info("注册成功，本轮可直接领取")
	}

	r.preClaimDelay()

	outcome := r.claims.Claim(ctx, acct, proxy)
	summary.Add(outcome)

	if r.cfg.Mode == ModeClaimTransfer && r.cfg.TransferTo != "" &&
		outcome.Status != domain.ClaimStatusFailed {
		if _, err := r.transfers.Sweep(ctx, acct, r.cfg.TransferTo, proxy); err != nil {
			log.Warnf("归集失败: %v", err)
		}
	}
}

// preClaimDelay 领取前的拟人延迟（区间内随机）
func (r *Runner) preClaimDelay() {
	if r.cfg.PreClaimDelayMin <= 0 {
		return
	}
	d := r.cfg.PreClaimDelayMin
	if r.cfg.PreClaimDelayMax > r.cfg.PreClaimDelayMin {
		jitter := int64(r.cfg.PreClaimDelayMax - r.cfg.PreClaimDelayMin)
		d += time.Duration(r.randInt(jitter))
	}
	r.sleep(d)
}
