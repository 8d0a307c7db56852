package services

import (
	"context"
	"testing"
	"time"

	"github.com/farmbot/gofarm/internal/domain"
	"github.com/farmbot/gofarm/pkg/sdk/api"
)

// TestClaimSuccessFirstAttempt 测试首次领取成功
func TestClaimSuccessFirstAttempt(t *testing.T) {
	fake := &fakeAPI{
		fundFn: func(string, *api.CallOptions) (*api.FundWalletResponse, error) {
			return fundOK("10"), nil
		},
		balanceFn: func(string, *api.CallOptions) (*api.BalanceResponse, error) {
			return balanceOK("10.5"), nil
		},
	}
	svc := NewClaimService(fake)
	svc.SetSleep(func(time.Duration) { t.Fatal("成功路径不应该 sleep") })

	outcome := svc.Claim(context.Background(), verifiedAccount("0xA"), "")

	if outcome.Status != domain.ClaimStatusClaimed {
		t.Fatalf("期望 Claimed，实际为 %s (%s)", outcome.Status, outcome.Reason)
	}
	if !outcome.Amount.Equal(mustDecimal("10")) {
		t.Errorf("领取金额应该为 10，实际为 %s", outcome.Amount)
	}
	if !outcome.Balance.Equal(mustDecimal("10.5")) {
		t.Errorf("余额应该为 10.5，实际为 %s", outcome.Balance)
	}
	if fake.fundCalls != 1 {
		t.Errorf("应该只调用一次领取接口，实际 %d 次", fake.fundCalls)
	}
}

// TestClaimDailyLimitIsTerminal 每日限额消息必须立即终止，不消耗剩余预算
func TestClaimDailyLimitIsTerminal(t *testing.T) {
	fake := &fakeAPI{
		fundFn: func(string, *api.CallOptions) (*api.FundWalletResponse, error) {
			return fundFail("You can only claim once per day"), nil
		},
		balanceFn: func(string, *api.CallOptions) (*api.BalanceResponse, error) {
			return balanceOK("3.25"), nil
		},
	}
	svc := NewClaimService(fake)
	svc.SetSleep(func(time.Duration) { t.Fatal("每日限额不应该触发等待") })

	outcome := svc.Claim(context.Background(), verifiedAccount("0xA"), "")

	if outcome.Status != domain.ClaimStatusAlreadyClaimed {
		t.Fatalf("期望 AlreadyClaimed，实际为 %s", outcome.Status)
	}
	if fake.fundCalls != 1 {
		t.Errorf("首个每日限额响应就应该终止，实际调用 %d 次", fake.fundCalls)
	}
	if fake.balanceCalls != 1 {
		t.Errorf("余额应该只查询一次，实际 %d 次", fake.balanceCalls)
	}
	if !outcome.Balance.Equal(mustDecimal("3.25")) {
		t.Errorf("余额应该为 3.25，实际为 %s", outcome.Balance)
	}
}

// TestClaimRateLimitEscalatingBackoff 限流重试的等待必须严格递增
func TestClaimRateLimitEscalatingBackoff(t *testing.T) {
	attempt := 0
	fake := &fakeAPI{
		fundFn: func(string, *api.CallOptions) (*api.FundWalletResponse, error) {
			attempt++
			if attempt <= 3 {
				return fundFail("Our network guardians are busy"), nil
			}
			return fundOK("5"), nil
		},
		balanceFn: func(string, *api.CallOptions) (*api.BalanceResponse, error) {
			return balanceOK("5"), nil
		},
	}
	svc := NewClaimService(fake)
	var slept []time.Duration
	svc.SetSleep(func(d time.Duration) { slept = append(slept, d) })

	outcome := svc.Claim(context.Background(), verifiedAccount("0xA"), "")

	if outcome.Status != domain.ClaimStatusClaimed {
		t.Fatalf("期望最终 Claimed，实际为 %s", outcome.Status)
	}
	want := []time.Duration{15 * time.Second, 20 * time.Second, 25 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("期望 %d 次等待，实际 %d 次: %v", len(want), len(slept), slept)
	}
	for i, w := range want {
		if slept[i] != w {
			t.Errorf("第 %d 次等待应该为 %v，实际为 %v", i+1, w, slept[i])
		}
	}
}

// TestClaimGenericFailureFlatDelay 普通失败按平速 5s 重试直到预算耗尽
func TestClaimGenericFailureFlatDelay(t *testing.T) {
	fake := &fakeAPI{
		fundFn: func(string, *api.CallOptions) (*api.FundWalletResponse, error) {
			return fundFail("internal error"), nil
		},
	}
	svc := NewClaimService(fake)
	var slept []time.Duration
	svc.SetSleep(func(d time.Duration) { slept = append(slept, d) })

	outcome := svc.Claim(context.Background(), verifiedAccount("0xA"), "")

	if outcome.Status != domain.ClaimStatusFailed {
		t.Fatalf("期望 Failed，实际为 %s", outcome.Status)
	}
	if outcome.Reason != "internal error" {
		t.Errorf("失败原因应该带上最后一条消息，实际为 %q", outcome.Reason)
	}
	if fake.fundCalls != claimMaxAttempts {
		t.Errorf("应该用满 %d 次预算，实际 %d 次", claimMaxAttempts, fake.fundCalls)
	}
	// 最后一次尝试之后没有等待
	if len(slept) != claimMaxAttempts-1 {
		t.Fatalf("期望 %d 次等待，实际 %d 次", claimMaxAttempts-1, len(slept))
	}
	for i, d := range slept {
		if d != claimGenericDelay {
			t.Errorf("第 %d 次等待应该为 %v，实际为 %v", i+1, claimGenericDelay, d)
		}
	}
}

// TestClaimRequiresSession 无会话直接失败，不发起网络调用
func TestClaimRequiresSession(t *testing.T) {
	fake := &fakeAPI{}
	svc := NewClaimService(fake)

	outcome := svc.Claim(context.Background(), &domain.Account{Address: "0xA"}, "")

	if outcome.Status != domain.ClaimStatusFailed {
		t.Fatalf("期望 Failed，实际为 %s", outcome.Status)
	}
	if fake.fundCalls != 0 {
		t.Errorf("前置条件失败不应该发起网络调用，实际 %d 次", fake.fundCalls)
	}
}
