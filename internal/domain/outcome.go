package domain

import (
	"github.com/shopspring/decimal"
)

// ClaimStatus 领取结果状态（每账户每轮运行只产生一个终态）
type ClaimStatus string

const (
	ClaimStatusClaimed        ClaimStatus = "claimed"         // 本轮领取成功
	ClaimStatusAlreadyClaimed ClaimStatus = "already_claimed" // 今日已领取（服务端每日限额）
	ClaimStatusFailed         ClaimStatus = "failed"          // 预算耗尽仍失败
)

// ClaimOutcome 单个账户的领取结果
type ClaimOutcome struct {
	Status  ClaimStatus
	Amount  decimal.Decimal // 本次领取金额（仅 Claimed）
	Balance decimal.Decimal // 领取后余额（Claimed / AlreadyClaimed）
	Reason  string          // 失败原因（仅 Failed）
}

// Claimed 构造领取成功结果
func Claimed(amount, balance decimal.Decimal) ClaimOutcome {
	return ClaimOutcome{Status: ClaimStatusClaimed, Amount: amount, Balance: balance}
}

// AlreadyClaimed 构造今日已领取结果
func AlreadyClaimed(balance decimal.Decimal) ClaimOutcome {
	return ClaimOutcome{Status: ClaimStatusAlreadyClaimed, Balance: balance}
}

// ClaimFailed 构造失败结果
func ClaimFailed(reason string) ClaimOutcome {
	return ClaimOutcome{Status: ClaimStatusFailed, Reason: reason}
}

// RunSummary 一轮运行的汇总计数（对外只读）
type RunSummary struct {
	RunID          string `json:"runId"`
	Claimed        int    `json:"claimed"`
	AlreadyClaimed int    `json:"alreadyClaimed"`
	Failed         int    `json:"failed"`
	Total          int    `json:"total"`
}

// Add 累加一个账户的结果
func (s *RunSummary) Add(outcome ClaimOutcome) {
	s.Total++
	switch outcome.Status {
	case ClaimStatusClaimed:
		s.Claimed++
	case ClaimStatusAlreadyClaimed:
		s.AlreadyClaimed++
	default:
		s.Failed++
	}
}

// AddFailure 记录未进入领取阶段的失败（登录失败等）
func (s *RunSummary) AddFailure() {
	s.Total++
	s.Failed++
}
