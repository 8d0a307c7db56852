package services

import "strings"

// FailureKind 服务端失败消息的分类结果。
// 三类必须区分开：每日限额是终态（重试只会浪费预算），
// 限流可恢复（需要递增等待），其余按普通失败平速重试。
type FailureKind int

const (
	// FailureGeneric 普通失败：平速重试
	FailureGeneric FailureKind = iota
	// FailureDailyLimit 每日限额已用尽：终态，立即停止重试
	FailureDailyLimit
	// FailureRateLimited 限流或服务端瞬时故障：递增退避后重试
	FailureRateLimited
)

var dailyLimitPhrases = []string{
	"once per day",
	"already claimed",
}

var rateLimitPhrases = []string{
	"network guardians",
	"something went wrong",
	"too many requests",
	"rate limit",
}

// ClassifyFailure 按消息内容分类服务端失败。
// 匹配规则集中在这里，作为一个可测试单元（大小写不敏感的子串匹配）。
func ClassifyFailure(message string) FailureKind {
	msg := strings.ToLower(message)
	for _, phrase := range dailyLimitPhrases {
		if strings.Contains(msg, phrase) {
			return FailureDailyLimit
		}
	}
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(msg, phrase) {
			return FailureRateLimited
		}
	}
	return FailureGeneric
}
