package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Account 账户领域模型。Address 为校验和格式的规范地址；
// DeviceID 首次登录时生成并持久化，之后保持不变；
// UserID / AccessToken 由登录响应填充，仅存活于当前进程。
type Account struct {
	Address     string            // 规范（checksum）地址
	DeviceID    string            // 稳定设备标识（持久化）
	UserID      string            // 远端服务分配的用户 ID（仅内存）
	AccessToken string            // 会话凭证（仅内存，绝不落盘）
	State       VerificationState // 服务端验证状态
}

// VerificationState 账户验证状态
type VerificationState string

const (
	StateVerified VerificationState = "VERIFIED" // 已完成注册，可领取
	StatePending  VerificationState = "PENDING"  // 待注册
	StateUnknown  VerificationState = "UNKNOWN"  // 未识别状态，按失败处理
)

// ParseVerificationState 解析服务端返回的验证标志
func ParseVerificationState(raw string) VerificationState {
	switch raw {
	case string(StateVerified):
		return StateVerified
	case string(StatePending):
		return StatePending
	default:
		return StateUnknown
	}
}

// HasSession 检查账户是否已建立会话（userId + 凭证齐备）
func (a *Account) HasSession() bool {
	return a != nil && a.UserID != "" && a.AccessToken != ""
}

// NormalizeAddress 将地址规范化为 checksum 格式；非法地址返回 false
func NormalizeAddress(raw string) (string, bool) {
	if !common.IsHexAddress(raw) {
		return "", false
	}
	return common.HexToAddress(raw).Hex(), true
}

// WalletRecord 钱包创建流程的落盘记录（按地址索引）。
// 私钥以明文写入 JSON 记录属于原始流程的行为；
// 配置了 secretstore 时会同时写入加密存储。
type WalletRecord struct {
	Address      string    `json:"address"`
	PrivateKey   string    `json:"privateKey"`
	SocialHandle string    `json:"socialHandle"`
	CreatedAt    time.Time `json:"createdAt"`
}
