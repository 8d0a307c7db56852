package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/farmbot/gofarm/internal/domain"
)

// Config 应用配置
type Config struct {
	BaseURL      string `yaml:"baseUrl" json:"baseUrl"`           // 远端服务 API 根地址
	Origin       string `yaml:"origin" json:"origin"`             // 请求头伪装的浏览器 Origin
	Mode         string `yaml:"mode" json:"mode"`                 // 运行模式: claim / claim-transfer / register
	ReferralCode string `yaml:"referralCode" json:"referralCode"` // 注册用邀请码
	TransferTo   string `yaml:"transferTo" json:"transferTo"`     // 归集目标地址（claim-transfer 模式必填）

	AccountsFile string `yaml:"accountsFile" json:"accountsFile"` // 地址列表文件（每行一个地址）
	ProxiesFile  string `yaml:"proxiesFile" json:"proxiesFile"`   // 代理列表文件（可选）
	DataDir      string `yaml:"dataDir" json:"dataDir"`           // 持久化目录（设备注册表、钱包记录）

	InterAccountDelaySeconds int `yaml:"interAccountDelaySeconds" json:"interAccountDelaySeconds"` // 账户间隔（秒）
	PreClaimDelayMinSeconds  int `yaml:"preClaimDelayMinSeconds" json:"preClaimDelayMinSeconds"`   // 领取前延迟下界（秒，0 关闭）
	PreClaimDelayMaxSeconds  int `yaml:"preClaimDelayMaxSeconds" json:"preClaimDelayMaxSeconds"`   // 领取前延迟上界（秒）

	RunHistoryDB string `yaml:"runHistoryDb" json:"runHistoryDb"` // 运行历史 sqlite 路径（空则不记录）

	LogLevel string `yaml:"logLevel" json:"logLevel"` // 日志级别
	LogFile  string `yaml:"logFile" json:"logFile"`   // 日志文件路径（可选）
}

// ApplyDefaults 填充默认值
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = "claim"
	}
	if c.AccountsFile == "" {
		c.AccountsFile = "accounts.txt"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.InterAccountDelaySeconds == 0 {
		c.InterAccountDelaySeconds = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("baseUrl 不能为空")
	}
	switch c.Mode {
	case "claim", "claim-transfer", "register":
	default:
		return fmt.Errorf("无效的运行模式: %s", c.Mode)
	}
	if c.Mode == "claim-transfer" {
		if !common.IsHexAddress(c.TransferTo) {
			return fmt.Errorf("claim-transfer 模式需要有效的 transferTo 地址")
		}
	}
	if c.PreClaimDelayMaxSeconds > 0 && c.PreClaimDelayMaxSeconds < c.PreClaimDelayMinSeconds {
		return fmt.Errorf("preClaimDelayMaxSeconds 不能小于 preClaimDelayMinSeconds")
	}
	return nil
}

// Load 从文件加载配置（按扩展名识别 yaml/json）
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置失败: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置失败: %w", err)
		}
	}

	// 环境变量覆盖（便于容器部署时不改文件）
	if v := strings.TrimSpace(os.Getenv("GOFARM_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GOFARM_REFERRAL_CODE")); v != "" {
		cfg.ReferralCode = v
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAccounts 读取地址列表（每行一个，# 开头为注释），
// 返回 checksum 规范化后的地址。非法地址跳过并计入第二个返回值。
func LoadAccounts(path string) ([]string, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("打开地址文件失败: %w", err)
	}
	defer file.Close()

	var addresses []string
	skipped := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addr, ok := domain.NormalizeAddress(line)
		if !ok {
			skipped++
			continue
		}
		addresses = append(addresses, addr)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, err
	}
	return addresses, skipped, nil
}

// LoadProxies 读取代理列表（每行一个 URI，# 开头为注释）。
// path 为空表示不使用代理；空列表是合法的（全部直连）。
func LoadProxies(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开代理文件失败: %w", err)
	}
	defer file.Close()

	var proxies []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return proxies, nil
}
