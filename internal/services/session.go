package services

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/farmbot/gofarm/internal/domain"
	"github.com/farmbot/gofarm/pkg/logger"
	"github.com/farmbot/gofarm/pkg/sdk/api"
)

// ErrNoAccessToken 登录响应缺少 access_token Cookie。
// 这是协议层违例（而非网络故障），本层不重试。
var ErrNoAccessToken = errors.New("login response missing access_token cookie")

// ErrUnknownState 服务端返回了未识别的验证状态
var ErrUnknownState = errors.New("unrecognized verification state")

// 锚定 cookie 名起始位置，避免匹配到 refresh_access_token 之类的同后缀名
var accessTokenPattern = regexp.MustCompile(`(?:^|;\s*)access_token=([^;]+)`)

// DeviceMetadata 登录请求携带的静态设备/地理信息。
// 远端服务不会严格校验这些字段，但缺失会被拒绝。
type DeviceMetadata struct {
	DeviceSource  string
	DeviceType    string
	Browser       string
	IPAddress     string
	Latitude      float64
	Longitude     float64
	CountryCode   string
	Country       string
	Continent     string
	ContinentCode string
	Region        string
	RegionCode    string
	City          string
}

// DefaultDeviceMetadata 默认的浏览器指纹
func DefaultDeviceMetadata() DeviceMetadata {
	return DeviceMetadata{
		DeviceSource:  "web",
		DeviceType:    "desktop",
		Browser:       "chrome",
		IPAddress:     "",
		Latitude:      40.7128,
		Longitude:     -74.006,
		CountryCode:   "US",
		Country:       "United States",
		Continent:     "North America",
		ContinentCode: "NA",
		Region:        "New York",
		RegionCode:    "NY",
		City:          "New York",
	}
}

// SessionService 会话管理：设备标识、登录握手、凭证提取、注册。
type SessionService struct {
	api      RewardAPI
	registry *DeviceRegistry
	meta     DeviceMetadata
}

// NewSessionService 创建会话管理服务
func NewSessionService(apiClient RewardAPI, registry *DeviceRegistry) *SessionService {
	return &SessionService{
		api:      apiClient,
		registry: registry,
		meta:     DefaultDeviceMetadata(),
	}
}

// SetDeviceMetadata 覆盖默认设备指纹
func (s *SessionService) SetDeviceMetadata(meta DeviceMetadata) {
	s.meta = meta
}

// Login 执行登录握手并填充账户的会话字段。
// deviceId 首次使用时生成；只有在服务端确认登录成功之后才持久化，
// 避免把一个从未被接受的 id 锁定下来。
func (s *SessionService) Login(ctx context.Context, acct *domain.Account, proxy string) error {
	deviceID, known := s.registry.Lookup(acct.Address)
	freshDevice := !known
	if freshDevice {
		deviceID = NewDeviceID()
		logger.Debugf("[session] %s: 生成新设备标识 %s", acct.Address, deviceID)
	}

	req := &api.ConnectWalletRequest{
		Address:       acct.Address,
		DeviceID:      deviceID,
		DeviceSource:  s.meta.DeviceSource,
		DeviceType:    s.meta.DeviceType,
		Browser:       s.meta.Browser,
		IPAddress:     s.meta.IPAddress,
		Latitude:      s.meta.Latitude,
		Longitude:     s.meta.Longitude,
		CountryCode:   s.meta.CountryCode,
		Country:       s.meta.Country,
		Continent:     s.meta.Continent,
		ContinentCode: s.meta.ContinentCode,
		Region:        s.meta.Region,
		RegionCode:    s.meta.RegionCode,
		City:          s.meta.City,
	}

	resp, headers, err := s.api.ConnectWallet(ctx, req, &api.CallOptions{Proxy: proxy})
	if err != nil {
		return errors.Wrap(err, "connect-wallet")
	}
	if !resp.Success {
		return errors.Errorf("login rejected: %s", resp.Message)
	}

	token, ok := extractAccessToken(headers)
	if !ok {
		return ErrNoAccessToken
	}
	userID := resp.Data.UserID.String()
	if userID == "" {
		return errors.Wrap(api.ErrProtocol, "login response missing userId")
	}

	state := domain.ParseVerificationState(resp.Data.IsSocialExists)
	if state == domain.StateUnknown {
		return errors.Wrapf(ErrUnknownState, "isSocialExists=%q", resp.Data.IsSocialExists)
	}

	acct.DeviceID = deviceID
	acct.UserID = userID
	acct.AccessToken = token
	acct.State = state

	// 服务端已接受该 deviceId，此时才允许持久化
	if freshDevice {
		if err := s.registry.Persist(acct.Address, deviceID); err != nil {
			return errors.Wrap(err, "persist device id")
		}
	}
	return nil
}

// Register 为 PENDING 账户补注册 social handle。
// 成功后账户在本轮运行中即可领取，无需重新登录。
func (s *SessionService) Register(ctx context.Context, acct *domain.Account, socialHandle, referralCode, proxy string) (bool, error) {
	if !acct.HasSession() {
		return false, errors.New("register requires an established session")
	}

	resp, err := s.api.Register(ctx, &api.RegisterRequest{
		UserID:        acct.UserID,
		WalletAddress: acct.Address,
		SocialHandle:  socialHandle,
		ReferralCode:  referralCode,
	}, &api.CallOptions{Proxy: proxy, AccessToken: acct.AccessToken})
	if err != nil {
		return false, errors.Wrap(err, "register")
	}
	if !resp.Success {
		logger.Warnf("[session] %s: 注册失败: %s", acct.Address, resp.Message)
		return false, nil
	}

	acct.State = domain.StateVerified
	return true, nil
}

// extractAccessToken 从响应头的 Set-Cookie 中提取 access_token
func extractAccessToken(headers http.Header) (string, bool) {
	for _, cookie := range headers.Values("Set-Cookie") {
		if m := accessTokenPattern.FindStringSubmatch(cookie); m != nil {
			token := strings.TrimSpace(m[1])
			if token != "" {
				return token, true
			}
		}
	}
	return "", false
}
