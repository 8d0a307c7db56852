package services

import (
	"crypto/rand"
	"strings"
	"sync"

	"github.com/farmbot/gofarm/pkg/persistence"
)

// deviceIDLength 设备标识长度。原始服务端只要求短小写字母数字 token，
// 不依赖更强的唯一性保证。
const deviceIDLength = 16

const deviceIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewDeviceID 生成新的设备标识（小写字母数字）
func NewDeviceID() string {
	buf := make([]byte, deviceIDLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 失败在目标平台上不会发生；保底返回固定填充
		for i := range buf {
			buf[i] = 0
		}
	}
	out := make([]byte, deviceIDLength)
	for i, b := range buf {
		out[i] = deviceIDAlphabet[int(b)%len(deviceIDAlphabet)]
	}
	return string(out)
}

// DeviceRegistry 地址 → deviceId 的持久化映射（跨运行的唯一状态）。
// key 为小写地址。写入后的 deviceId 永不重新生成，
// 以保证远端服务看到的设备指纹跨运行稳定。
type DeviceRegistry struct {
	store persistence.Store

	mu      sync.Mutex
	entries map[string]string
}

// NewDeviceRegistry 从持久化存储加载设备注册表
func NewDeviceRegistry(store persistence.Store) (*DeviceRegistry, error) {
	entries := map[string]string{}
	if err := store.Load(&entries); err != nil && err != persistence.ErrNotExists {
		return nil, err
	}
	return &DeviceRegistry{
		store:   store,
		entries: entries,
	}, nil
}

// Lookup 查询地址已持久化的 deviceId
func (r *DeviceRegistry) Lookup(address string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.entries[strings.ToLower(address)]
	return id, ok
}

// Persist 写入并立即落盘。已存在的条目不会被覆盖：
// deviceId 一经持久化即永久生效。
func (r *DeviceRegistry) Persist(address, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(address)
	if _, exists := r.entries[key]; exists {
		return nil
	}
	r.entries[key] = deviceID
	return r.store.Save(r.entries)
}

// Size 返回条目数
func (r *DeviceRegistry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
