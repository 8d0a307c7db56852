package services

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/farmbot/gofarm/internal/domain"
	"github.com/farmbot/gofarm/pkg/persistence"
)

func jsonNumber(s string) json.Number {
	return json.Number(s)
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newTestRegistry 基于临时目录创建设备注册表
func newTestRegistry(t *testing.T) *DeviceRegistry {
	t.Helper()
	svc := persistence.NewJSONFileService(t.TempDir())
	reg, err := NewDeviceRegistry(svc.NewStore("device-registry"))
	if err != nil {
		t.Fatalf("创建设备注册表失败: %v", err)
	}
	return reg
}

// verifiedAccount 已建立会话的测试账户
func verifiedAccount(address string) *domain.Account {
	return &domain.Account{
		Address:     address,
		DeviceID:    "d3v1ce1d00000000",
		UserID:      "42",
		AccessToken: "tok",
		State:       domain.StateVerified,
	}
}
