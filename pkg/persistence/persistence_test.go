package persistence

import (
	"os"
	"path/filepath"
	"testing"
)

// TestSaveLoadRoundtrip 测试保存后能原样读回
func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	svc := NewJSONFileService(dir)
	store := svc.NewStore("device-registry")

	in := map[string]string{
		"0xabc": "k7f2m9q1x4z8w3d6",
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	out := map[string]string{}
	if err := store.Load(&out); err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if out["0xabc"] != in["0xabc"] {
		t.Errorf("读回数据不一致: got %q, want %q", out["0xabc"], in["0xabc"])
	}
}

// TestLoadMissingReturnsErrNotExists 测试数据不存在时返回 ErrNotExists
func TestLoadMissingReturnsErrNotExists(t *testing.T) {
	svc := NewJSONFileService(t.TempDir())
	store := svc.NewStore("nothing-here")

	out := map[string]string{}
	if err := store.Load(&out); err != ErrNotExists {
		t.Fatalf("期望 ErrNotExists，实际为 %v", err)
	}
}

// TestSaveLeavesNoTempFile 测试 Save 完成后不残留 .tmp 文件
func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewJSONFileService(dir)
	store := svc.NewStore("wallets")

	if err := store.Save(map[string]string{"a": "b"}); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("残留临时文件: %s", e.Name())
		}
	}
}
