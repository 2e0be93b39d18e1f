package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestCookieManager(t *testing.T) *CookieManager {
	t.Helper()
	cfg := &Config{StorageDir: t.TempDir(), CookieExpiryDays: 7}
	return NewCookieManager(cfg)
}

func sampleCookies() []Cookie {
	return []Cookie{
		{Name: "SESSDATA", Value: "abcdef1234567890abcdef", Domain: ".bilibili.com", Path: "/"},
		{Name: "bili_jct", Value: "0123456789abcdef01234", Domain: ".bilibili.com", Path: "/"},
	}
}

func TestSaveAndLoad(t *testing.T) {
	m := newTestCookieManager(t)

	if m.Exists() {
		t.Fatal("初始状态不应存在 Cookie 文件")
	}
	if m.Load() != nil {
		t.Fatal("文件缺失时 Load 应返回 nil")
	}

	if err := m.Save(sampleCookies(), "test-agent", "https://www.bilibili.com"); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	cred := m.Load()
	if cred == nil {
		t.Fatal("保存后 Load 返回 nil")
	}
	if cred.Count != 2 || len(cred.Cookies) != 2 {
		t.Fatalf("Cookie 数量不对: %+v", cred)
	}
	if cred.UserAgent != "test-agent" || cred.URL != "https://www.bilibili.com" {
		t.Fatalf("元信息不对: %+v", cred)
	}
	if cred.SavedAt == "" {
		t.Fatal("saved_at 为空")
	}
}

func TestSaveFiltersInvalidCookies(t *testing.T) {
	m := newTestCookieManager(t)
	cookies := append(sampleCookies(),
		Cookie{Name: "", Value: "orphan"},
		Cookie{Name: "empty", Value: ""})

	if err := m.Save(cookies, "agent", "url"); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	cred := m.Load()
	if cred.Count != 2 {
		t.Fatalf("无效 Cookie 未被过滤: count=%d", cred.Count)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	m := newTestCookieManager(t)
	if err := os.MkdirAll(filepath.Dir(m.CookiePath()), 0o755); err != nil {
		t.Fatalf("创建目录失败: %v", err)
	}
	if err := os.WriteFile(m.CookiePath(), []byte("not json"), 0o644); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if m.Load() != nil {
		t.Fatal("格式错误的文件应返回 nil")
	}
}

func TestIsExpired(t *testing.T) {
	m := newTestCookieManager(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

	m.now = func() time.Time { return base }
	if err := m.Save(sampleCookies(), "agent", "url"); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	m.now = func() time.Time { return base.Add(24 * time.Hour) }
	if m.IsExpired() {
		t.Fatal("保存 1 天后不应过期")
	}

	m.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }
	if !m.IsExpired() {
		t.Fatal("保存 8 天后应过期 (有效期 7 天)")
	}
}

func TestIsExpiredWithoutFile(t *testing.T) {
	if !newTestCookieManager(t).IsExpired() {
		t.Fatal("无凭证应视为已过期")
	}
}

func TestValidate(t *testing.T) {
	m := newTestCookieManager(t)

	result := m.Validate()
	if result.Valid || len(result.Errors) == 0 {
		t.Fatal("文件缺失时应返回错误")
	}

	if err := m.Save(sampleCookies(), "agent", "url"); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	result = m.Validate()
	if !result.Valid {
		t.Fatalf("合法文件校验失败: %v", result.Errors)
	}

	// 缺少 saved_at
	if err := os.WriteFile(m.CookiePath(), []byte(`{"cookies": []}`), 0o644); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	result = m.Validate()
	if result.Valid {
		t.Fatal("缺少 saved_at 的文件不应通过校验")
	}

	// cookies 不是数组
	if err := os.WriteFile(m.CookiePath(),
		[]byte(`{"cookies": "x", "saved_at": "2026-03-01 12:00:00"}`), 0o644); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	result = m.Validate()
	if result.Valid {
		t.Fatal("cookies 非数组不应通过校验")
	}
}

func TestValidateExpiredIsWarningOnly(t *testing.T) {
	m := newTestCookieManager(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

	m.now = func() time.Time { return base }
	if err := m.Save(sampleCookies(), "agent", "url"); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	m.now = func() time.Time { return base.Add(30 * 24 * time.Hour) }
	result := m.Validate()
	if !result.Valid {
		t.Fatalf("过期只应是警告: %v", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Fatal("过期凭证应产生警告")
	}
}

func TestBackupAndDelete(t *testing.T) {
	m := newTestCookieManager(t)

	if m.Backup() != "" {
		t.Fatal("无文件时备份应返回空串")
	}

	if err := m.Save(sampleCookies(), "agent", "url"); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	backupPath := m.Backup()
	if backupPath == "" {
		t.Fatal("备份失败")
	}
	if _, err := os.Stat(backupPath); err != nil {
		t.Fatalf("备份文件不存在: %v", err)
	}

	if err := m.Delete(); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if m.Exists() {
		t.Fatal("删除后文件仍存在")
	}
	if _, err := os.Stat(backupPath); err != nil {
		t.Fatal("删除原文件不应影响备份")
	}
}

func TestCleanupOldBackups(t *testing.T) {
	m := newTestCookieManager(t)
	if err := m.Save(sampleCookies(), "agent", "url"); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	oldBackup := m.Backup()
	if oldBackup == "" {
		t.Fatal("备份失败")
	}
	oldTime := time.Now().Add(-40 * 24 * time.Hour)
	if err := os.Chtimes(oldBackup, oldTime, oldTime); err != nil {
		t.Fatalf("修改备份时间失败: %v", err)
	}

	if deleted := m.CleanupOldBackups(30); deleted != 1 {
		t.Fatalf("期望删除 1 个备份, 实际 %d 个", deleted)
	}
	if _, err := os.Stat(oldBackup); !os.IsNotExist(err) {
		t.Fatal("过期备份未被删除")
	}
	if !m.Exists() {
		t.Fatal("清理备份不应删除 Cookie 文件本身")
	}
}
