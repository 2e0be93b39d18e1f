package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Cookie 持久化的单个 Cookie
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Secure   bool   `json:"secure"`
	HttpOnly bool   `json:"httpOnly"`
}

// SessionCredential 缓存的登录凭证
type SessionCredential struct {
	Cookies   []Cookie `json:"cookies"`
	SavedAt   string   `json:"saved_at"`
	UserAgent string   `json:"user_agent"`
	URL       string   `json:"url"`
	Count     int      `json:"count"`
}

// CookieValidation Cookie 文件结构校验结果
type CookieValidation struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// CookieManager Cookie 文件管理
// 过期规则只是参考值: 过期的凭证仍会先做在线验证, 验证失败才备份丢弃
type CookieManager struct {
	cookiePath string
	expiryDays int
	now        func() time.Time
}

// NewCookieManager 创建 Cookie 管理器
func NewCookieManager(cfg *Config) *CookieManager {
	return &CookieManager{
		cookiePath: cfg.CookiePath(),
		expiryDays: cfg.CookieExpiryDays,
		now:        time.Now,
	}
}

// Exists Cookie 文件是否存在
func (m *CookieManager) Exists() bool {
	_, err := os.Stat(m.cookiePath)
	return err == nil
}

// Load 读取凭证; 文件缺失/格式错误/缺少必要字段时返回 nil, 不抛错
func (m *CookieManager) Load() *SessionCredential {
	data, err := os.ReadFile(m.cookiePath)
	if err != nil {
		return nil
	}
	var cred SessionCredential
	if err := json.Unmarshal(data, &cred); err != nil {
		log.Printf("⚠️ Cookie 文件解析失败: %v", err)
		return nil
	}
	if cred.Cookies == nil || cred.SavedAt == "" {
		return nil
	}
	return &cred
}

// Save 过滤无效 Cookie 后写入文件, 目录自动创建
func (m *CookieManager) Save(cookies []Cookie, userAgent, sourceURL string) error {
	var valid []Cookie
	for _, cookie := range cookies {
		if cookie.Name != "" && cookie.Value != "" {
			valid = append(valid, cookie)
		}
	}

	cred := SessionCredential{
		Cookies:   valid,
		SavedAt:   m.now().Format("2006-01-02 15:04:05"),
		UserAgent: userAgent,
		URL:       sourceURL,
		Count:     len(valid),
	}

	if err := os.MkdirAll(filepath.Dir(m.cookiePath), 0o755); err != nil {
		return fmt.Errorf("创建 Cookie 目录失败: %v", err)
	}
	data, err := json.MarshalIndent(cred, "", "    ")
	if err != nil {
		return fmt.Errorf("序列化 Cookie 失败: %v", err)
	}
	if err := os.WriteFile(m.cookiePath, data, 0o644); err != nil {
		return fmt.Errorf("写入 Cookie 文件失败: %v", err)
	}
	return nil
}

// IsExpired 凭证是否超过有效期; 无凭证视为已过期
func (m *CookieManager) IsExpired() bool {
	cred := m.Load()
	if cred == nil {
		return true
	}
	savedAt, err := time.ParseInLocation("2006-01-02 15:04:05", cred.SavedAt, time.Local)
	if err != nil {
		return true
	}
	expiry := savedAt.Add(time.Duration(m.expiryDays) * 24 * time.Hour)
	return m.now().After(expiry)
}

// Backup 把当前 Cookie 文件复制为带时间戳的兄弟文件, 便于事后排查
// 无文件时返回空串
func (m *CookieManager) Backup() string {
	data, err := os.ReadFile(m.cookiePath)
	if err != nil {
		return ""
	}
	backupPath := m.cookiePath + ".backup." + m.now().Format("2006-01-02_15-04-05")
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		log.Printf("⚠️ 备份 Cookie 文件失败: %v", err)
		return ""
	}
	log.Printf("✅ Cookie 文件已备份: %s", backupPath)
	return backupPath
}

// Delete 删除 Cookie 文件
func (m *CookieManager) Delete() error {
	if !m.Exists() {
		return nil
	}
	return os.Remove(m.cookiePath)
}

// Validate 结构校验: JSON 合法、必要字段齐全、cookies 为数组、日期可解析
// 过期只作为警告, 不影响 valid 结果
func (m *CookieManager) Validate() CookieValidation {
	result := CookieValidation{}

	data, err := os.ReadFile(m.cookiePath)
	if err != nil {
		result.Errors = append(result.Errors, "Cookie 文件不存在")
		return result
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cookie 文件不是有效的 JSON 格式: %v", err))
		return result
	}

	for _, field := range []string{"cookies", "saved_at"} {
		if _, ok := raw[field]; !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("缺少必要字段: %s", field))
		}
	}
	if len(result.Errors) > 0 {
		return result
	}

	var cookies []Cookie
	if err := json.Unmarshal(raw["cookies"], &cookies); err != nil {
		result.Errors = append(result.Errors, "cookies 字段必须是数组")
		return result
	}
	if len(cookies) == 0 {
		result.Warnings = append(result.Warnings, "cookies 数组为空")
	}

	var savedAt string
	if err := json.Unmarshal(raw["saved_at"], &savedAt); err != nil {
		result.Errors = append(result.Errors, "saved_at 字段不是有效的日期格式")
		return result
	}
	if _, err := time.ParseInLocation("2006-01-02 15:04:05", savedAt, time.Local); err != nil {
		result.Errors = append(result.Errors, "saved_at 字段不是有效的日期格式")
		return result
	}

	if m.IsExpired() {
		result.Warnings = append(result.Warnings, "Cookie 已过期")
	}

	result.Valid = true
	return result
}

// CleanupOldBackups 删除超过保留天数的备份文件, 返回删除数量
func (m *CookieManager) CleanupOldBackups(daysToKeep int) int {
	pattern := m.cookiePath + ".backup.*"
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return 0
	}

	cutoff := m.now().Add(-time.Duration(daysToKeep) * 24 * time.Hour)
	deleted := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err == nil {
			deleted++
		}
	}
	if deleted > 0 {
		log.Printf("🧹 清理了 %d 个旧的 Cookie 备份文件", deleted)
	}
	return deleted
}

// CookiePath Cookie 文件路径
func (m *CookieManager) CookiePath() string {
	return m.cookiePath
}
