package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// 错误分类表, 按顺序做子串匹配, 先命中者生效
var errorPatterns = []struct {
	errType  string
	patterns []string
}{
	{"network", []string{"network", "connection", "timeout", "dns", "unreachable"}},
	{"authentication", []string{"login", "auth", "unauthorized", "forbidden", "cookie"}},
	{"file", []string{"file not found", "invalid file", "file size", "format"}},
	{"upload", []string{"upload failed", "upload timeout", "upload error"}},
	{"page", []string{"element not found", "selector", "wait", "click"}},
	{"server", []string{"server error", "500", "502", "503", "504"}},
	{"browser", []string{"browser", "driver", "session", "webdriver"}},
	{"validation", []string{"validation", "required", "invalid input"}},
}

var suggestedActions = map[string]string{
	"network":        "检查网络连接，稍后重试",
	"authentication": "重新登录，检查账号状态",
	"file":           "检查文件格式和大小，确保文件有效",
	"upload":         "重试上传，检查文件大小限制",
	"page":           "刷新页面，检查页面元素是否变化",
	"server":         "服务器错误，稍后重试",
	"browser":        "重启浏览器，检查驱动程序",
	"validation":     "检查输入数据，修正验证错误",
	"unknown":        "未知错误，查看详细日志",
}

// ClassifyError 根据错误消息归类错误类型, 默认 unknown
func ClassifyError(message string) string {
	message = strings.ToLower(message)
	for _, group := range errorPatterns {
		for _, pattern := range group.patterns {
			if strings.Contains(message, pattern) {
				return group.errType
			}
		}
	}
	return "unknown"
}

// IsRecoverableError 可恢复错误类型: 批处理继续; 其余类型会被更醒目地标记
func IsRecoverableError(errType string) bool {
	switch errType {
	case "network", "upload", "page", "server":
		return true
	}
	return false
}

// SuggestedAction 错误类型对应的处理建议
func SuggestedAction(errType string) string {
	if action, ok := suggestedActions[errType]; ok {
		return action
	}
	return suggestedActions["unknown"]
}

// ErrorInfo 一次异常的完整诊断信息
type ErrorInfo struct {
	FilePath        string
	FileName        string
	ErrorType       string
	ErrorMessage    string
	Context         string
	Timestamp       string
	IsRecoverable   bool
	SuggestedAction string
	Screenshot      string
	PageSource      string
	ConsoleLogs     []ConsoleEntry
}

// ExceptionHandler 统一的异常诊断采集: 截图、页面源码、浏览器控制台日志
type ExceptionHandler struct {
	screenshotDir string
	sourceDir     string
	logger        *UploadLogger
}

// NewExceptionHandler 创建异常处理器
func NewExceptionHandler(cfg *Config, logger *UploadLogger) *ExceptionHandler {
	return &ExceptionHandler{
		screenshotDir: cfg.ScreenshotDir(),
		sourceDir:     cfg.PageSourceDir(),
		logger:        logger,
	}
}

// HandleUploadError 采集一次上传异常的现场
func (h *ExceptionHandler) HandleUploadError(err error, page PageDriver, filePath, context string) ErrorInfo {
	fileName := filepath.Base(filePath)
	errType := ClassifyError(err.Error())

	info := ErrorInfo{
		FilePath:        filePath,
		FileName:        fileName,
		ErrorType:       errType,
		ErrorMessage:    err.Error(),
		Context:         context,
		Timestamp:       time.Now().Format("2006-01-02 15:04:05"),
		IsRecoverable:   IsRecoverableError(errType),
		SuggestedAction: SuggestedAction(errType),
	}

	h.logger.LogError("上传异常: "+fileName, map[string]interface{}{
		"error_type":       errType,
		"error_message":    err.Error(),
		"context":          context,
		"is_recoverable":   info.IsRecoverable,
		"suggested_action": info.SuggestedAction,
	})

	if page == nil {
		return info
	}

	info.Screenshot = h.saveScreenshot(page, fileName, errType)
	if h.shouldSavePageSource(errType) {
		info.PageSource = h.savePageSource(page, fileName, errType)
	}
	info.ConsoleLogs = filterConsoleLogs(page.ConsoleLogs())
	return info
}

// HandleLoginError 采集登录异常的现场
func (h *ExceptionHandler) HandleLoginError(err error, page PageDriver, context string) ErrorInfo {
	return h.HandleUploadError(err, page, "login", context)
}

func (h *ExceptionHandler) saveScreenshot(page PageDriver, fileName, errType string) string {
	if err := os.MkdirAll(h.screenshotDir, 0o755); err != nil {
		return ""
	}
	name := fmt.Sprintf("error_%s_%s_%s.png", errType, fileName, time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(h.screenshotDir, name)
	if err := page.Screenshot(path); err != nil {
		log.Printf("⚠️ 保存错误截图失败: %v", err)
		return ""
	}
	h.logger.LogScreenshot(name, "错误截图: "+errType)
	return name
}

// 页面/校验/未知错误需要页面源码辅助排查
func (h *ExceptionHandler) shouldSavePageSource(errType string) bool {
	return errType == "page" || errType == "validation" || errType == "unknown"
}

func (h *ExceptionHandler) savePageSource(page PageDriver, fileName, errType string) string {
	source, err := page.Content()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(h.sourceDir, 0o755); err != nil {
		return ""
	}
	name := fmt.Sprintf("source_%s_%s_%s.html", errType, fileName, time.Now().Format("2006-01-02_15-04-05"))
	if err := os.WriteFile(filepath.Join(h.sourceDir, name), []byte(source), 0o644); err != nil {
		log.Printf("⚠️ 保存页面源码失败: %v", err)
		return ""
	}
	return name
}

// filterConsoleLogs 只保留错误和警告级别的控制台日志
func filterConsoleLogs(entries []ConsoleEntry) []ConsoleEntry {
	var filtered []ConsoleEntry
	for _, entry := range entries {
		if entry.Level == "error" || entry.Level == "warning" {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// GenerateErrorReport 按错误类型分组生成汇总报告
func GenerateErrorReport(errors []ErrorInfo) string {
	var b strings.Builder
	b.WriteString("=== 错误报告 ===\n")
	b.WriteString("生成时间: " + time.Now().Format("2006-01-02 15:04:05") + "\n")
	b.WriteString(fmt.Sprintf("错误总数: %d\n\n", len(errors)))

	byType := make(map[string][]ErrorInfo)
	var order []string
	for _, e := range errors {
		if _, ok := byType[e.ErrorType]; !ok {
			order = append(order, e.ErrorType)
		}
		byType[e.ErrorType] = append(byType[e.ErrorType], e)
	}

	for _, errType := range order {
		group := byType[errType]
		b.WriteString(fmt.Sprintf("=== %s 错误 (%d 个) ===\n", errType, len(group)))
		for _, e := range group {
			b.WriteString(fmt.Sprintf("- %s: %s\n", e.FileName, e.ErrorMessage))
			b.WriteString("  建议: " + e.SuggestedAction + "\n")
			if e.Screenshot != "" {
				b.WriteString("  截图: " + e.Screenshot + "\n")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
