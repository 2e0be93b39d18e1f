package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// UploadLogger 会话日志: 每个会话一个 JSON 行日志文件, 同时镜像到控制台
type UploadLogger struct {
	logDir    string
	logFile   string
	sessionID string
	startedAt time.Time
	file      *os.File
}

type logEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// NewUploadLogger 创建会话日志, 目录自动创建
func NewUploadLogger(cfg *Config) (*UploadLogger, error) {
	if err := os.MkdirAll(cfg.LogDir(), 0o755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %v", err)
	}

	sessionID := time.Now().Format("2006-01-02_15-04-05")
	logFile := filepath.Join(cfg.LogDir(), "bilibili_upload_"+sessionID+".log")
	f, err := os.Create(logFile)
	if err != nil {
		return nil, fmt.Errorf("创建日志文件失败: %v", err)
	}

	logger := &UploadLogger{
		logDir:    cfg.LogDir(),
		logFile:   logFile,
		sessionID: sessionID,
		startedAt: time.Now(),
		file:      f,
	}

	logger.write("INFO", "=== Bilibili 上传会话开始 ===", map[string]interface{}{
		"session_id":     sessionID,
		"scan_directory": cfg.ScanDirectory,
		"category":       cfg.Category,
		"tags":           cfg.Tags,
		"activity":       cfg.Activity,
	})
	return logger, nil
}

// LogLogin 记录登录结果
func (l *UploadLogger) LogLogin(success bool, method, message string) {
	level := "INFO"
	status := "成功"
	if !success {
		level = "ERROR"
		status = "失败"
	}
	l.write(level, fmt.Sprintf("登录(%s): %s", method, status), map[string]interface{}{
		"method":  method,
		"success": success,
		"message": message,
	})
}

// LogFileScan 记录扫描结果
func (l *UploadLogger) LogFileScan(totalFiles, unprocessedFiles int) {
	l.write("INFO", "文件扫描完成", map[string]interface{}{
		"total_files":       totalFiles,
		"unprocessed_files": unprocessedFiles,
	})
}

// LogUploadStart 记录单个文件上传开始
func (l *UploadLogger) LogUploadStart(record FileRecord, currentIndex, totalFiles int) {
	l.write("INFO", fmt.Sprintf("开始上传文件 %d/%d", currentIndex, totalFiles), map[string]interface{}{
		"file_path": record.Path,
		"file_name": record.FileName(),
		"file_size": record.SizeBytes,
	})
}

// LogUploadProgress 记录上传进度文本
func (l *UploadLogger) LogUploadProgress(fileName, progress string) {
	l.write("INFO", "上传进度: "+progress, map[string]interface{}{
		"file_name": fileName,
	})
}

// LogUploadResult 记录单个文件的最终结果
func (l *UploadLogger) LogUploadResult(record FileRecord, success bool, message string) {
	level := "INFO"
	status := "成功"
	if !success {
		level = "ERROR"
		status = "失败"
	}
	l.write(level, "文件上传"+status+": "+record.FileName(), map[string]interface{}{
		"file_path": record.Path,
		"success":   success,
		"message":   message,
	})
}

// LogError 记录错误
func (l *UploadLogger) LogError(message string, context map[string]interface{}) {
	l.write("ERROR", message, context)
}

// LogScreenshot 记录截图信息
func (l *UploadLogger) LogScreenshot(name, reason string) {
	l.write("INFO", "截图已保存", map[string]interface{}{
		"screenshot_name": name,
		"reason":          reason,
	})
}

// LogSessionEnd 记录会话结束和最终统计
func (l *UploadLogger) LogSessionEnd(stats map[string]interface{}) {
	context := map[string]interface{}{
		"session_id": l.sessionID,
		"duration":   time.Since(l.startedAt).Round(time.Second).String(),
	}
	for k, v := range stats {
		context[k] = v
	}
	l.write("INFO", "=== Bilibili 上传会话结束 ===", context)
}

// Close 关闭日志文件
func (l *UploadLogger) Close() {
	if l.file != nil {
		l.file.Close()
	}
}

// LogFile 日志文件路径
func (l *UploadLogger) LogFile() string {
	return l.logFile
}

func (l *UploadLogger) write(level, message string, context map[string]interface{}) {
	entry := logEntry{
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		Level:     level,
		Message:   message,
		Context:   context,
	}
	if data, err := json.Marshal(entry); err == nil && l.file != nil {
		l.file.Write(append(data, '\n'))
	}

	if level == "ERROR" {
		log.Printf("❌ %s", message)
	}
}

// RecentLogFiles 最近的会话日志文件, 按修改时间倒序
func RecentLogFiles(logDir string, limit int) []string {
	matches, err := filepath.Glob(filepath.Join(logDir, "bilibili_upload_*.log"))
	if err != nil {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool {
		a, _ := os.Stat(matches[i])
		b, _ := os.Stat(matches[j])
		if a == nil || b == nil {
			return false
		}
		return a.ModTime().After(b.ModTime())
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// CleanupOldLogs 删除超过保留天数的会话日志, 返回删除数量
func CleanupOldLogs(logDir string, daysToKeep int) int {
	matches, err := filepath.Glob(filepath.Join(logDir, "bilibili_upload_*.log"))
	if err != nil {
		return 0
	}
	cutoff := time.Now().Add(-time.Duration(daysToKeep) * 24 * time.Hour)
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
	return deleted
}
