package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"
)

// ProcessedEntry 账本条目, 每个指纹至多一条, 后写覆盖
type ProcessedEntry struct {
	FilePath    string `json:"file_path"`
	FileName    string `json:"file_name"`
	ProcessedAt string `json:"processed_at"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	FileSize    int64  `json:"file_size"`
}

// UploadLedger 已处理文件账本
// 启动时整体加载, 每次变更后整体重写落盘, 保证进程中途崩溃也不丢已完成的记录
type UploadLedger struct {
	path    string
	entries map[string]ProcessedEntry
}

// NewUploadLedger 创建并加载账本; 文件缺失或损坏按空账本处理, 不向上抛错
func NewUploadLedger(path string) *UploadLedger {
	ledger := &UploadLedger{
		path:    path,
		entries: make(map[string]ProcessedEntry),
	}
	ledger.load()
	return ledger
}

func (l *UploadLedger) load() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return
	}
	entries := make(map[string]ProcessedEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("⚠️ 账本文件解析失败, 按空账本处理: %v", err)
		return
	}
	l.entries = entries
}

func (l *UploadLedger) save() {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		log.Printf("❌ 创建账本目录失败: %v", err)
		return
	}
	data, err := json.MarshalIndent(l.entries, "", "    ")
	if err != nil {
		log.Printf("❌ 序列化账本失败: %v", err)
		return
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		log.Printf("❌ 写入账本失败: %v", err)
	}
}

// IsProcessed 指纹是否已有记录
func (l *UploadLedger) IsProcessed(fingerprint string) bool {
	_, ok := l.entries[fingerprint]
	return ok
}

// MarkProcessed 写入一条处理记录并立即落盘
func (l *UploadLedger) MarkProcessed(record FileRecord, success bool, message string) {
	l.entries[record.Fingerprint] = ProcessedEntry{
		FilePath:    record.Path,
		FileName:    record.FileName(),
		ProcessedAt: time.Now().Format("2006-01-02 15:04:05"),
		Success:     success,
		Message:     message,
		FileSize:    record.SizeBytes,
	}
	l.save()
}

// Entry 查询指纹对应的记录
func (l *UploadLedger) Entry(fingerprint string) (ProcessedEntry, bool) {
	entry, ok := l.entries[fingerprint]
	return entry, ok
}

// Remove 删除单条记录, 用于手动重新排队
func (l *UploadLedger) Remove(fingerprint string) {
	if _, ok := l.entries[fingerprint]; ok {
		delete(l.entries, fingerprint)
		l.save()
	}
}

// Reset 清空账本并落盘
func (l *UploadLedger) Reset() {
	l.entries = make(map[string]ProcessedEntry)
	l.save()
}

// ProcessingStats 处理统计
type ProcessingStats struct {
	TotalProcessed int
	Successful     int
	Failed         int
	SuccessRate    float64
}

// Stats 统计账本中的成功/失败数量
func (l *UploadLedger) Stats() ProcessingStats {
	stats := ProcessingStats{TotalProcessed: len(l.entries)}
	for _, entry := range l.entries {
		if entry.Success {
			stats.Successful++
		} else {
			stats.Failed++
		}
	}
	if stats.TotalProcessed > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.TotalProcessed) * 100
	}
	return stats
}
