package main

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// FileRecord 一个候选视频文件, 每次扫描重新生成
type FileRecord struct {
	Path          string
	Fingerprint   string
	SizeBytes     int64
	ModifiedAt    time.Time
	IsTestVariant bool
}

// FileName 文件名
func (f FileRecord) FileName() string {
	return filepath.Base(f.Path)
}

// FileScanner 目录扫描器
type FileScanner struct {
	scanDirectory  string
	mediaExtension string
}

// NewFileScanner 创建扫描器
func NewFileScanner(cfg *Config) *FileScanner {
	return &FileScanner{
		scanDirectory:  cfg.ScanDirectory,
		mediaExtension: cfg.MediaExtension,
	}
}

// SetScanDirectory 设置扫描目录
func (s *FileScanner) SetScanDirectory(dir string) {
	s.scanDirectory = dir
}

// ScanDirectory 当前扫描目录
func (s *FileScanner) ScanDirectory() string {
	return s.scanDirectory
}

var testSuffixPattern = regexp.MustCompile(`-test-\d+$`)

// isTestVariantName 只匹配 <base>-test-<数字> 形式的测试副本
// 名字中间含 -test- 的正常文件不算
func isTestVariantName(fileName string) bool {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return testSuffixPattern.MatchString(base)
}

// Fingerprint 文件指纹: md5(路径+大小)
// 注意: 不是内容哈希, 同路径同大小的不同内容会碰撞
func Fingerprint(path string, size int64) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s%d", path, size)))
	return fmt.Sprintf("%x", sum)
}

// ScanMp4Files 递归扫描目录下的全部 MP4 文件
// 过滤 0 字节文件, 按路径排序保证结果稳定; 目录不存在时记录错误并返回空结果
func (s *FileScanner) ScanMp4Files() []FileRecord {
	if info, err := os.Stat(s.scanDirectory); err != nil || !info.IsDir() {
		log.Printf("❌ 扫描目录不存在: %s", s.scanDirectory)
		return nil
	}

	var records []FileRecord
	filepath.WalkDir(s.scanDirectory, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), s.mediaExtension) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() == 0 {
			return nil
		}
		records = append(records, FileRecord{
			Path:          path,
			Fingerprint:   Fingerprint(path, info.Size()),
			SizeBytes:     info.Size(),
			ModifiedAt:    info.ModTime(),
			IsTestVariant: isTestVariantName(filepath.Base(path)),
		})
		return nil
	})

	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records
}

// UnprocessedFiles 返回账本中没有记录的文件, 保持扫描顺序
func (s *FileScanner) UnprocessedFiles(ledger *UploadLedger) []FileRecord {
	var unprocessed []FileRecord
	for _, record := range s.ScanMp4Files() {
		if !ledger.IsProcessed(record.Fingerprint) {
			unprocessed = append(unprocessed, record)
		}
	}
	return unprocessed
}

// IsValidMp4 校验文件是否为有效的 MP4
// 扩展名 + 非空 + 文件头前 12 字节包含 ftyp 标识
func (s *FileScanner) IsValidMp4(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), s.mediaExtension) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return false
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, 12)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return false
	}
	return bytes.Contains(header[:n], []byte("ftyp"))
}

// DirectoryStats 目录统计信息
type DirectoryStats struct {
	ScanDirectory    string
	TotalFiles       int
	ValidFiles       int
	TestFiles        int
	UnprocessedFiles int
	TotalSize        int64
	DirectoryExists  bool
}

// GetDirectoryStats 汇总目录统计
func (s *FileScanner) GetDirectoryStats(ledger *UploadLedger) DirectoryStats {
	all := s.ScanMp4Files()
	stats := DirectoryStats{
		ScanDirectory:    s.scanDirectory,
		TotalFiles:       len(all),
		UnprocessedFiles: len(s.UnprocessedFiles(ledger)),
	}
	if info, err := os.Stat(s.scanDirectory); err == nil && info.IsDir() {
		stats.DirectoryExists = true
	}

	for _, record := range all {
		stats.TotalSize += record.SizeBytes
		if s.IsValidMp4(record.Path) {
			stats.ValidFiles++
		}
		if record.IsTestVariant {
			stats.TestFiles++
		}
	}
	return stats
}

// CreateTestFiles 基于源文件复制 N 个测试文件, 追加填充字节使指纹不同
func (s *FileScanner) CreateTestFiles(sourceFile string, count int) ([]string, error) {
	src, err := os.ReadFile(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("源文件不存在: %s", sourceFile)
	}

	baseName := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	ext := filepath.Ext(sourceFile)
	dir := filepath.Dir(sourceFile)

	var created []string
	for i := 1; i <= count; i++ {
		testPath := filepath.Join(dir, fmt.Sprintf("%s-test-%d%s", baseName, i, ext))
		data := append(append([]byte{}, src...), bytes.Repeat([]byte{byte(i)}, i*100)...)
		if err := os.WriteFile(testPath, data, 0o644); err != nil {
			log.Printf("⚠️ 复制测试文件失败: %s: %v", testPath, err)
			continue
		}
		created = append(created, testPath)
	}
	return created, nil
}

// CleanupTestFiles 删除所有 -test- 标识的测试文件, 返回删除数量
func (s *FileScanner) CleanupTestFiles() int {
	deleted := 0
	for _, record := range s.ScanMp4Files() {
		if record.IsTestVariant {
			if err := os.Remove(record.Path); err == nil {
				deleted++
			}
		}
	}
	return deleted
}

// formatFileSize 人类可读的文件大小
func formatFileSize(bytes int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	if bytes <= 0 {
		return "0 B"
	}
	pow := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if pow >= len(units) {
		pow = len(units) - 1
	}
	value := float64(bytes) / math.Pow(1024, float64(pow))
	return fmt.Sprintf("%.2f %s", value, units[pow])
}
