package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config 全局配置, 进程启动时从环境变量构建一次, 之后只读传递
// 各组件不再直接读取环境变量
type Config struct {
	ScanDirectory      string // 扫描目录
	StorageDir         string // 存储根目录 (账本/Cookie/日志/截图)
	Category           string // 分区
	Tags               string // 标签, 逗号分隔
	Activity           string // 活动/话题
	RetryAttempts      int    // 最大重试次数
	RetryDelaySeconds  int    // 重试基础延迟(秒)
	UploadInterval     int    // 上传间隔(秒)
	CookieExpiryDays   int    // Cookie 有效天数
	Headless           bool   // 无头模式
	TitleMaxLen        int    // 标题最大长度(字符)
	MediaExtension     string // 目标媒体扩展名
}

// LoadConfig 从环境变量加载配置并填充默认值
func LoadConfig() *Config {
	cfg := &Config{
		ScanDirectory:     envString("SCAN_DIRECTORY", "videos"),
		StorageDir:        envString("BILIBILI_STORAGE_DIR", "storage"),
		Category:          envString("BILIBILI_CATEGORY", "音乐区"),
		Tags:              envString("BILIBILI_TAGS", "必剪创作,歌单"),
		Activity:          envString("BILIBILI_ACTIVITY", "音乐分享官"),
		RetryAttempts:     envInt("BILIBILI_RETRY_ATTEMPTS", 3),
		RetryDelaySeconds: envInt("BILIBILI_RETRY_DELAY", 5),
		UploadInterval:    envInt("BILIBILI_WAIT_BETWEEN_UPLOADS", 3),
		CookieExpiryDays:  envInt("BILIBILI_COOKIE_EXPIRY_DAYS", 7),
		Headless:          envBool("BILIBILI_HEADLESS", true),
		TitleMaxLen:       80,
		MediaExtension:    ".mp4",
	}
	return cfg
}

// TagList 拆分标签配置
func (c *Config) TagList() []string {
	var tags []string
	for _, tag := range strings.Split(c.Tags, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// LedgerPath 已处理文件账本路径
func (c *Config) LedgerPath() string {
	return filepath.Join(c.StorageDir, "processed_files.json")
}

// CookiePath Cookie 文件路径
func (c *Config) CookiePath() string {
	return filepath.Join(c.StorageDir, "cookies", "bilibili_cookies.json")
}

// LogDir 会话日志目录
func (c *Config) LogDir() string {
	return filepath.Join(c.StorageDir, "logs")
}

// ScreenshotDir 错误截图目录
func (c *Config) ScreenshotDir() string {
	return filepath.Join(c.StorageDir, "screenshots")
}

// PageSourceDir 页面源码快照目录
func (c *Config) PageSourceDir() string {
	return filepath.Join(c.StorageDir, "source")
}

// ReportDir 结果报表目录
func (c *Config) ReportDir() string {
	return filepath.Join(c.StorageDir, "reports")
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	return v == "1" || v == "true" || v == "yes"
}
