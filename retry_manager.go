package main

import (
	"log"
	"strings"
	"time"
)

// RetryManager 有界重试执行器
// 只对命中可重试模式的错误退避重试, 其余错误立即向调用方传播
type RetryManager struct {
	maxAttempts       int
	retryDelaySeconds int
	retryablePatterns []string
	sleep             func(time.Duration)
}

// NewRetryManager 创建重试执行器
func NewRetryManager(cfg *Config) *RetryManager {
	return &RetryManager{
		maxAttempts:       cfg.RetryAttempts,
		retryDelaySeconds: cfg.RetryDelaySeconds,
		retryablePatterns: []string{
			"timeout",
			"network",
			"connection",
			"server error",
			"service unavailable",
			"gateway timeout",
		},
		sleep: time.Sleep,
	}
}

// AddRetryablePattern 追加可重试错误模式
func (r *RetryManager) AddRetryablePattern(pattern string) {
	r.retryablePatterns = append(r.retryablePatterns, pattern)
}

// Execute 执行操作, 失败时按指数退避重试
// 成功立即返回; 尝试耗尽或错误不可重试时返回最后一次错误, 绝不吞错
func (r *RetryManager) Execute(operation func() error, name string) error {
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		log.Printf("🔄 执行操作: %s (尝试 %d/%d)", name, attempt, r.maxAttempts)

		start := time.Now()
		err := operation()
		if err == nil {
			if attempt > 1 {
				log.Printf("✅ 操作成功 (重试后): %s, 第 %d 次尝试", name, attempt)
			}
			return nil
		}

		lastErr = err
		retryable := r.isRetryableError(err.Error())
		log.Printf("⚠️ 操作失败: %s (尝试 %d/%d, 耗时 %v, 可重试: %t): %v",
			name, attempt, r.maxAttempts, time.Since(start).Round(time.Millisecond), retryable, err)

		if attempt >= r.maxAttempts || !retryable {
			break
		}

		delay := r.calculateDelay(attempt)
		log.Printf("⏳ 等待 %d 秒后重试: %s", delay/time.Second, name)
		r.sleep(delay)
	}

	log.Printf("❌ 操作最终失败: %s: %v", name, lastErr)
	return lastErr
}

// ExecuteUpload 上传操作的重试包装: 失败转换为 false, 批处理继续处理下一个文件
func (r *RetryManager) ExecuteUpload(operation func() error, fileName string) bool {
	if err := r.Execute(operation, "上传文件: "+fileName); err != nil {
		log.Printf("❌ 文件上传最终失败: %s: %v", fileName, err)
		return false
	}
	return true
}

// ExecuteLogin 登录操作的重试包装: 失败转换为 false
func (r *RetryManager) ExecuteLogin(operation func() error) bool {
	if err := r.Execute(operation, "用户登录"); err != nil {
		log.Printf("❌ 登录最终失败: %v", err)
		return false
	}
	return true
}

// isRetryableError 错误消息子串匹配, 大小写不敏感
func (r *RetryManager) isRetryableError(message string) bool {
	message = strings.ToLower(message)
	for _, pattern := range r.retryablePatterns {
		if strings.Contains(message, pattern) {
			return true
		}
	}
	return false
}

// calculateDelay 指数退避: 基础延迟 * 2^(已失败次数-1)
func (r *RetryManager) calculateDelay(failedAttempt int) time.Duration {
	delay := r.retryDelaySeconds
	for i := 1; i < failedAttempt; i++ {
		delay *= 2
	}
	return time.Duration(delay) * time.Second
}
