package main

import (
	"errors"
	"testing"
	"time"
)

func newTestRetryManager() (*RetryManager, *[]time.Duration) {
	r := NewRetryManager(&Config{RetryAttempts: 3, RetryDelaySeconds: 5})
	var delays []time.Duration
	r.sleep = func(d time.Duration) { delays = append(delays, d) }
	return r, &delays
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	r, delays := newTestRetryManager()

	calls := 0
	err := r.Execute(func() error {
		calls++
		if calls < 3 {
			return errors.New("connection timeout")
		}
		return nil
	}, "测试操作")

	if err != nil {
		t.Fatalf("期望成功, 实际: %v", err)
	}
	if calls != 3 {
		t.Fatalf("期望调用 3 次, 实际 %d 次", calls)
	}
	// 指数退避: 5秒, 10秒
	want := []time.Duration{5 * time.Second, 10 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("期望 %d 次等待, 实际 %d 次", len(want), len(*delays))
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Fatalf("第 %d 次等待 = %v, 期望 %v", i+1, (*delays)[i], d)
		}
	}
}

func TestExecuteNonRetryableStopsImmediately(t *testing.T) {
	r, delays := newTestRetryManager()

	calls := 0
	err := r.Execute(func() error {
		calls++
		return errors.New("invalid input data")
	}, "测试操作")

	if err == nil {
		t.Fatal("期望返回错误")
	}
	if calls != 1 {
		t.Fatalf("不可重试错误只应调用 1 次, 实际 %d 次", calls)
	}
	if len(*delays) != 0 {
		t.Fatalf("不可重试错误不应等待, 实际等待 %d 次", len(*delays))
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	r, _ := newTestRetryManager()

	calls := 0
	wantErr := errors.New("network error")
	err := r.Execute(func() error {
		calls++
		return wantErr
	}, "测试操作")

	if calls != 3 {
		t.Fatalf("期望调用 3 次, 实际 %d 次", calls)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("应返回最后一次错误, 实际: %v", err)
	}
}

func TestIsRetryableError(t *testing.T) {
	r, _ := newTestRetryManager()

	tests := []struct {
		message string
		want    bool
	}{
		{"connection timeout", true},
		{"Network Unreachable", true},
		{"server error 500", true},
		{"service unavailable", true},
		{"gateway timeout", true},
		{"invalid file format", false},
		{"element not found", false},
	}
	for _, tt := range tests {
		if got := r.isRetryableError(tt.message); got != tt.want {
			t.Fatalf("isRetryableError(%q) = %t, 期望 %t", tt.message, got, tt.want)
		}
	}
}

func TestAddRetryablePattern(t *testing.T) {
	r, _ := newTestRetryManager()
	if r.isRetryableError("rate limited") {
		t.Fatal("自定义模式添加前不应命中")
	}
	r.AddRetryablePattern("rate limited")
	if !r.isRetryableError("Rate Limited by server") {
		t.Fatal("自定义模式添加后应命中")
	}
}

func TestCalculateDelay(t *testing.T) {
	r, _ := newTestRetryManager()

	tests := []struct {
		failedAttempt int
		want          time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
	}
	for _, tt := range tests {
		if got := r.calculateDelay(tt.failedAttempt); got != tt.want {
			t.Fatalf("calculateDelay(%d) = %v, 期望 %v", tt.failedAttempt, got, tt.want)
		}
	}
}

func TestExecuteUploadConvertsToBool(t *testing.T) {
	r, _ := newTestRetryManager()

	if !r.ExecuteUpload(func() error { return nil }, "a.mp4") {
		t.Fatal("成功操作应返回 true")
	}
	if r.ExecuteUpload(func() error { return errors.New("invalid file") }, "a.mp4") {
		t.Fatal("失败操作应返回 false")
	}
}

func TestExecuteLoginConvertsToBool(t *testing.T) {
	r, _ := newTestRetryManager()

	if !r.ExecuteLogin(func() error { return nil }) {
		t.Fatal("登录成功应返回 true")
	}
	if r.ExecuteLogin(func() error { return errors.New("login timeout") }) {
		t.Fatal("登录失败应返回 false")
	}
}
