package main

import (
	"strings"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"connection refused", "network"},
		{"request timeout after 60s", "network"},
		{"DNS resolution failed", "network"},
		{"login failed: bad credentials", "authentication"},
		{"401 Unauthorized", "authentication"},
		{"invalid file: 不是有效的 MP4 文件", "file"},
		{"file not found: a.mp4", "file"},
		{"upload failed: quota exceeded", "upload"},
		{"element not found: 找不到文件上传输入框", "page"},
		{"click intercepted by overlay", "page"},
		{"server error 502", "server"},
		{"browser crashed unexpectedly", "browser"},
		{"validation error on field title", "validation"},
		{"something completely different", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.message); got != tt.want {
			t.Fatalf("ClassifyError(%q) = %s, 期望 %s", tt.message, got, tt.want)
		}
	}
}

func TestClassifyErrorFirstMatchWins(t *testing.T) {
	// 消息同时命中 network 和 upload 模式时, 靠前的 network 生效
	if got := ClassifyError("upload timeout"); got != "network" {
		t.Fatalf("ClassifyError(upload timeout) = %s, 期望 network", got)
	}
}

func TestIsRecoverableError(t *testing.T) {
	recoverable := []string{"network", "upload", "page", "server"}
	for _, errType := range recoverable {
		if !IsRecoverableError(errType) {
			t.Fatalf("%s 应为可恢复错误", errType)
		}
	}

	unrecoverable := []string{"authentication", "file", "browser", "validation", "unknown"}
	for _, errType := range unrecoverable {
		if IsRecoverableError(errType) {
			t.Fatalf("%s 不应为可恢复错误", errType)
		}
	}
}

func TestSuggestedAction(t *testing.T) {
	if SuggestedAction("network") == "" {
		t.Fatal("已知类型应有处理建议")
	}
	if SuggestedAction("nonsense") != suggestedActions["unknown"] {
		t.Fatal("未知类型应回退到 unknown 的建议")
	}
}

func TestFilterConsoleLogs(t *testing.T) {
	entries := []ConsoleEntry{
		{Level: "log", Message: "page loaded"},
		{Level: "error", Message: "script error"},
		{Level: "warning", Message: "deprecated API"},
		{Level: "info", Message: "info message"},
	}
	filtered := filterConsoleLogs(entries)
	if len(filtered) != 2 {
		t.Fatalf("期望保留 2 条, 实际 %d 条", len(filtered))
	}
	if filtered[0].Level != "error" || filtered[1].Level != "warning" {
		t.Fatalf("过滤结果不对: %+v", filtered)
	}
}

func TestGenerateErrorReport(t *testing.T) {
	errors := []ErrorInfo{
		{FileName: "a.mp4", ErrorType: "network", ErrorMessage: "connection timeout", SuggestedAction: SuggestedAction("network")},
		{FileName: "b.mp4", ErrorType: "network", ErrorMessage: "dns failed", SuggestedAction: SuggestedAction("network")},
		{FileName: "c.mp4", ErrorType: "file", ErrorMessage: "invalid file", SuggestedAction: SuggestedAction("file"), Screenshot: "error_file_c.mp4.png"},
	}

	report := GenerateErrorReport(errors)
	if !strings.Contains(report, "错误总数: 3") {
		t.Fatalf("报告缺少错误总数:\n%s", report)
	}
	if !strings.Contains(report, "network 错误 (2 个)") {
		t.Fatalf("报告缺少 network 分组:\n%s", report)
	}
	if !strings.Contains(report, "file 错误 (1 个)") {
		t.Fatalf("报告缺少 file 分组:\n%s", report)
	}
	if !strings.Contains(report, "a.mp4: connection timeout") {
		t.Fatalf("报告缺少文件明细:\n%s", report)
	}
	if !strings.Contains(report, "截图: error_file_c.mp4.png") {
		t.Fatalf("报告缺少截图信息:\n%s", report)
	}

	// 分组顺序按首次出现
	if strings.Index(report, "network 错误") > strings.Index(report, "file 错误") {
		t.Fatal("分组顺序应按首次出现")
	}
}
