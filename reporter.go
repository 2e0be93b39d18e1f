package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

// SessionReporter 汇总一次会话的逐文件结果, 输出控制台摘要/错误报告/Excel 结果表
type SessionReporter struct {
	reportDir string
	startedAt time.Time
	outcomes  []UploadOutcome
	errors    []ErrorInfo
}

// NewSessionReporter 创建会话报告器
func NewSessionReporter(cfg *Config) *SessionReporter {
	return &SessionReporter{
		reportDir: cfg.ReportDir(),
		startedAt: time.Now(),
	}
}

// Add 记录一个文件的结果
func (r *SessionReporter) Add(outcome UploadOutcome) {
	r.outcomes = append(r.outcomes, outcome)
}

// AddError 记录一次异常的诊断信息
func (r *SessionReporter) AddError(info ErrorInfo) {
	r.errors = append(r.errors, info)
}

// Successful 成功文件数
func (r *SessionReporter) Successful() int {
	count := 0
	for _, o := range r.outcomes {
		if o.Success {
			count++
		}
	}
	return count
}

// Failed 失败文件数
func (r *SessionReporter) Failed() int {
	return len(r.outcomes) - r.Successful()
}

// PrintSummary 控制台摘要: 总数/成功/失败/耗时 和逐文件结果
func (r *SessionReporter) PrintSummary() {
	duration := time.Since(r.startedAt).Round(time.Second)

	log.Println("=====================================")
	log.Println("📊 本次上传结果汇总")
	log.Printf("   总计: %d 个文件", len(r.outcomes))
	log.Printf("   成功: %d 个", r.Successful())
	log.Printf("   失败: %d 个", r.Failed())
	log.Printf("   耗时: %v", duration)
	log.Println("=====================================")

	for _, o := range r.outcomes {
		if o.Success {
			log.Printf("   ✅ %s", o.FileName)
		} else {
			log.Printf("   ❌ %s: %s", o.FileName, o.Message)
		}
	}
}

// WriteErrorReport 将分组错误报告写入文本文件, 无错误时不生成
func (r *SessionReporter) WriteErrorReport() (string, error) {
	if len(r.errors) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(r.reportDir, 0o755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %v", err)
	}

	name := "error_report_" + time.Now().Format("2006-01-02_15-04-05") + ".txt"
	path := filepath.Join(r.reportDir, name)
	if err := os.WriteFile(path, []byte(GenerateErrorReport(r.errors)), 0o644); err != nil {
		return "", fmt.Errorf("写入错误报告失败: %v", err)
	}
	log.Printf("📄 错误报告已生成: %s", path)
	return path, nil
}

// WriteExcelReport 生成本次会话的 Excel 结果表
func (r *SessionReporter) WriteExcelReport() (string, error) {
	if len(r.outcomes) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(r.reportDir, 0o755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "上传结果"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"序号", "文件名", "文件路径", "结果", "错误类型", "说明", "截图"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, o := range r.outcomes {
		row := i + 2
		status := "成功"
		if !o.Success {
			status = "失败"
		}
		values := []interface{}{i + 1, o.FileName, o.FilePath, status, o.ErrorType, o.Message, o.Screenshot}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, value)
		}
	}

	// 末尾附统计行
	summaryRow := len(r.outcomes) + 3
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "汇总")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", summaryRow),
		fmt.Sprintf("成功 %d / 失败 %d / 共 %d", r.Successful(), r.Failed(), len(r.outcomes)))

	name := "upload_report_" + time.Now().Format("2006-01-02_15-04-05") + ".xlsx"
	path := filepath.Join(r.reportDir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("保存Excel报告失败: %v", err)
	}
	log.Printf("📊 Excel 结果表已生成: %s", path)
	return path, nil
}
