package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
)

func main() {

	// 定义命令行参数
	var (
		dir        string
		scanOnly   bool
		stats      bool
		reset      bool
		cleanup    bool
		testFiles  int
		sourceFile string
		headless   bool
		yes        bool
	)

	flag.StringVar(&dir, "dir", "", "扫描目录 (默认读 SCAN_DIRECTORY 环境变量)")
	flag.BoolVar(&scanOnly, "scan", false, "仅扫描目录并列出未处理文件, 不上传")
	flag.BoolVar(&stats, "stats", false, "显示目录与处理统计")
	flag.BoolVar(&reset, "reset", false, "清空已处理文件账本")
	flag.BoolVar(&cleanup, "cleanup", false, "删除目录下的测试文件及过期日志/备份")
	flag.IntVar(&testFiles, "test-files", 0, "基于源文件生成 N 个测试文件")
	flag.StringVar(&sourceFile, "source", "", "生成测试文件的源文件路径 (配合 -test-files)")
	flag.BoolVar(&headless, "headless", true, "无头模式运行浏览器(默认true)")
	flag.BoolVar(&yes, "yes", false, "跳过上传前的确认提示")

	flag.Parse()

	headlessSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			headlessSet = true
		}
	})

	cfg := LoadConfig()
	applyFlagOverrides(cfg, dir, headlessSet, headless)

	scanner := NewFileScanner(cfg)
	ledger := NewUploadLedger(cfg.LedgerPath())

	// 工具类子操作, 执行后直接退出
	switch {
	case reset:
		runReset(ledger)
		return
	case stats:
		runStats(scanner, ledger, cfg)
		return
	case scanOnly:
		runScan(scanner, ledger)
		return
	case cleanup:
		runCleanup(scanner, cfg)
		return
	case testFiles > 0:
		runCreateTestFiles(scanner, sourceFile, testFiles)
		return
	}

	runUpload(cfg, scanner, ledger, yes)
}

// applyFlagOverrides 命令行参数只覆盖显式传入的项, 其余沿用环境变量配置
// -headless 有默认值, 必须区分 "没传" 和 "传了默认值"
func applyFlagOverrides(cfg *Config, dir string, headlessSet, headless bool) {
	if dir != "" {
		cfg.ScanDirectory = dir
	}
	if headlessSet {
		cfg.Headless = headless
	}
}

// runUpload 主流程: 环境检查 → 扫描 → 确认 → 登录并逐个上传 → 汇总
func runUpload(cfg *Config, scanner *FileScanner, ledger *UploadLedger, yes bool) {
	// 1. 检查并安装 Playwright
	if err := EnsureBrowserEnvironment(); err != nil {
		log.Fatalf("❌ 环境初始化失败: %v", err)
	}

	// 2. 扫描目录, 过滤已处理文件
	log.Printf("📁 扫描目录: %s", cfg.ScanDirectory)
	all := scanner.ScanMp4Files()
	files := scanner.UnprocessedFiles(ledger)
	log.Printf("🔍 找到 %d 个视频文件, 其中 %d 个未处理", len(all), len(files))

	if len(files) == 0 {
		log.Println("🎉 所有文件都已处理完成！")
		return
	}

	for i, record := range files {
		log.Printf("   %d. %s (%s)", i+1, record.FileName(), formatFileSize(record.SizeBytes))
	}

	// 3. 上传前确认
	if !yes && !confirm(fmt.Sprintf("确定要上传这 %d 个文件吗?", len(files))) {
		log.Println("已取消")
		return
	}

	// 4. 初始化会话组件
	logger, err := NewUploadLogger(cfg)
	if err != nil {
		log.Fatalf("❌ 初始化日志失败: %v", err)
	}
	defer logger.Close()
	logger.LogFileScan(len(all), len(files))

	cookies := NewCookieManager(cfg)
	retry := NewRetryManager(cfg)
	handler := NewExceptionHandler(cfg, logger)
	reporter := NewSessionReporter(cfg)

	// 5. 启动浏览器
	log.Println("🚀 第一阶段：登录...")
	browser, err := GenerateBrowser(cfg.Headless)
	if err != nil {
		log.Fatalf("❌ 启动浏览器失败: %v", err)
	}
	defer browser.Close()

	// 6. 登录并逐个上传
	session := NewUploadSession(cfg, scanner, ledger, cookies, retry, logger, handler, browser)
	log.Println("🚀 第二阶段：逐个上传文件...")
	outcomes, err := session.Run(files)
	if err != nil {
		log.Fatalf("❌ 上传会话失败: %v", err)
	}

	// 7. 汇总结果
	log.Println("🚀 第三阶段：汇总上传结果...")
	for _, outcome := range outcomes {
		reporter.Add(outcome)
		if !outcome.Success {
			reporter.AddError(ErrorInfo{
				FilePath:        outcome.FilePath,
				FileName:        outcome.FileName,
				ErrorType:       outcome.ErrorType,
				ErrorMessage:    outcome.Message,
				IsRecoverable:   outcome.IsRecoverable,
				SuggestedAction: SuggestedAction(outcome.ErrorType),
				Screenshot:      outcome.Screenshot,
				PageSource:      outcome.PageSource,
			})
		}
	}
	reporter.PrintSummary()
	reporter.WriteErrorReport()
	if _, err := reporter.WriteExcelReport(); err != nil {
		log.Printf("⚠️ %v", err)
	}

	// 8. 维护性清理
	cookies.CleanupOldBackups(30)
	CleanupOldLogs(cfg.LogDir(), 7)

	log.Printf("📄 会话日志: %s", logger.LogFile())
	log.Println("🎉 所有文件上传完成！")
}

// runScan 列出目录下的文件和处理状态
func runScan(scanner *FileScanner, ledger *UploadLedger) {
	all := scanner.ScanMp4Files()
	if len(all) == 0 {
		log.Printf("📁 目录下没有找到视频文件: %s", scanner.ScanDirectory())
		return
	}

	log.Printf("📁 扫描目录: %s", scanner.ScanDirectory())
	for i, record := range all {
		status := "⏳ 待处理"
		if ledger.IsProcessed(record.Fingerprint) {
			if entry, ok := ledger.Entry(record.Fingerprint); ok && entry.Success {
				status = "✅ 已成功"
			} else {
				status = "❌ 已失败"
			}
		}
		log.Printf("   %d. %s %s (%s)", i+1, status, record.FileName(), formatFileSize(record.SizeBytes))
	}
	log.Printf("🔍 共 %d 个文件, 未处理 %d 个", len(all), len(scanner.UnprocessedFiles(ledger)))
}

// runStats 打印目录与账本统计
func runStats(scanner *FileScanner, ledger *UploadLedger, cfg *Config) {
	dirStats := scanner.GetDirectoryStats(ledger)
	ledgerStats := ledger.Stats()

	log.Println("📊 目录统计:")
	log.Printf("   目录: %s (存在: %t)", dirStats.ScanDirectory, dirStats.DirectoryExists)
	log.Printf("   视频文件: %d 个 (有效 %d, 测试 %d)", dirStats.TotalFiles, dirStats.ValidFiles, dirStats.TestFiles)
	log.Printf("   未处理: %d 个", dirStats.UnprocessedFiles)
	log.Printf("   总大小: %s", formatFileSize(dirStats.TotalSize))

	log.Println("📊 处理统计:")
	log.Printf("   已处理: %d 个 (成功 %d, 失败 %d, 成功率 %.1f%%)",
		ledgerStats.TotalProcessed, ledgerStats.Successful, ledgerStats.Failed, ledgerStats.SuccessRate)

	if logs := RecentLogFiles(cfg.LogDir(), 5); len(logs) > 0 {
		log.Println("📄 最近的会话日志:")
		for _, path := range logs {
			log.Printf("   %s", path)
		}
	}

	cookies := NewCookieManager(cfg)
	if cookies.Exists() {
		validation := cookies.Validate()
		log.Printf("🍪 Cookie: 存在 (有效: %t, 已过期: %t)", validation.Valid, cookies.IsExpired())
		for _, warning := range validation.Warnings {
			log.Printf("   ⚠️ %s", warning)
		}
	} else {
		log.Println("🍪 Cookie: 不存在, 首次运行需要扫码登录")
	}
}

// runReset 清空账本
func runReset(ledger *UploadLedger) {
	ledger.Reset()
	log.Println("✅ 已处理文件账本已清空")
}

// runCleanup 删除测试文件和过期的日志/Cookie备份
func runCleanup(scanner *FileScanner, cfg *Config) {
	deleted := scanner.CleanupTestFiles()
	log.Printf("🗑️ 已删除 %d 个测试文件", deleted)

	logs := CleanupOldLogs(cfg.LogDir(), 7)
	log.Printf("🗑️ 已删除 %d 个过期日志", logs)

	backups := NewCookieManager(cfg).CleanupOldBackups(30)
	log.Printf("🗑️ 已删除 %d 个过期 Cookie 备份", backups)
}

// runCreateTestFiles 基于源文件生成测试文件
func runCreateTestFiles(scanner *FileScanner, sourceFile string, count int) {
	if sourceFile == "" {
		log.Fatalf("❌ 必须通过 -source 指定源文件")
	}
	created, err := scanner.CreateTestFiles(sourceFile, count)
	if err != nil {
		log.Fatalf("❌ 生成测试文件失败: %v", err)
	}
	for _, path := range created {
		log.Printf("   📄 %s", path)
	}
	log.Printf("✅ 已生成 %d 个测试文件", len(created))
}

// confirm 控制台确认提示
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.ToLower(strings.TrimSpace(input))
	return input == "y" || input == "yes"
}
