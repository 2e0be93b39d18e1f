package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"
)

// EnsureBrowserEnvironment 确保浏览器环境就绪
// 已安装则直接返回, 否则下载驱动和 Chromium
func EnsureBrowserEnvironment() error {
	log.Println("🔍 检查浏览器环境...")

	if isBrowserAlreadyInstalled() {
		log.Println("✅ Playwright 已安装")
		return nil
	}

	log.Println("⚠️ Playwright 未安装，正在下载浏览器驱动...")
	if err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	}); err != nil {
		return fmt.Errorf("自动安装失败: %v", err)
	}

	log.Println("✅ Playwright 安装完成")
	return nil
}

// isBrowserAlreadyInstalled 检查本机是否已有 Chromium 浏览器
func isBrowserAlreadyInstalled() bool {
	browserPath := getBrowserCachePath()
	if _, err := os.Stat(browserPath); err != nil {
		return false
	}

	matches, err := filepath.Glob(filepath.Join(browserPath, "chromium-*"))
	if err != nil || len(matches) == 0 {
		return false
	}

	log.Printf("✅ 找到浏览器缓存: %s", matches[0])
	return true
}

// getBrowserCachePath 浏览器缓存目录, 跟随 Playwright 默认位置
func getBrowserCachePath() string {
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		return filepath.Join(localAppData, "ms-playwright")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "ms-playwright")
	}
	return filepath.Join(home, ".cache", "ms-playwright")
}
