package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
)

const (
	BilibiliHomePage    string = "https://www.bilibili.com"
	BilibiliLoginPage   string = "https://passport.bilibili.com/login"
	BilibiliCreatorHome string = "https://member.bilibili.com/platform/home"
	BilibiliUploadPage  string = "https://member.bilibili.com/platform/upload/video/frame"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ConsoleEntry 浏览器控制台日志条目
type ConsoleEntry struct {
	Level   string
	Message string
}

// PageDriver 页面能力的窄接口, 上层状态机只依赖这里列出的操作
// 选择器以 // 开头时按 XPath 处理
type PageDriver interface {
	Goto(url string) error
	Reload() error
	URL() string
	Click(selector string) error
	Fill(selector, value string) error
	Press(selector, key string) error
	SetInputFiles(selector, path string) error
	Count(selector string) int
	IsVisible(selector string) bool
	IsEnabled(selector string) bool
	Text(selector string) (string, bool)
	InputValue(selector string) (string, error)
	Evaluate(script string) (interface{}, error)
	Screenshot(path string) error
	Content() (string, error)
	ConsoleLogs() []ConsoleEntry
	Close() error
}

// BrowserEnv 浏览器上下文能力: 建页面和 Cookie 读写
type BrowserEnv interface {
	NewPage() (PageDriver, error)
	Cookies() ([]Cookie, error)
	AddCookies(cookies []Cookie) error
	Close()
}

// playwrightEnv Playwright 实现
type playwrightEnv struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
}

// GenerateBrowser 启动浏览器并创建上下文, 注入反自动化脚本
func GenerateBrowser(headless bool) (BrowserEnv, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("启动Playwright失败: %v", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--window-size=1920,1080",
			"--disable-gpu",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-blink-features=AutomationControlled",
			"--disable-infobars",
			"--disable-notifications",
			"--disable-popup-blocking",
			"--no-first-run",
			"--no-default-browser-check",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("启动浏览器失败: %v", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:  &playwright.Size{Width: 1920, Height: 1080},
		UserAgent: playwright.String(browserUserAgent),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("创建上下文失败: %v", err)
	}

	// 反自动化脚本
	scriptContent := `
		Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
		Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
		Object.defineProperty(navigator, 'languages', { get: () => ['zh-CN', 'zh', 'en'] });
		window.chrome = { runtime: {}, loadTimes: function() {}, csi: function() {}, app: {} };
	`
	if err := context.AddInitScript(playwright.Script{Content: &scriptContent}); err != nil {
		return nil, fmt.Errorf("注入初始化脚本失败: %v", err)
	}

	return &playwrightEnv{pw: pw, browser: browser, context: context}, nil
}

func (e *playwrightEnv) NewPage() (PageDriver, error) {
	page, err := e.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("创建页面失败: %v", err)
	}

	p := &playwrightPage{page: page}
	page.OnConsole(func(msg playwright.ConsoleMessage) {
		p.mu.Lock()
		p.console = append(p.console, ConsoleEntry{Level: msg.Type(), Message: msg.Text()})
		p.mu.Unlock()
	})
	return p, nil
}

func (e *playwrightEnv) Cookies() ([]Cookie, error) {
	raw, err := e.context.Cookies()
	if err != nil {
		return nil, fmt.Errorf("获取cookies失败: %v", err)
	}
	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}
	return cookies, nil
}

func (e *playwrightEnv) AddCookies(cookies []Cookie) error {
	optional := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		cookie := c
		optional = append(optional, playwright.OptionalCookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   &cookie.Domain,
			Path:     &cookie.Path,
			Secure:   &cookie.Secure,
			HttpOnly: &cookie.HttpOnly,
		})
	}
	if err := e.context.AddCookies(optional); err != nil {
		return fmt.Errorf("恢复cookies失败: %v", err)
	}
	return nil
}

func (e *playwrightEnv) Close() {
	e.context.Close()
	e.browser.Close()
	e.pw.Stop()
}

// playwrightPage PageDriver 的 Playwright 适配
type playwrightPage struct {
	page    playwright.Page
	mu      sync.Mutex
	console []ConsoleEntry
}

func normalizeSelector(selector string) string {
	if strings.HasPrefix(selector, "//") {
		return "xpath=" + selector
	}
	return selector
}

func (p *playwrightPage) locator(selector string) playwright.Locator {
	return p.page.Locator(normalizeSelector(selector))
}

func (p *playwrightPage) Goto(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(60000),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *playwrightPage) Reload() error {
	_, err := p.page.Reload()
	return err
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Click(selector string) error {
	return p.locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(10000),
	})
}

func (p *playwrightPage) Fill(selector, value string) error {
	return p.locator(selector).First().Fill(value)
}

func (p *playwrightPage) Press(selector, key string) error {
	return p.locator(selector).First().Press(key)
}

func (p *playwrightPage) SetInputFiles(selector, path string) error {
	return p.locator(selector).First().SetInputFiles([]string{path})
}

func (p *playwrightPage) Count(selector string) int {
	count, err := p.locator(selector).Count()
	if err != nil {
		return 0
	}
	return count
}

func (p *playwrightPage) IsVisible(selector string) bool {
	visible, err := p.locator(selector).First().IsVisible()
	return err == nil && visible
}

func (p *playwrightPage) IsEnabled(selector string) bool {
	enabled, err := p.locator(selector).First().IsEnabled()
	return err == nil && enabled
}

func (p *playwrightPage) Text(selector string) (string, bool) {
	text, err := p.locator(selector).First().TextContent()
	if err != nil || strings.TrimSpace(text) == "" {
		return "", false
	}
	return strings.TrimSpace(text), true
}

func (p *playwrightPage) InputValue(selector string) (string, error) {
	return p.locator(selector).First().InputValue()
}

func (p *playwrightPage) Evaluate(script string) (interface{}, error) {
	return p.page.Evaluate(script)
}

func (p *playwrightPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) ConsoleLogs() []ConsoleEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ConsoleEntry(nil), p.console...)
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

// firstVisible 按优先级尝试一组选择器, 返回第一个有可见匹配的选择器
// 找不到返回 false, 不抛错; 可选表单项的多策略回退都走这里
func firstVisible(page PageDriver, selectors []string) (string, bool) {
	for _, selector := range selectors {
		if page.Count(selector) > 0 && page.IsVisible(selector) {
			return selector, true
		}
	}
	return "", false
}

// firstPresent 同 firstVisible, 但只要求存在匹配, 不要求可见
func firstPresent(page PageDriver, selectors []string) (string, bool) {
	for _, selector := range selectors {
		if page.Count(selector) > 0 {
			return selector, true
		}
	}
	return "", false
}
