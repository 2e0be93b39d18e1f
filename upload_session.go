package main

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"
)

// 各阶段轮询参数, 均为墙钟超时
const (
	loginPollTimeout   = 120 * time.Second
	loginPollInterval  = 1 * time.Second
	loginProgressEvery = 10 * time.Second
	uploadPollTimeout  = 600 * time.Second
	uploadPollInterval = 3 * time.Second
	submitPollTimeout  = 60 * time.Second
	submitPollInterval = 1 * time.Second
)

// 会话级关键 Cookie, 任意一个有效即视为已登录
var keySessionCookies = []string{"SESSDATA", "bili_jct", "DedeUserID"}

// 已登录用户标识元素
var userIdentitySelectors = []string{
	".user-info",
	".header-avatar",
	".user-con",
	".nav-user-info",
	".user-name",
}

var fileInputSelectors = []string{
	"input[type='file']",
	"input[accept*='video']",
	"input[accept*='mp4']",
	".upload-wrapper input[type='file']",
	".bcc-upload input[type='file']",
}

var titleInputSelectors = []string{
	"input[placeholder*='标题']",
	".title-input input",
	".video-title input",
}

var descriptionSelectors = []string{
	"textarea[placeholder*='简介']",
	".desc-input textarea",
	".archive-desc textarea",
}

var tagInputSelectors = []string{
	".tag-input input",
	"input[placeholder*='标签']",
	".tag-container input",
}

var categorySelectors = []string{
	"//button[contains(text(), '分区')]",
	"//div[contains(text(), '分区')]",
	"//span[contains(text(), '分区')]",
	".category-select",
	".type-select",
}

var topicInputSelectors = []string{
	"input[placeholder*='参与话题']",
	"input[placeholder*='话题']",
	"input[placeholder*='搜索话题']",
	"input[placeholder*='活动']",
	".topic-input",
	".activity-input",
}

var suggestionSelectors = []string{
	".suggestion-item",
	".dropdown-item",
	".autocomplete-item",
	".topic-suggestion",
	".activity-suggestion",
	".search-suggestion",
}

var submitButtonSelectors = []string{
	"//button[contains(text(), '立即投稿')]",
	"//button[contains(text(), '发布')]",
	"//button[contains(text(), '提交')]",
	"//button[contains(text(), '投稿')]",
	"button.bcc-button.bcc-button--primary.large",
	"button[class*='bcc-button--primary'][class*='large']",
	".submit-btn",
	".publish-btn",
	"button[type='submit']",
}

var submitSuccessSelectors = []string{
	".success-message",
	".submit-success",
	"//div[contains(text(), '投稿成功')]",
	"//div[contains(text(), '提交成功')]",
}

var submitErrorSelectors = []string{
	".error-message",
	".submit-error",
	"//div[contains(text(), '投稿失败')]",
	"//div[contains(text(), '提交失败')]",
}

// UploadOutcome 单个文件一次完整上传的结果
type UploadOutcome struct {
	FilePath      string
	FileName      string
	Success       bool
	ErrorType     string
	IsRecoverable bool
	Message       string
	Screenshot    string
	PageSource    string
}

// UploadSession 登录 → 逐文件投稿 的会话状态机
// 严格串行: 一个浏览器会话, 一次一个文件; 单个文件失败不中断批处理,
// 只有登录失败会终止整个会话
type UploadSession struct {
	cfg     *Config
	scanner *FileScanner
	ledger  *UploadLedger
	cookies *CookieManager
	retry   *RetryManager
	logger  *UploadLogger
	handler *ExceptionHandler
	browser BrowserEnv
	page    PageDriver

	// 提交确认轮询超时且无明确报错时按成功处理
	// 这是源自站点反馈不稳定的宽松策略, 可按需关闭
	AssumeSubmittedOnTimeout bool

	sleep func(time.Duration)
	now   func() time.Time
}

// NewUploadSession 创建上传会话
func NewUploadSession(cfg *Config, scanner *FileScanner, ledger *UploadLedger,
	cookies *CookieManager, retry *RetryManager, logger *UploadLogger,
	handler *ExceptionHandler, browser BrowserEnv) *UploadSession {
	return &UploadSession{
		cfg:                      cfg,
		scanner:                  scanner,
		ledger:                   ledger,
		cookies:                  cookies,
		retry:                    retry,
		logger:                   logger,
		handler:                  handler,
		browser:                  browser,
		AssumeSubmittedOnTimeout: true,
		sleep:                    time.Sleep,
		now:                      time.Now,
	}
}

// Run 执行整个会话: 登录后顺序处理所有文件, 每个结果写回账本
func (s *UploadSession) Run(files []FileRecord) ([]UploadOutcome, error) {
	page, err := s.browser.NewPage()
	if err != nil {
		return nil, err
	}
	s.page = page
	defer page.Close()

	if !s.retry.ExecuteLogin(s.authenticate) {
		s.handler.HandleLoginError(fmt.Errorf("login timeout: 登录失败或超时"), s.page, "session")
		return nil, fmt.Errorf("登录失败或超时, 无法开始上传")
	}

	var outcomes []UploadOutcome
	for i, record := range files {
		index := i + 1
		log.Printf("📁 正在处理文件 %d/%d: %s", index, len(files), record.FileName())
		s.logger.LogUploadStart(record, index, len(files))

		outcome := s.processFile(record)
		outcomes = append(outcomes, outcome)

		s.ledger.MarkProcessed(record, outcome.Success, outcome.Message)
		s.logger.LogUploadResult(record, outcome.Success, outcome.Message)

		if outcome.Success {
			log.Printf("✅ 文件 %d 上传成功", index)
		} else {
			log.Printf("❌ 文件 %d 上传失败: %s", index, outcome.Message)
		}

		// 刻意的限速: 最后一个文件之后不再等待
		if index < len(files) {
			wait := time.Duration(s.cfg.UploadInterval) * time.Second
			if !outcome.Success && !outcome.IsRecoverable {
				// 不可恢复错误多等一倍, 给操作者留出察觉时间
				wait *= 2
			}
			log.Printf("⏳ 等待 %v 后处理下一个文件...", wait)
			s.sleep(wait)
			s.page.Reload()
		}
	}

	stats := s.ledger.Stats()
	s.logger.LogSessionEnd(map[string]interface{}{
		"total_processed": stats.TotalProcessed,
		"successful":      stats.Successful,
		"failed":          stats.Failed,
	})
	return outcomes, nil
}

// authenticate 登录阶段: 先尝试 Cookie 静默复用, 失败则回退扫码登录
func (s *UploadSession) authenticate() error {
	cred := s.cookies.Load()
	if cred == nil {
		// 文件存在但解析不出凭证: 登录成功后会整体覆盖, 先留一份现场
		if s.cookies.Exists() {
			log.Println("⚠️ Cookie 文件损坏或缺少必要字段, 备份后转扫码登录")
			s.cookies.Backup()
		}
		return s.qrLogin()
	}

	if s.cookies.IsExpired() {
		log.Println("⚠️ Cookie 已超过有效期, 仍尝试在线验证...")
	}
	log.Printf("🔍 找到保存的 Cookie (%d 个), 尝试自动登录...", cred.Count)

	if s.tryCookieLogin(cred) {
		log.Println("✅ Cookie 自动登录成功")
		s.logger.LogLogin(true, "cookie", "")
		return nil
	}

	// 在线验证失败: 备份后走交互登录, 便于事后排查
	log.Println("⚠️ Cookie 登录失效, 备份后转扫码登录")
	s.cookies.Backup()
	return s.qrLogin()
}

// tryCookieLogin 注入缓存 Cookie 并在线验证登录态
// 验证方式: 访问创作中心不被重定向回登录页, 且页面存在用户标识元素
func (s *UploadSession) tryCookieLogin(cred *SessionCredential) bool {
	if err := s.page.Goto(BilibiliHomePage); err != nil {
		log.Printf("⚠️ 打开主页失败: %v", err)
		return false
	}
	s.sleep(2 * time.Second)

	if err := s.browser.AddCookies(cred.Cookies); err != nil {
		log.Printf("⚠️ %v", err)
		return false
	}
	for _, cookie := range cred.Cookies {
		if isKeyCookie(cookie.Name) {
			log.Printf("🔑 加载关键Cookie: %s = %s...", cookie.Name, cookiePreview(cookie.Value))
		}
	}

	s.page.Reload()
	s.sleep(3 * time.Second)

	log.Println("🔍 验证登录状态...")
	if err := s.page.Goto(BilibiliCreatorHome); err != nil {
		log.Printf("⚠️ 打开创作中心失败: %v", err)
		return false
	}
	s.sleep(3 * time.Second)

	currentURL := s.page.URL()
	if !strings.Contains(currentURL, "member.bilibili.com") || strings.Contains(currentURL, "login") {
		log.Printf("⚠️ 页面被重定向到登录页面, Cookie 可能已过期: %s", currentURL)
		return false
	}

	_, found := firstVisible(s.page, userIdentitySelectors)
	return found
}

// qrLogin 扫码登录: 打开登录页, 轮询登录成功信号直到超时
func (s *UploadSession) qrLogin() error {
	log.Println("📱 需要扫码登录, 正在打开登录页面...")
	if err := s.page.Goto(BilibiliLoginPage); err != nil {
		return fmt.Errorf("打开登录页失败: %v", err)
	}

	log.Println("⏳ 请使用手机 Bilibili 客户端扫描二维码登录...")
	start := s.now()
	lastProgress := start

	for s.now().Sub(start) < loginPollTimeout {
		if s.loginSucceeded() {
			log.Println("✅ 检测到登录成功！")
			s.sleep(3 * time.Second)
			if err := s.saveSessionCookies(); err != nil {
				log.Printf("⚠️ 保存 Cookie 失败: %v", err)
			}
			s.setPermissionStorage()
			s.logger.LogLogin(true, "qrcode", "")
			return nil
		}

		if s.now().Sub(lastProgress) >= loginProgressEvery {
			elapsed := int(s.now().Sub(start).Seconds())
			remaining := int(loginPollTimeout.Seconds()) - elapsed
			log.Printf("⏳ 等待登录中... 已等待: %d秒, 剩余: %d秒", elapsed, remaining)
			lastProgress = s.now()
		}
		s.sleep(loginPollInterval)
	}

	s.logger.LogLogin(false, "qrcode", "扫码超时")
	return fmt.Errorf("login timeout: 扫码登录超时")
}

// loginSucceeded 登录成功信号: 离开登录页 / 关键 Cookie 就位 / 用户标识元素出现
func (s *UploadSession) loginSucceeded() bool {
	if !strings.Contains(s.page.URL(), "passport.bilibili.com/login") {
		return true
	}

	if cookies, err := s.browser.Cookies(); err == nil {
		for _, cookie := range cookies {
			if isKeyCookie(cookie.Name) && cookie.Value != "" && cookie.Value != "0" && len(cookie.Value) > 10 {
				return true
			}
		}
	}

	_, found := firstVisible(s.page, userIdentitySelectors)
	return found
}

// saveSessionCookies 在主域名下取全量 Cookie 并持久化
func (s *UploadSession) saveSessionCookies() error {
	if err := s.page.Goto(BilibiliHomePage); err != nil {
		return err
	}
	s.sleep(2 * time.Second)

	cookies, err := s.browser.Cookies()
	if err != nil {
		return err
	}
	if err := s.cookies.Save(cookies, browserUserAgent, BilibiliHomePage); err != nil {
		return err
	}

	log.Printf("✅ Cookie 已保存 (共 %d 个)", len(cookies))
	for _, cookie := range cookies {
		if isKeyCookie(cookie.Name) {
			log.Printf("🔑 关键Cookie: %s = %s...", cookie.Name, cookiePreview(cookie.Value))
		}
	}
	return nil
}

// processFile 单文件全流程: 校验 → (重试包装的)上传+填表+提交
func (s *UploadSession) processFile(record FileRecord) UploadOutcome {
	outcome := UploadOutcome{FilePath: record.Path, FileName: record.FileName()}

	// 上传前再次校验文件, 无效文件直接记失败并跳过后续步骤
	if !s.scanner.IsValidMp4(record.Path) {
		outcome.ErrorType = "file"
		outcome.Message = "invalid file: 不是有效的 MP4 文件"
		log.Printf("❌ 文件校验失败, 跳过: %s", record.FileName())
		return outcome
	}

	var lastErr error
	ok := s.retry.ExecuteUpload(func() error {
		if err := s.uploadOnce(record); err != nil {
			lastErr = err
			return err
		}
		return nil
	}, record.FileName())

	if ok {
		outcome.Success = true
		outcome.Message = "投稿成功"
		return outcome
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("上传失败")
	}
	info := s.handler.HandleUploadError(lastErr, s.page, record.Path, "upload")
	outcome.ErrorType = info.ErrorType
	outcome.IsRecoverable = info.IsRecoverable
	outcome.Message = lastErr.Error()
	outcome.Screenshot = info.Screenshot
	outcome.PageSource = info.PageSource
	return outcome
}

// uploadOnce 一次完整的投稿尝试, 任一必选步骤失败即返回错误交给重试层
func (s *UploadSession) uploadOnce(record FileRecord) error {
	if err := s.page.Goto(BilibiliUploadPage); err != nil {
		return fmt.Errorf("打开投稿页失败: %v", err)
	}
	s.sleep(3 * time.Second)

	s.waitForUploadPageReady()
	s.seedUploadPageStorage()
	s.handlePopups()

	selector, found := firstPresent(s.page, fileInputSelectors)
	if !found {
		return fmt.Errorf("element not found: 找不到文件上传输入框")
	}

	log.Printf("📤 正在上传文件: %s", record.FileName())
	if err := s.page.SetInputFiles(selector, record.Path); err != nil {
		return fmt.Errorf("设置上传文件失败: %v", err)
	}

	if err := s.waitForUploadComplete(record.FileName()); err != nil {
		return err
	}

	s.fillVideoInfo(record)
	return s.submitVideo()
}

// waitForUploadPageReady 等待投稿页基本元素出现, 最多 30 秒
func (s *UploadSession) waitForUploadPageReady() {
	readySelectors := []string{"input[type='file']", ".upload-wrapper", ".video-upload"}
	start := s.now()
	for s.now().Sub(start) < 30*time.Second {
		if _, found := firstPresent(s.page, readySelectors); found {
			return
		}
		s.sleep(1 * time.Second)
	}
	log.Println("⚠️ 投稿页面元素加载缓慢, 继续尝试")
}

// waitForUploadComplete 轮询上传完成信号
// 标题输入框出现是最可靠的完成标志; 进度文本只记日志, 不作为判定条件
func (s *UploadSession) waitForUploadComplete(fileName string) error {
	log.Println("⏳ 等待文件上传完成...")
	start := s.now()

	for s.now().Sub(start) < uploadPollTimeout {
		if _, found := firstVisible(s.page, titleInputSelectors); found {
			log.Printf("✅ 文件上传完成, 耗时 %v", s.now().Sub(start).Round(time.Second))
			return nil
		}

		progressSelectors := []string{".upload-progress", ".progress-text", ".upload-status"}
		if selector, found := firstVisible(s.page, progressSelectors); found {
			if text, ok := s.page.Text(selector); ok && strings.Contains(text, "%") {
				log.Printf("⏳ 上传进度: %s", text)
				s.logger.LogUploadProgress(fileName, text)
			}
		}

		s.sleep(uploadPollInterval)
	}
	return fmt.Errorf("upload timeout: 等待上传完成超时")
}

// fillVideoInfo 填写标题/简介/分区/标签/话题
// 标题和简介找不到输入框只警告; 分区/标签/话题都是尽力而为
func (s *UploadSession) fillVideoInfo(record FileRecord) {
	log.Println("📝 正在填写视频信息...")

	title := GenerateVideoTitle(record.FileName(), s.cfg.TitleMaxLen)
	if selector, found := firstVisible(s.page, titleInputSelectors); found {
		if err := s.page.Fill(selector, title); err != nil {
			log.Printf("⚠️ 填写标题失败: %v", err)
		} else {
			// 回读校验, 有的输入框会截断或吞掉输入
			if value, err := s.page.InputValue(selector); err == nil && value != title {
				log.Printf("⚠️ 标题回读不一致: %q", value)
			}
			log.Printf("✅ 已填写标题: %s", title)
		}
	} else {
		log.Println("⚠️ 未找到标题输入框")
	}

	description := GenerateVideoDescription(record.FileName(), s.now())
	if selector, found := firstVisible(s.page, descriptionSelectors); found {
		if err := s.page.Fill(selector, description); err != nil {
			log.Printf("⚠️ 填写简介失败: %v", err)
		} else {
			log.Println("✅ 已填写简介")
		}
	}

	s.selectCategory()
	s.addTags()
	s.selectActivity()
}

// selectCategory 选择分区, 多策略回退, 找不到只算软告警
func (s *UploadSession) selectCategory() {
	selector, found := firstVisible(s.page, categorySelectors)
	if !found {
		log.Println("⚠️ 未找到分区选择器, 跳过分区设置")
		return
	}
	if err := s.page.Click(selector); err != nil {
		log.Printf("⚠️ 点击分区选择器失败: %v", err)
		return
	}
	s.sleep(2 * time.Second)

	keyword := strings.TrimSuffix(s.cfg.Category, "区")
	optionSelectors := []string{
		fmt.Sprintf("//li[contains(text(), '%s')]", keyword),
		fmt.Sprintf("//div[contains(text(), '%s')]", keyword),
		fmt.Sprintf("//span[contains(text(), '%s')]", keyword),
	}
	if optionSelector, ok := firstVisible(s.page, optionSelectors); ok {
		if err := s.page.Click(optionSelector); err == nil {
			log.Printf("✅ 已选择分区: %s", s.cfg.Category)
			return
		}
	}
	log.Printf("⚠️ 未找到分区选项: %s", s.cfg.Category)
}

// addTags 逐个输入标签, 每个标签回车确认后软校验
func (s *UploadSession) addTags() {
	tags := s.cfg.TagList()
	if len(tags) == 0 {
		return
	}

	selector, found := firstVisible(s.page, tagInputSelectors)
	if !found {
		log.Println("⚠️ 未找到标签输入框, 跳过标签设置")
		return
	}

	var added []string
	for _, tag := range tags {
		if err := s.page.Fill(selector, tag); err != nil {
			log.Printf("⚠️ 输入标签失败: %s: %v", tag, err)
			continue
		}
		if err := s.page.Press(selector, "Enter"); err != nil {
			log.Printf("⚠️ 确认标签失败: %s: %v", tag, err)
			continue
		}
		s.sleep(1 * time.Second)

		if s.page.Count(fmt.Sprintf("//span[contains(text(), '%s')]", tag)) == 0 {
			log.Printf("⚠️ 标签可能未生效: %s", tag)
			continue
		}
		added = append(added, tag)
	}
	if len(added) > 0 {
		log.Printf("✅ 已添加标签: %s", strings.Join(added, ", "))
	}
}

// selectActivity 设置活动/话题
// 优先点击页面上已渲染的话题标签, 其次输入搜索并选第一个建议; 失败只告警
func (s *UploadSession) selectActivity() {
	activity := s.cfg.Activity
	if activity == "" {
		return
	}
	log.Printf("🎯 正在设置活动/话题: %s", activity)

	chipSelectors := []string{
		fmt.Sprintf("//div[contains(@class, 'topic') or contains(@class, 'tag')]//span[contains(text(), '%s')]", activity),
		fmt.Sprintf("//div[contains(@class, 'participate')]//span[contains(text(), '%s')]", activity),
		fmt.Sprintf("//span[contains(text(), '%s')]", activity),
		fmt.Sprintf("//a[contains(text(), '%s')]", activity),
	}
	if selector, found := firstVisible(s.page, chipSelectors); found {
		if err := s.page.Click(selector); err == nil {
			log.Printf("✅ 已点击话题标签: %s", activity)
			return
		}
	}

	selector, found := firstVisible(s.page, topicInputSelectors)
	if !found {
		log.Println("⚠️ 未找到参与话题选择器, 跳过活动设置")
		return
	}
	if err := s.page.Fill(selector, activity); err != nil {
		log.Printf("⚠️ 输入话题失败: %v", err)
		return
	}
	s.sleep(2 * time.Second)

	if suggestion, ok := firstVisible(s.page, suggestionSelectors); ok {
		if err := s.page.Click(suggestion); err == nil {
			log.Printf("✅ 已选择话题建议: %s", activity)
			return
		}
	}
	log.Printf("✅ 已输入活动/话题: %s", activity)
}

// submitVideo 提交投稿: 处理弹窗 → 勾选协议 → 点击提交 → 轮询确认
func (s *UploadSession) submitVideo() error {
	log.Println("🚀 正在提交投稿...")

	s.handleCollaborationPopup()
	s.sleep(2 * time.Second)

	// 勾选所有未选中的协议复选框, JS 点击避免遮挡
	s.page.Evaluate(`document.querySelectorAll("input[type='checkbox']").forEach(cb => { if (!cb.checked) cb.click(); })`)
	s.sleep(1 * time.Second)

	var submitSelector string
	for _, selector := range submitButtonSelectors {
		if s.page.Count(selector) > 0 && s.page.IsVisible(selector) && s.page.IsEnabled(selector) {
			submitSelector = selector
			break
		}
	}
	if submitSelector == "" {
		return fmt.Errorf("element not found: 找不到可用的提交按钮")
	}

	if err := s.page.Click(submitSelector); err != nil {
		return fmt.Errorf("click failed: 点击提交按钮失败: %v", err)
	}
	log.Println("✅ 已点击提交按钮")

	return s.waitForSubmitConfirmation()
}

// waitForSubmitConfirmation 轮询提交结果
// 超时且无明确报错时, 按 AssumeSubmittedOnTimeout 决定成败
func (s *UploadSession) waitForSubmitConfirmation() error {
	startURL := s.page.URL()
	start := s.now()

	for s.now().Sub(start) < submitPollTimeout {
		if _, found := firstVisible(s.page, submitSuccessSelectors); found {
			log.Println("✅ 投稿提交成功")
			return nil
		}

		currentURL := s.page.URL()
		if currentURL != startURL &&
			(strings.Contains(currentURL, "success") || strings.Contains(currentURL, "complete")) {
			log.Println("✅ 页面跳转到成功页, 投稿提交成功")
			return nil
		}

		if selector, found := firstVisible(s.page, submitErrorSelectors); found {
			text, _ := s.page.Text(selector)
			return fmt.Errorf("upload failed: 提交失败: %s", text)
		}

		s.sleep(submitPollInterval)
	}

	if s.AssumeSubmittedOnTimeout {
		log.Println("✅ 投稿已提交（未检测到明确的成功标识）")
		return nil
	}
	return fmt.Errorf("upload timeout: 提交确认超时")
}

// handlePopups 处理投稿页的已知弹窗
func (s *UploadSession) handlePopups() {
	// 通知权限类弹窗, 点允许/确定
	allowSelectors := []string{
		"//button[contains(text(), '允许')]",
		"//button[contains(text(), '确定')]",
		".notification-allow",
		".permission-allow",
	}
	if selector, found := firstVisible(s.page, allowSelectors); found {
		if err := s.page.Click(selector); err == nil {
			log.Println("✅ 已处理权限弹窗")
			s.sleep(1 * time.Second)
		}
	}

	s.handleCollaborationPopup()

	// 其他弹窗统一尝试关闭按钮
	closeSelectors := []string{".modal-close", ".dialog-close", ".popup-close", ".close-btn"}
	if selector, found := firstVisible(s.page, closeSelectors); found {
		if err := s.page.Click(selector); err == nil {
			s.sleep(1 * time.Second)
		}
	}
}

// handleCollaborationPopup 处理二创计划弹窗, 优先同意, 其次暂不考虑
func (s *UploadSession) handleCollaborationPopup() {
	popupSelectors := []string{
		"//div[contains(text(), '是否允许有创作者加入二创计划')]",
		"//div[contains(text(), '二创计划')]",
	}
	if _, found := firstVisible(s.page, popupSelectors); !found {
		return
	}
	log.Println("🔍 找到二创计划弹窗, 正在处理...")

	buttonSelectors := []string{
		"//button[contains(text(), '同意')]",
		"//button[contains(text(), '确定')]",
		"//button[contains(text(), '暂不考虑')]",
		"//span[contains(text(), '同意')]",
		"//span[contains(text(), '暂不考虑')]",
	}
	if selector, found := firstVisible(s.page, buttonSelectors); found {
		if err := s.page.Click(selector); err == nil {
			log.Println("✅ 二创计划弹窗已处理")
			s.sleep(2 * time.Second)
			return
		}
	}

	closeSelectors := []string{".modal-close", ".dialog-close", ".popup-close"}
	if selector, found := firstVisible(s.page, closeSelectors); found {
		s.page.Click(selector)
		s.sleep(1 * time.Second)
	}
}

// seedUploadPageStorage 预置投稿页 localStorage, 抑制首次引导弹窗
func (s *UploadSession) seedUploadPageStorage() {
	script := `
		localStorage.setItem('bili_videoup_submit_auto_tips', '1');
		localStorage.setItem('bili_videoup_guide_dismissed', '1');
		localStorage.setItem('bili_videoup_tips_shown', '1');
		localStorage.setItem('bili_upload_auto_submit_tips', '1');
		localStorage.setItem('bili_upload_guide_closed', '1');
	`
	if _, err := s.page.Evaluate(script); err != nil {
		log.Printf("⚠️ 设置投稿页 localStorage 失败: %v", err)
	}
}

// setPermissionStorage 登录后写入权限标记, 减少后续弹窗
func (s *UploadSession) setPermissionStorage() {
	script := `
		localStorage.setItem('notification_permission_granted', 'true');
		localStorage.setItem('creative_collaboration_popup_dismissed', 'true');
		localStorage.setItem('permission_dialog_dismissed', 'true');
		sessionStorage.setItem('popup_dismissed', 'true');
	`
	if _, err := s.page.Evaluate(script); err != nil {
		log.Printf("⚠️ 设置权限存储失败: %v", err)
	}
}

func isKeyCookie(name string) bool {
	for _, key := range keySessionCookies {
		if name == key {
			return true
		}
	}
	return false
}

// cookiePreview 只展示值前缀, 避免完整凭证进日志
func cookiePreview(value string) string {
	if len(value) > 20 {
		return value[:20]
	}
	return value
}

// GenerateVideoTitle 由文件名生成标题: 去扩展名, 去 -test-N 后缀, 截断到最大长度
func GenerateVideoTitle(fileName string, maxLen int) string {
	title := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	title = testSuffixPattern.ReplaceAllString(title, "")

	runes := []rune(title)
	if len(runes) > maxLen {
		return string(runes[:maxLen])
	}
	return title
}

// GenerateVideoDescription 由文件名和时间生成简介模板
func GenerateVideoDescription(fileName string, now time.Time) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return fmt.Sprintf("音乐分享\n\n文件名: %s\n上传时间: %s\n\n#音乐分享 #必剪创作",
		base, now.Format("2006-01-02 15:04:05"))
}
