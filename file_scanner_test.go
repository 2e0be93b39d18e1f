package main

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestScanner(dir string) *FileScanner {
	return NewFileScanner(&Config{ScanDirectory: dir, MediaExtension: ".mp4"})
}

// mp4Header 带 ftyp 标识的最小文件头
func mp4Header(extra int) []byte {
	data := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2'}
	for i := 0; i < extra; i++ {
		data = append(data, 0x00)
	}
	return data
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}
}

func TestScanMp4Files(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp4"), mp4Header(488))
	writeFile(t, filepath.Join(dir, "b.mp4"), nil)
	writeFile(t, filepath.Join(dir, "c.txt"), []byte("text"))

	records := newTestScanner(dir).ScanMp4Files()
	if len(records) != 1 {
		t.Fatalf("期望 1 个文件, 实际 %d 个", len(records))
	}
	record := records[0]
	if record.FileName() != "a.mp4" {
		t.Fatalf("期望 a.mp4, 实际 %s", record.FileName())
	}
	if record.SizeBytes != 500 {
		t.Fatalf("期望大小 500, 实际 %d", record.SizeBytes)
	}
	if record.Fingerprint != Fingerprint(record.Path, 500) {
		t.Fatalf("指纹不匹配: %s", record.Fingerprint)
	}
	if record.IsTestVariant {
		t.Fatal("a.mp4 不应被识别为测试文件")
	}
}

func TestScanMp4FilesCaseInsensitiveExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "upper.MP4"), mp4Header(0))

	records := newTestScanner(dir).ScanMp4Files()
	if len(records) != 1 {
		t.Fatalf("期望识别大写扩展名, 实际 %d 个文件", len(records))
	}
}

func TestScanMp4FilesSortedByPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "z.mp4"), mp4Header(0))
	writeFile(t, filepath.Join(dir, "a.mp4"), mp4Header(0))

	records := newTestScanner(dir).ScanMp4Files()
	if len(records) != 2 {
		t.Fatalf("期望 2 个文件, 实际 %d 个", len(records))
	}
	if records[0].FileName() != "a.mp4" || records[1].FileName() != "z.mp4" {
		t.Fatalf("扫描结果未按路径排序: %s, %s", records[0].FileName(), records[1].FileName())
	}
}

func TestScanMissingDirectory(t *testing.T) {
	records := newTestScanner(filepath.Join(t.TempDir(), "missing")).ScanMp4Files()
	if records != nil {
		t.Fatalf("目录不存在时期望空结果, 实际 %d 个", len(records))
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("/videos/a.mp4", 500)
	if a != Fingerprint("/videos/a.mp4", 500) {
		t.Fatal("相同输入的指纹必须一致")
	}
	if a == Fingerprint("/videos/a.mp4", 501) {
		t.Fatal("大小不同的指纹必须不同")
	}
	if a == Fingerprint("/videos/b.mp4", 500) {
		t.Fatal("路径不同的指纹必须不同")
	}
}

func TestIsValidMp4(t *testing.T) {
	dir := t.TempDir()
	scanner := newTestScanner(dir)

	valid := filepath.Join(dir, "valid.mp4")
	writeFile(t, valid, mp4Header(100))

	noHeader := filepath.Join(dir, "noheader.mp4")
	writeFile(t, noHeader, []byte("not a real video file content"))

	empty := filepath.Join(dir, "empty.mp4")
	writeFile(t, empty, nil)

	wrongExt := filepath.Join(dir, "video.avi")
	writeFile(t, wrongExt, mp4Header(0))

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"有效文件", valid, true},
		{"缺少ftyp头", noHeader, false},
		{"空文件", empty, false},
		{"扩展名不符", wrongExt, false},
		{"文件不存在", filepath.Join(dir, "nope.mp4"), false},
	}
	for _, tt := range tests {
		if got := scanner.IsValidMp4(tt.path); got != tt.want {
			t.Fatalf("%s: IsValidMp4 = %t, 期望 %t", tt.name, got, tt.want)
		}
	}
}

func TestUnprocessedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp4"), mp4Header(0))
	writeFile(t, filepath.Join(dir, "b.mp4"), mp4Header(50))

	scanner := newTestScanner(dir)
	ledger := NewUploadLedger(filepath.Join(t.TempDir(), "ledger.json"))

	all := scanner.ScanMp4Files()
	ledger.MarkProcessed(all[0], true, "投稿成功")

	unprocessed := scanner.UnprocessedFiles(ledger)
	if len(unprocessed) != 1 {
		t.Fatalf("期望 1 个未处理文件, 实际 %d 个", len(unprocessed))
	}
	if unprocessed[0].Path != all[1].Path {
		t.Fatalf("未处理文件不对: %s", unprocessed[0].Path)
	}
}

func TestCreateAndCleanupTestFiles(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "song.mp4")
	writeFile(t, source, mp4Header(0))

	scanner := newTestScanner(dir)
	created, err := scanner.CreateTestFiles(source, 2)
	if err != nil {
		t.Fatalf("生成测试文件失败: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("期望生成 2 个, 实际 %d 个", len(created))
	}
	if filepath.Base(created[0]) != "song-test-1.mp4" {
		t.Fatalf("测试文件命名不对: %s", created[0])
	}

	// 填充字节保证每个副本大小不同, 指纹才会不同
	records := scanner.ScanMp4Files()
	sizes := make(map[int64]bool)
	testCount := 0
	for _, record := range records {
		sizes[record.SizeBytes] = true
		if record.IsTestVariant {
			testCount++
		}
	}
	if testCount != 2 {
		t.Fatalf("期望 2 个测试文件, 实际 %d 个", testCount)
	}
	if len(sizes) != 3 {
		t.Fatalf("期望 3 种不同大小, 实际 %d 种", len(sizes))
	}

	if deleted := scanner.CleanupTestFiles(); deleted != 2 {
		t.Fatalf("期望删除 2 个测试文件, 实际 %d 个", deleted)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatal("源文件不应被删除")
	}
}

func TestIsTestVariantRequiresNumericSuffix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "song-test-1.mp4"), mp4Header(0))
	writeFile(t, filepath.Join(dir, "load-test-results.mp4"), mp4Header(10))
	writeFile(t, filepath.Join(dir, "plain.mp4"), mp4Header(20))

	scanner := newTestScanner(dir)
	for _, record := range scanner.ScanMp4Files() {
		want := record.FileName() == "song-test-1.mp4"
		if record.IsTestVariant != want {
			t.Fatalf("%s: IsTestVariant = %t, 期望 %t", record.FileName(), record.IsTestVariant, want)
		}
	}

	// 清理只删测试副本, 不能误删名字里碰巧带 -test- 的正常文件
	if deleted := scanner.CleanupTestFiles(); deleted != 1 {
		t.Fatalf("期望删除 1 个测试文件, 实际 %d 个", deleted)
	}
	if _, err := os.Stat(filepath.Join(dir, "load-test-results.mp4")); err != nil {
		t.Fatal("正常文件不应被清理")
	}
}

func TestGetDirectoryStats(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.mp4"), mp4Header(0))
	writeFile(t, filepath.Join(dir, "b-test-1.mp4"), mp4Header(10))

	scanner := newTestScanner(dir)
	ledger := NewUploadLedger(filepath.Join(t.TempDir(), "ledger.json"))

	stats := scanner.GetDirectoryStats(ledger)
	if !stats.DirectoryExists {
		t.Fatal("目录应存在")
	}
	if stats.TotalFiles != 2 || stats.ValidFiles != 2 || stats.TestFiles != 1 {
		t.Fatalf("统计不对: %+v", stats)
	}
	if stats.UnprocessedFiles != 2 {
		t.Fatalf("期望 2 个未处理, 实际 %d 个", stats.UnprocessedFiles)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{500, "500.00 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
	}
	for _, tt := range tests {
		if got := formatFileSize(tt.bytes); got != tt.want {
			t.Fatalf("formatFileSize(%d) = %s, 期望 %s", tt.bytes, got, tt.want)
		}
	}
}
