package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prepmood-verify/internal/logger"
	"github.com/prepmood-verify/internal/models"
	"github.com/prepmood-verify/internal/repository"

	"github.com/xuri/excelize/v2"
)

// 单次批量写入的分片大小
const provisionInsertBatchSize = 500

// ErrNoProvisionSource 未找到可用的导入文件
var ErrNoProvisionSource = errors.New("no provision source file found")

// ProvisionService 令牌批量导入服务。
// 只在空库上执行：已有数据的库绝不重载，重新部署不能清掉既有验证记录。
type ProvisionService struct {
	repo repository.ProductTokenRepository
}

// NewProvisionService 创建批量导入服务
func NewProvisionService(repo repository.ProductTokenRepository) *ProvisionService {
	return &ProvisionService{repo: repo}
}

// ProvisionResult 导入结果统计
type ProvisionResult struct {
	File             string // 实际使用的文件
	Loaded           int    // 成功写入行数
	SkippedInvalid   int    // 必填字段缺失被跳过的行数
	SkippedDuplicate int    // 令牌重复被跳过的行数
	SkippedNotEmpty  bool   // 库非空，整体跳过
}

// LoadIfEmpty 幂等导入入口：任何运行模式启动时调用均安全。
// source 非空时使用该文件；否则按 pattern 取字典序最后一个匹配文件。
func (s *ProvisionService) LoadIfEmpty(source, pattern string) (*ProvisionResult, error) {
	count, err := s.repo.Count()
	if err != nil {
		return nil, fmt.Errorf("count tokens failed: %w", err)
	}
	if count > 0 {
		logger.Infow("provision_skipped_store_not_empty", "existing", count)
		return &ProvisionResult{SkippedNotEmpty: true}, nil
	}

	file, err := resolveProvisionFile(source, pattern)
	if err != nil {
		return nil, err
	}

	return s.loadFile(file)
}

// loadFile 解析并写入单个导入文件（csv 或 xlsx，按扩展名区分）
func (s *ProvisionService) loadFile(file string) (*ProvisionResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(file)) {
	case ".xlsx":
		rows, err = readXLSXRows(file)
	default:
		rows, err = readCSVRows(file)
	}
	if err != nil {
		return nil, fmt.Errorf("read provision file %s failed: %w", file, err)
	}

	result := &ProvisionResult{File: file}
	if len(rows) == 0 {
		logger.Warnw("provision_file_empty", "file", file)
		return result, nil
	}

	columns, err := resolveColumns(rows[0])
	if err != nil {
		return nil, fmt.Errorf("provision file %s: %w", file, err)
	}

	seen := make(map[string]bool)
	var pending []models.ProductToken
	for _, row := range rows[1:] {
		token := cellAt(row, columns.token)
		internalCode := cellAt(row, columns.internalCode)
		productName := cellAt(row, columns.productName)

		if token == "" || internalCode == "" || productName == "" {
			result.SkippedInvalid++
			continue
		}
		if seen[token] {
			result.SkippedDuplicate++
			continue
		}
		existing, err := s.repo.GetByToken(token)
		if err != nil {
			return nil, fmt.Errorf("check duplicate token failed: %w", err)
		}
		if existing != nil {
			result.SkippedDuplicate++
			continue
		}

		seen[token] = true
		pending = append(pending, models.ProductToken{
			Token:        token,
			InternalCode: internalCode,
			ProductName:  productName,
		})
		if len(pending) >= provisionInsertBatchSize {
			if err := s.repo.CreateBatch(pending); err != nil {
				return nil, fmt.Errorf("insert tokens failed: %w", err)
			}
			result.Loaded += len(pending)
			pending = pending[:0]
		}
	}
	if len(pending) > 0 {
		if err := s.repo.CreateBatch(pending); err != nil {
			return nil, fmt.Errorf("insert tokens failed: %w", err)
		}
		result.Loaded += len(pending)
	}

	logger.Infow("provision_completed",
		"file", file,
		"loaded", result.Loaded,
		"skipped_invalid", result.SkippedInvalid,
		"skipped_duplicate", result.SkippedDuplicate,
	)
	return result, nil
}

type provisionColumns struct {
	token        int
	internalCode int
	productName  int
}

// resolveColumns 按表头定位必填列（大小写不敏感）
func resolveColumns(header []string) (provisionColumns, error) {
	columns := provisionColumns{token: -1, internalCode: -1, productName: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "token":
			columns.token = i
		case "internal_code":
			columns.internalCode = i
		case "product_name":
			columns.productName = i
		}
	}
	if columns.token < 0 || columns.internalCode < 0 || columns.productName < 0 {
		return columns, errors.New("header must contain token, internal_code, product_name")
	}
	return columns, nil
}

func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

// resolveProvisionFile 选定导入文件；pattern 命中多个时取字典序最后一个
func resolveProvisionFile(source, pattern string) (string, error) {
	source = strings.TrimSpace(source)
	if source != "" {
		if _, err := os.Stat(source); err != nil {
			return "", fmt.Errorf("provision source %s: %w", source, err)
		}
		return source, nil
	}

	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return "", ErrNoProvisionSource
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("glob %s failed: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: pattern %s", ErrNoProvisionSource, pattern)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// readCSVRows 读取 CSV 全部行，容忍开头的 UTF-8 BOM
func readCSVRows(file string) ([][]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(bomStrippingReader(f))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readXLSXRows 读取 XLSX 首个工作表的全部行
func readXLSXRows(file string) ([][]string, error) {
	f, err := excelize.OpenFile(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheet)
}

// bomStrippingReader 跳过输入开头的 UTF-8 BOM
func bomStrippingReader(r io.Reader) io.Reader {
	return &bomReader{r: r}
}

type bomReader struct {
	r       io.Reader
	checked bool
}

func (b *bomReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head := make([]byte, 3)
		n, err := io.ReadFull(b.r, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return 0, err
		}
		head = head[:n]
		if !strings.HasPrefix(string(head), "\xef\xbb\xbf") {
			b.r = io.MultiReader(strings.NewReader(string(head)), b.r)
		}
	}
	return b.r.Read(p)
}
