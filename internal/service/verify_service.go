package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/prepmood-verify/internal/constants"
	"github.com/prepmood-verify/internal/models"
	"github.com/prepmood-verify/internal/repository"
)

// ErrTokenMissing 更新时令牌已不存在（查询时还在）。属于内部一致性错误：
// 运营上不会删行，出现即说明库被带外改动，必须报错而不是猜测结果。
var ErrTokenMissing = errors.New("token missing at update time")

// VerifyService 验证业务服务：对单次扫描做三分类状态迁移
type VerifyService struct {
	repo repository.ProductTokenRepository
}

// NewVerifyService 创建验证服务
func NewVerifyService(repo repository.ProductTokenRepository) *VerifyService {
	return &VerifyService{repo: repo}
}

// VerifyResult 单次验证结果
type VerifyResult struct {
	Outcome string               // unknown / first_scan / rescan
	Record  *models.ProductToken // unknown 时为 nil，其余为更新后的最新记录
}

// Verify 执行一次扫描验证。
// 未登记令牌直接返回 unknown 且不产生任何写入——未知令牌永远不能落库，
// 否则探测任意令牌即可伪造记录。存储层故障以 error 返回，绝不与 unknown 混淆。
func (s *VerifyService) Verify(token string, now time.Time) (*VerifyResult, error) {
	record, err := s.repo.GetByToken(token)
	if err != nil {
		return nil, fmt.Errorf("lookup token failed: %w", err)
	}
	if record == nil {
		return &VerifyResult{Outcome: constants.VerifyOutcomeUnknown}, nil
	}

	if record.ScanCount == 0 {
		rows, err := s.repo.MarkFirstScan(token, now)
		if err != nil {
			return nil, fmt.Errorf("mark first scan failed: %w", err)
		}
		if rows == 1 {
			fresh, err := s.reload(token)
			if err != nil {
				return nil, err
			}
			return &VerifyResult{Outcome: constants.VerifyOutcomeFirstScan, Record: fresh}, nil
		}
		// 条件更新未命中：并发首扫输给了别的请求，按再验证处理
	}

	rows, err := s.repo.MarkRescan(token, now)
	if err != nil {
		return nil, fmt.Errorf("mark rescan failed: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("rescan token %s: %w", token, ErrTokenMissing)
	}

	fresh, err := s.reload(token)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Outcome: constants.VerifyOutcomeRescan, Record: fresh}, nil
}

// Lookup 只读查询令牌记录（管理接口使用），未命中返回 (nil, nil)
func (s *VerifyService) Lookup(token string) (*models.ProductToken, error) {
	return s.repo.GetByToken(token)
}

// TokenStats 令牌验证统计
type TokenStats struct {
	Total      int64 `json:"total"`       // 已登记令牌总数
	Scanned    int64 `json:"scanned"`     // 至少验证过一次
	Unscanned  int64 `json:"unscanned"`   // 从未验证
	ScanEvents int64 `json:"scan_events"` // 扫描事件总数
}

// Stats 汇总令牌验证统计
func (s *VerifyService) Stats() (*TokenStats, error) {
	total, err := s.repo.Count()
	if err != nil {
		return nil, err
	}
	scanned, err := s.repo.CountScanned()
	if err != nil {
		return nil, err
	}
	events, err := s.repo.SumScanCount()
	if err != nil {
		return nil, err
	}
	return &TokenStats{
		Total:      total,
		Scanned:    scanned,
		Unscanned:  total - scanned,
		ScanEvents: events,
	}, nil
}

func (s *VerifyService) reload(token string) (*models.ProductToken, error) {
	fresh, err := s.repo.GetByToken(token)
	if err != nil {
		return nil, fmt.Errorf("reload token failed: %w", err)
	}
	if fresh == nil {
		return nil, fmt.Errorf("reload token %s: %w", token, ErrTokenMissing)
	}
	return fresh, nil
}
