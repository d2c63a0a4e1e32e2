package repository

import (
	"errors"
	"time"

	"github.com/prepmood-verify/internal/constants"
	"github.com/prepmood-verify/internal/models"

	"gorm.io/gorm"
)

// ProductTokenRepository 令牌数据访问接口。
// MarkFirstScan / MarkRescan 是仅有的两个写路径，均为单条条件 UPDATE，
// 以 RowsAffected 表达是否赢得状态迁移；调用方不得绕过它们做读改写。
type ProductTokenRepository interface {
	GetByToken(token string) (*models.ProductToken, error)
	CreateBatch(items []models.ProductToken) error
	Count() (int64, error)
	CountScanned() (int64, error)
	SumScanCount() (int64, error)
	MarkFirstScan(token string, at time.Time) (int64, error)
	MarkRescan(token string, at time.Time) (int64, error)
}

// GormProductTokenRepository GORM 实现
type GormProductTokenRepository struct {
	db *gorm.DB
}

// NewProductTokenRepository 创建令牌仓库
func NewProductTokenRepository(db *gorm.DB) *GormProductTokenRepository {
	return &GormProductTokenRepository{db: db}
}

// GetByToken 根据令牌查询记录，未命中返回 (nil, nil)
func (r *GormProductTokenRepository) GetByToken(token string) (*models.ProductToken, error) {
	if token == "" {
		return nil, nil
	}
	var record models.ProductToken
	if err := r.db.Where("token = ?", token).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// CreateBatch 批量写入令牌（仅批量导入使用，验证路径永不建行）
func (r *GormProductTokenRepository) CreateBatch(items []models.ProductToken) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// Count 统计已登记令牌总数
func (r *GormProductTokenRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.ProductToken{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountScanned 统计至少被验证过一次的令牌数
func (r *GormProductTokenRepository) CountScanned() (int64, error) {
	var count int64
	if err := r.db.Model(&models.ProductToken{}).
		Where("scan_count >= ?", 1).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumScanCount 统计全部扫描事件总数
func (r *GormProductTokenRepository) SumScanCount() (int64, error) {
	var total int64
	if err := r.db.Model(&models.ProductToken{}).
		Select("COALESCE(SUM(scan_count), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// MarkFirstScan 首次验证迁移：仅当 scan_count = 0 时生效。
// 并发首扫同一令牌时，条件保证恰好一个调用方拿到 RowsAffected = 1，
// 其余调用方返回 0 并应回落到再验证语义。
func (r *GormProductTokenRepository) MarkFirstScan(token string, at time.Time) (int64, error) {
	if token == "" {
		return 0, errors.New("invalid token")
	}
	result := r.db.Model(&models.ProductToken{}).
		Where("token = ? AND scan_count = ?", token, 0).
		Updates(map[string]interface{}{
			"status":            constants.TokenStatusScanned,
			"scan_count":        1,
			"first_verified_at": at,
			"last_verified_at":  at,
			"updated_at":        at,
		})
	return result.RowsAffected, result.Error
}

// MarkRescan 再验证迁移：scan_count 原子自增，first_verified_at 不动。
func (r *GormProductTokenRepository) MarkRescan(token string, at time.Time) (int64, error) {
	if token == "" {
		return 0, errors.New("invalid token")
	}
	result := r.db.Model(&models.ProductToken{}).
		Where("token = ? AND scan_count >= ?", token, 1).
		Updates(map[string]interface{}{
			"scan_count":       gorm.Expr("scan_count + 1"),
			"last_verified_at": at,
			"updated_at":       at,
		})
	return result.RowsAffected, result.Error
}
