package models

import (
	"time"
)

// ProductToken 正品验证令牌表：一行对应一个实物产品上的二维码令牌。
// token 为主键且创建后不可变；first_verified_at 仅在首次验证时写入一次，
// scan_count 为唯一权威扫描计数，status 只是它的派生布尔值（0/1）。
type ProductToken struct {
	Token           string     `gorm:"primarykey;type:varchar(64)" json:"token"`         // 二维码令牌
	InternalCode    string     `gorm:"not null;index" json:"internal_code"`              // 内部批次/SKU编码
	ProductName     string     `gorm:"not null" json:"product_name"`                     // 产品展示名称
	Status          int        `gorm:"not null;default:0" json:"status"`                 // 0=未验证 1=已验证
	ScanCount       int        `gorm:"not null;default:0" json:"scan_count"`             // 累计扫描次数
	FirstVerifiedAt *time.Time `json:"first_verified_at"`                                // 首次验证时间（写入一次后不再变更）
	LastVerifiedAt  *time.Time `json:"last_verified_at"`                                 // 最近验证时间
	CreatedAt       time.Time  `json:"created_at"`                                       // 创建时间
	UpdatedAt       time.Time  `json:"updated_at"`                                       // 更新时间
}

// TableName 指定表名（与原始 prep.db 的 products 表保持一致）
func (ProductToken) TableName() string {
	return "products"
}

// Verified 是否已被验证过
func (t *ProductToken) Verified() bool {
	return t != nil && t.ScanCount > 0
}
