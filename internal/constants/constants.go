package constants

// 服务标识（健康检查响应中使用）
const ServiceName = "prepmood-auth"

// 验证结果常量
const (
	VerifyOutcomeUnknown   = "unknown"
	VerifyOutcomeFirstScan = "first_scan"
	VerifyOutcomeRescan    = "rescan"
)

// 令牌状态常量（status 列为派生布尔值，scan_count 为唯一权威计数）
const (
	TokenStatusUnscanned = 0
	TokenStatusScanned   = 1
)

// 验证页面时间展示格式（与原始二维码页面保持一致）
const VerifiedAtDisplayLayout = "2006-01-02 15:04:05"
