package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prepmood-verify/internal/constants"
	"github.com/prepmood-verify/internal/models"
	"github.com/prepmood-verify/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	// 内存库按连接隔离，必须收敛到单连接
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.ProductToken{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func newTestRepo(t *testing.T) repository.ProductTokenRepository {
	t.Helper()
	return repository.NewProductTokenRepository(newTestDB(t))
}

func seedTokens(t *testing.T, repo repository.ProductTokenRepository, tokens ...string) {
	t.Helper()
	items := make([]models.ProductToken, 0, len(tokens))
	for _, token := range tokens {
		items = append(items, models.ProductToken{
			Token:        token,
			InternalCode: "PM-" + token,
			ProductName:  "프렙무드 세럼",
		})
	}
	if err := repo.CreateBatch(items); err != nil {
		t.Fatalf("seed tokens failed: %v", err)
	}
}

func TestVerifyUnknownTokenNoWrite(t *testing.T) {
	repo := newTestRepo(t)
	seedTokens(t, repo, "tok-known")
	svc := NewVerifyService(repo)

	result, err := svc.Verify("tok-unknown", time.Now())
	if err != nil {
		t.Fatalf("verify unknown failed: %v", err)
	}
	if result.Outcome != constants.VerifyOutcomeUnknown {
		t.Fatalf("outcome want unknown got %s", result.Outcome)
	}
	if result.Record != nil {
		t.Fatalf("unknown outcome must not carry a record")
	}

	// 未知令牌绝不落库
	total, err := repo.Count()
	if err != nil || total != 1 {
		t.Fatalf("store row count changed: want 1 got %d (err %v)", total, err)
	}
	record, err := repo.GetByToken("tok-unknown")
	if err != nil || record != nil {
		t.Fatalf("unknown token must stay absent, got (%+v, %v)", record, err)
	}
}

func TestVerifySequence(t *testing.T) {
	repo := newTestRepo(t)
	seedTokens(t, repo, "tok-seq")
	svc := NewVerifyService(repo)

	first := time.Now().UTC().Truncate(time.Second)
	result, err := svc.Verify("tok-seq", first)
	if err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	if result.Outcome != constants.VerifyOutcomeFirstScan {
		t.Fatalf("first outcome want first_scan got %s", result.Outcome)
	}
	if result.Record.ScanCount != 1 {
		t.Fatalf("scan_count want 1 got %d", result.Record.ScanCount)
	}
	if result.Record.FirstVerifiedAt == nil || result.Record.FirstVerifiedAt.Unix() != first.Unix() {
		t.Fatalf("first_verified_at want %v got %v", first, result.Record.FirstVerifiedAt)
	}

	second := first.Add(time.Hour)
	result, err = svc.Verify("tok-seq", second)
	if err != nil {
		t.Fatalf("second verify failed: %v", err)
	}
	if result.Outcome != constants.VerifyOutcomeRescan {
		t.Fatalf("second outcome want rescan got %s", result.Outcome)
	}
	if result.Record.ScanCount != 2 {
		t.Fatalf("scan_count want 2 got %d", result.Record.ScanCount)
	}
	if result.Record.FirstVerifiedAt == nil || result.Record.FirstVerifiedAt.Unix() != first.Unix() {
		t.Fatalf("first_verified_at drifted: want %v got %v", first, result.Record.FirstVerifiedAt)
	}
	if result.Record.LastVerifiedAt == nil || result.Record.LastVerifiedAt.Unix() != second.Unix() {
		t.Fatalf("last_verified_at want %v got %v", second, result.Record.LastVerifiedAt)
	}

	result, err = svc.Verify("tok-seq", second.Add(time.Hour))
	if err != nil {
		t.Fatalf("third verify failed: %v", err)
	}
	if result.Outcome != constants.VerifyOutcomeRescan || result.Record.ScanCount != 3 {
		t.Fatalf("third verify want rescan/3 got %s/%d", result.Outcome, result.Record.ScanCount)
	}
}

// 同一令牌被 K 个请求同时首扫时，恰好一个请求得到 first_scan，
// 其余全部回落到 rescan，最终 scan_count == K。
func TestVerifyConcurrentFirstScan(t *testing.T) {
	repo := newTestRepo(t)
	seedTokens(t, repo, "tok-race")
	svc := NewVerifyService(repo)

	const workers = 16
	outcomes := make(chan string, workers)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Verify("tok-race", time.Now())
			if err != nil {
				errs <- err
				return
			}
			outcomes <- result.Outcome
		}()
	}
	wg.Wait()
	close(outcomes)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent verify failed: %v", err)
	}

	var firstScans, rescans int
	for outcome := range outcomes {
		switch outcome {
		case constants.VerifyOutcomeFirstScan:
			firstScans++
		case constants.VerifyOutcomeRescan:
			rescans++
		default:
			t.Fatalf("unexpected outcome %s", outcome)
		}
	}
	if firstScans != 1 {
		t.Fatalf("first_scan count want 1 got %d", firstScans)
	}
	if rescans != workers-1 {
		t.Fatalf("rescan count want %d got %d", workers-1, rescans)
	}

	record, err := repo.GetByToken("tok-race")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if record.ScanCount != workers {
		t.Fatalf("final scan_count want %d got %d", workers, record.ScanCount)
	}
}

// vanishingTokenRepo 模拟查询后、更新前行被带外删除的库
type vanishingTokenRepo struct {
	repository.ProductTokenRepository
}

func (r *vanishingTokenRepo) MarkRescan(token string, at time.Time) (int64, error) {
	return 0, nil
}

func TestVerifyTokenRemovedBetweenReadAndUpdate(t *testing.T) {
	repo := newTestRepo(t)
	seedTokens(t, repo, "tok-ghost")
	if _, err := repo.MarkFirstScan("tok-ghost", time.Now()); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}

	svc := NewVerifyService(&vanishingTokenRepo{ProductTokenRepository: repo})
	result, err := svc.Verify("tok-ghost", time.Now())
	if !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("want ErrTokenMissing got (%+v, %v)", result, err)
	}
	if result != nil {
		t.Fatalf("consistency error must not carry a result")
	}
}

// 存储层故障必须以 error 返回，绝不能折叠成 unknown
func TestVerifyStoreFailure(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProductTokenRepository(db)
	seedTokens(t, repo, "tok-down")
	svc := NewVerifyService(repo)

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close sql db failed: %v", err)
	}

	result, err := svc.Verify("tok-down", time.Now())
	if err == nil {
		t.Fatalf("store failure must surface as error, got %+v", result)
	}
	if result != nil {
		t.Fatalf("store failure must not produce an outcome, got %+v", result)
	}
}

func TestStats(t *testing.T) {
	repo := newTestRepo(t)
	seedTokens(t, repo, "tok-a", "tok-b", "tok-c")
	svc := NewVerifyService(repo)

	now := time.Now()
	if _, err := svc.Verify("tok-a", now); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if _, err := svc.Verify("tok-a", now.Add(time.Minute)); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if _, err := svc.Verify("tok-b", now); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Scanned != 2 || stats.Unscanned != 1 || stats.ScanEvents != 3 {
		t.Fatalf("stats mismatch: %+v", stats)
	}
}
