package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"labops/internal/config"
	"labops/internal/infra/chrome"
	"labops/internal/infra/logging"
	"labops/internal/report"
)

// CloseService produces the maandafsluiting report in the requested
// format. PDF output renders through the shared chrome pool and is
// cached in redis per period.
type CloseService struct {
	cfg     config.Config
	finance report.Finance
	rdb     *redis.Client

	poolMu  sync.Mutex
	pool    *chrome.Pool
	poolErr error
}

func NewCloseService(cfg config.Config, fin report.Finance, rdb *redis.Client) *CloseService {
	return &CloseService{
		cfg:     cfg,
		finance: fin,
		rdb:     rdb,
	}
}

func (svc *CloseService) getChromePool() (*chrome.Pool, error) {
	svc.poolMu.Lock()
	defer svc.poolMu.Unlock()

	if svc.cfg.PDF.ChromePoolSize <= 0 {
		return nil, nil
	}
	if svc.pool != nil {
		return svc.pool, nil
	}
	pool, err := chrome.NewPool(svc.cfg)
	if err != nil {
		svc.poolErr = err
		return nil, err
	}
	svc.pool = pool
	return svc.pool, nil
}

// HandleReport builds the close report for ?period=YYYY-MM and writes it
// in the requested format. Scope enforcement happens in the middleware;
// this handler only checks the optional close password.
func (svc *CloseService) HandleReport(c *fiber.Ctx) error {
	if svc.finance == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Odoo backend not configured")
	}

	raw := c.FormValue("period")
	if raw == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing period: want YYYY-MM")
	}
	period, err := report.ParsePeriod(raw)
	if err != nil {
		return httpError(err)
	}
	format, err := report.ParseFormat(c.FormValue("format"))
	if err != nil {
		return httpError(err)
	}
	if svc.cfg.Close.Password != "" && c.FormValue("password") != svc.cfg.Close.Password {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid close password")
	}

	filename := report.Filename(period, format)

	// A PDF render is the expensive path; serve the cached document when
	// the period was rendered recently.
	cacheKey := reportCacheKey(period)
	if format == report.FormatPDF && svc.cacheEnabled() {
		if cached := getCachedReport(c, svc.rdb, cacheKey); cached != nil {
			return sendReport(c, format, filename, cached)
		}
	}

	rep, err := report.Build(c.Context(), svc.finance, period)
	if err != nil {
		return httpError(err)
	}

	var buf bytes.Buffer
	switch format {
	case report.FormatCSV:
		err = rep.WriteCSV(&buf)
	case report.FormatJSON:
		err = rep.WriteJSON(&buf)
	case report.FormatXLSX:
		err = rep.WriteXLSX(&buf)
	case report.FormatPDF:
		var data []byte
		data, err = svc.reportPDF(rep)
		if err == nil {
			buf.Write(data)
		}
	}
	if err != nil {
		return svc.renderError(format, err)
	}

	if format == report.FormatPDF {
		if buf.Len() > svc.cfg.Limits.MaxPDFBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "PDF exceeds allowed size")
		}
		if svc.cacheEnabled() {
			setCachedReport(c, svc.rdb, cacheKey, buf.Bytes(), svc.cfg.Cache.ReportTTL)
		}
	}

	requestID := c.Get("X-Request-ID")
	logging.Info("Close report generated", "period", period.String(), "format", string(format), "request_id", requestID)

	return sendReport(c, format, filename, buf.Bytes())
}

func sendReport(c *fiber.Ctx, format report.Format, filename string, data []byte) error {
	c.Set("Content-Type", format.ContentType())
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// renderError maps a failed report generation onto the response status.
// Chrome timeouts answer 408, interrupted sessions 503, the rest 500.
func (svc *CloseService) renderError(format report.Format, err error) error {
	if format != report.FormatPDF {
		return httpError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		logging.Error("Report rendering timeout", "timeout_secs", svc.cfg.PDF.TimeoutSecs, "error", err.Error())
		return fiber.NewError(fiber.StatusRequestTimeout, "Report rendering took too long")
	}
	if chrome.IsSessionInterrupted(err) {
		logging.Error("Chrome session interrupted", "error", err.Error())
		return fiber.NewError(fiber.StatusServiceUnavailable, "Chrome session interrupted")
	}
	logging.Error("Report rendering failed", "error", err.Error())
	return fiber.NewError(fiber.StatusInternalServerError, "Report rendering failed: "+err.Error())
}

func (svc *CloseService) cacheEnabled() bool {
	return svc.rdb != nil && svc.cfg.Cache.Enabled
}

// reportPDF styles the report and renders it, on a pooled tab when the
// pool is enabled, otherwise in a throwaway chrome instance.
func (svc *CloseService) reportPDF(rep *report.CloseReport) ([]byte, error) {
	html, opts, err := report.PDFDocument(rep, svc.cfg.PDF)
	if err != nil {
		return nil, err
	}

	pool, err := svc.getChromePool()
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return chrome.RenderPDF(context.Background(), svc.cfg.PDF, html, opts)
	}

	timeout := time.Duration(svc.cfg.PDF.TimeoutSecs) * time.Second

	runOnce := func() ([]byte, error) {
		acquireCtx, acquireCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer acquireCancel()

		tab, err := pool.Acquire(acquireCtx)
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(tab.Ctx, timeout)
		data, renderErr := chrome.RenderHTML(ctx, html, opts)
		cancel()

		pool.Release(tab, renderErr)
		return data, renderErr
	}

	data, renderErr := runOnce()
	if renderErr != nil && chrome.IsSessionInterrupted(renderErr) {
		logging.Warn("Chrome session interrupted; restarting pool and retrying once", "error", renderErr)
		_ = pool.Restart()
		return runOnce()
	}
	return data, renderErr
}

// reportCacheKey derives the redis key for a rendered period. The report
// content is not part of the key: within the TTL the same period serves
// the same document.
func reportCacheKey(p report.Period) string {
	sum := sha256.Sum256([]byte("close|" + p.String()))
	return "reportcache:" + hex.EncodeToString(sum[:])
}

// getCachedReport attempts to retrieve a rendered report from redis.
func getCachedReport(c *fiber.Ctx, rdb *redis.Client, key string) []byte {
	ctxRedis, cancel := context.WithTimeout(c.Context(), 1*time.Second)
	defer cancel()

	cached, err := rdb.Get(ctxRedis, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		logging.Warn("Redis read failed", "error", err)
		return nil
	}

	logging.Info("Report cache hit", "key", key)
	return cached
}

// setCachedReport stores a rendered report in redis.
func setCachedReport(c *fiber.Ctx, rdb *redis.Client, key string, data []byte, ttl time.Duration) {
	ctxRedis, cancel := context.WithTimeout(c.Context(), 1*time.Second)
	defer cancel()

	if ttl <= 0 {
		ttl = 1 * time.Minute
	}

	if err := rdb.Set(ctxRedis, key, data, ttl).Err(); err != nil {
		logging.Warn("Redis write failed", "error", err)
	}
}

// HandleChromeStats exposes basic observability for the chrome pool.
func (svc *CloseService) HandleChromeStats(c *fiber.Ctx) error {
	pool, err := svc.getChromePool()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Chrome pool init failed: "+err.Error())
	}

	// Pool disabled.
	if pool == nil {
		return c.JSON(fiber.Map{
			"enabled":        false,
			"capacity":       0,
			"idle":           0,
			"in_use":         0,
			"pool_size_conf": svc.cfg.PDF.ChromePoolSize,
			"profile_dir":    "",
			"timeout_secs":   svc.cfg.PDF.TimeoutSecs,
			"restarts":       0,
		})
	}

	s := pool.Stats(svc.cfg.PDF.TimeoutSecs)
	return c.JSON(fiber.Map{
		"enabled":        s.Enabled,
		"capacity":       s.Capacity,
		"idle":           s.Idle,
		"in_use":         s.InUse,
		"pool_size_conf": s.PoolSizeConf,
		"profile_dir":    s.ProfileDir,
		"timeout_secs":   svc.cfg.PDF.TimeoutSecs,
		"restarts":       s.Restarts,
		"last_restart":   s.LastRestart,
	})
}
