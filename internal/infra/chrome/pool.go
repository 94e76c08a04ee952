package chrome

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"labops/internal/config"
	"labops/internal/infra/logging"
)

// Pool shares one headless-chrome browser between a bounded number of tabs.
// Acquire hands out tokens; every token maps to one live tab at a time.
type Pool struct {
	sem chan struct{}
	cfg config.Config

	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc

	profileDir  string
	closed      bool
	restarts    int
	lastRestart time.Time
}

// Tab is a chromedp context bound to the pooled browser.
type Tab struct {
	Ctx    context.Context
	cancel context.CancelFunc
}

// Stats is a point-in-time snapshot for the /v1/chrome/stats endpoint.
type Stats struct {
	Enabled      bool
	Capacity     int
	Idle         int
	InUse        int
	PoolSizeConf int
	ProfileDir   string
	TimeoutSecs  int
	Restarts     int
	LastRestart  string
}

// NewPool starts an allocator for a chrome pool of cfg.PDF.ChromePoolSize
// tabs. The browser itself launches lazily on the first render.
func NewPool(cfg config.Config) (*Pool, error) {
	size := cfg.PDF.ChromePoolSize
	if size <= 0 {
		return nil, errors.New("chrome pool disabled: pool size must be positive")
	}

	profileDir, err := createProfileDir(cfg)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		sem:        make(chan struct{}, size),
		cfg:        cfg,
		profileDir: profileDir,
	}
	for i := 0; i < size; i++ {
		p.sem <- struct{}{}
	}
	p.startBrowser()
	return p, nil
}

func (p *Pool) startBrowser() {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(p.cfg.PDF, p.profileDir)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	p.browserCtx = browserCtx
	p.browserCancel = browserCancel
	p.allocCancel = allocCancel
}

func (p *Pool) stopBrowser() {
	if p.browserCancel != nil {
		p.browserCancel()
		p.browserCancel = nil
	}
	if p.allocCancel != nil {
		p.allocCancel()
		p.allocCancel = nil
	}
}

// Acquire takes a pool token and opens a tab context. It honors ctx
// cancellation while waiting for capacity.
func (p *Pool) Acquire(ctx context.Context) (*Tab, error) {
	if p.closed {
		return nil, errors.New("chrome pool is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.sem:
		tabCtx, cancel := chromedp.NewContext(p.browserCtx)
		return &Tab{Ctx: tabCtx, cancel: cancel}, nil
	}
}

// Release closes the tab and returns its token. The render error, if any, is
// only logged here; restarting on session loss is the caller's call.
func (p *Pool) Release(tab *Tab, err error) {
	if tab != nil && tab.cancel != nil {
		tab.cancel()
	}
	if err != nil && IsSessionInterrupted(err) {
		logging.Warn("Released interrupted chrome tab", "error", err.Error())
	}
	select {
	case p.sem <- struct{}{}:
	default:
	}
}

// Restart replaces the browser and its profile directory. In-flight tabs die
// with the old browser context.
func (p *Pool) Restart() error {
	if p.closed {
		return errors.New("chrome pool is closed")
	}

	p.stopBrowser()

	oldDir := p.profileDir
	dir, err := createProfileDir(p.cfg)
	if err != nil {
		return err
	}
	p.profileDir = dir
	if oldDir != "" {
		_ = os.RemoveAll(oldDir)
	}

	p.startBrowser()
	p.restarts++
	p.lastRestart = time.Now()
	logging.Warn("Chrome pool restarted", "restarts", p.restarts, "profile_dir", p.profileDir)
	return nil
}

// Close shuts the pool down. Safe to call more than once.
func (p *Pool) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.stopBrowser()
	if p.profileDir != "" {
		_ = os.RemoveAll(p.profileDir)
	}
}

// Stats reports capacity and usage. timeoutSecs is echoed so the stats
// endpoint shows the render budget alongside the pool state.
func (p *Pool) Stats(timeoutSecs int) Stats {
	s := Stats{
		Enabled:      !p.closed && p.sem != nil,
		PoolSizeConf: p.cfg.PDF.ChromePoolSize,
		ProfileDir:   p.profileDir,
		TimeoutSecs:  timeoutSecs,
		Restarts:     p.restarts,
	}
	if p.sem != nil {
		s.Capacity = cap(p.sem)
		s.Idle = len(p.sem)
		s.InUse = s.Capacity - s.Idle
	}
	if !p.lastRestart.IsZero() {
		s.LastRestart = p.lastRestart.Format(time.RFC3339)
	}
	return s
}

// createProfileDir makes a fresh chrome user-data dir under the configured
// base, defaulting to the system temp dir.
func createProfileDir(cfg config.Config) (string, error) {
	base := cfg.PDF.UserDataDir
	if base == "" {
		base = filepath.Join(os.TempDir(), "labops-chrome")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return os.MkdirTemp(base, "profile-*")
}

// IsSessionInterrupted reports whether err means the chrome session died
// under us rather than the page failing to render.
func IsSessionInterrupted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "target closed")
}
