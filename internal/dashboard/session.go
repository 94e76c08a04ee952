// Package dashboard holds the per-session page state of the labdash UI.
// A Session is configured exactly once, before anything is rendered into
// it; later reconfiguration attempts fail and leave the first
// configuration in effect.
package dashboard

import (
	"fmt"
	"sync"

	"labops/internal/config"
	"labops/internal/domain"
)

// Layout selects how the page body is laid out.
type Layout string

const (
	LayoutCentered Layout = "centered"
	LayoutWide     Layout = "wide"
)

// ParseLayout validates a layout name coming from config or a request.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case LayoutCentered, LayoutWide:
		return Layout(s), nil
	default:
		return "", domain.E(domain.KindValidation, "dashboard.ParseLayout",
			fmt.Sprintf("layout must be %q or %q, got %q", LayoutCentered, LayoutWide, s), nil)
	}
}

// PageConfig is the page chrome a session renders with.
type PageConfig struct {
	Title            string
	Icon             string
	Layout           Layout
	SidebarCollapsed bool
}

// FromConfig builds a PageConfig from the service configuration.
func FromConfig(d config.Dashboard) (PageConfig, error) {
	layout, err := ParseLayout(d.Layout)
	if err != nil {
		return PageConfig{}, err
	}
	return PageConfig{
		Title:            d.Title,
		Icon:             d.Icon,
		Layout:           layout,
		SidebarCollapsed: d.SidebarCollapsed,
	}, nil
}

// Session tracks the configure-then-render lifecycle of one dashboard
// page. It is safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	cfg        PageConfig
	configured bool
	rendered   bool
}

func NewSession() *Session {
	return &Session{}
}

// Configure stores the page configuration. It fails once rendering has
// started, and on any call after the first; the stored configuration is
// never replaced. An invalid layout is rejected without changing state.
func (s *Session) Configure(cfg PageConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rendered {
		return domain.E(domain.KindConfig, "dashboard.Configure",
			"page cannot be configured after rendering has started", nil)
	}
	if s.configured {
		return domain.E(domain.KindConfig, "dashboard.Configure",
			"page is already configured", nil)
	}
	if _, err := ParseLayout(string(cfg.Layout)); err != nil {
		return err
	}

	s.cfg = cfg
	s.configured = true
	return nil
}

// BeginRender marks the session as rendering and returns the
// configuration to render with. It fails when Configure was never
// called.
func (s *Session) BeginRender() (PageConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.configured {
		return PageConfig{}, domain.E(domain.KindConfig, "dashboard.BeginRender",
			"page must be configured before rendering", nil)
	}
	s.rendered = true
	return s.cfg, nil
}

// Config returns the stored configuration and whether Configure has been
// called.
func (s *Session) Config() (PageConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.configured
}

// Rendered reports whether rendering has started.
func (s *Session) Rendered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendered
}
