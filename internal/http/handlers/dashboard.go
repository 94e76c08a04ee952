package handlers

import (
	_ "embed"

	"github.com/flosch/pongo2/v6"
	"github.com/gofiber/fiber/v2"

	"labops/internal/config"
	"labops/internal/dashboard"
	"labops/internal/domain"
	"labops/internal/infra/logging"
)

//go:embed templates/dashboard.html
var dashboardShell string

var dashboardTemplate = pongo2.Must(pongo2.FromString(dashboardShell))

// Dashboard serves the HTML shell of the finance dashboard. Each request
// gets a fresh page session: configured once from the service settings,
// optionally overridden by ?layout=, then rendered.
func Dashboard(cfg config.Dashboard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := dashboard.FromConfig(cfg)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if raw := c.Query("layout"); raw != "" {
			layout, err := dashboard.ParseLayout(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			page.Layout = layout
		}

		sess := dashboard.NewSession()
		if err := sess.Configure(page); err != nil {
			return fiber.NewError(domain.HTTPStatus(err), err.Error())
		}
		rendered, err := sess.BeginRender()
		if err != nil {
			return fiber.NewError(domain.HTTPStatus(err), err.Error())
		}

		html, err := dashboardTemplate.Execute(pongo2.Context{
			"title":             rendered.Title,
			"icon":              rendered.Icon,
			"layout":            string(rendered.Layout),
			"sidebar_collapsed": rendered.SidebarCollapsed,
		})
		if err != nil {
			logging.Error("Dashboard render failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Dashboard render failed")
		}

		c.Set("Content-Type", fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(html)
	}
}
