// Package domain contains the core business concepts shared by the gids2pdf
// exporter and the labdash service: the error taxonomy and the auth
// sentinels. Keep this package free of transport (HTTP) and infrastructure
// (Redis/Chrome/Postgres) concerns.
package domain
