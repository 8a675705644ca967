package fibersrv

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/marcodd23/go-stmt-cache/pkg/dbx"
	"github.com/marcodd23/go-stmt-cache/pkg/stmtcache"
)

const (
	MetricsPath = "/metrics"
	StatsPath   = "/stmtcache/stats"
)

// ConnStats - statement cache counters of one connection, as served on StatsPath.
type ConnStats struct {
	Conn  string          `json:"conn"`
	Stats stmtcache.Stats `json:"stats"`
}

// RegisterDiagnostics mounts the statement cache diagnostics on app.
//
// metricsHandler is served on MetricsPath when not nil, typically metrics.PrometheusRecorder.Handler().
// StatsPath lists the cache counters of conns, in the given order.
func RegisterDiagnostics(app *fiber.App, metricsHandler http.Handler, conns ...dbx.Conn) {
	if metricsHandler != nil {
		app.Get(MetricsPath, adaptor.HTTPHandler(metricsHandler))
	}

	app.Get(StatsPath, func(c *fiber.Ctx) error {
		stats := make([]ConnStats, 0, len(conns))
		for _, conn := range conns {
			stats = append(stats, ConnStats{Conn: conn.ID(), Stats: conn.StatementCacheStats()})
		}
		return c.Status(fiber.StatusOK).JSON(stats)
	})
}
