// Command sqlload runs the loader behind a thin ops HTTP surface: health,
// Prometheus metrics, and ingest endpoints for the row-source collaborator.
package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/uniqsoft/sqlload"
	"github.com/uniqsoft/sqlload/monitoring"
)

// ingestRequest is the wire shape of a staged row set: explicit column order
// plus one map per row, since JSON objects do not preserve key order.
type ingestRequest struct {
	Columns []string         `json:"columns" binding:"required"`
	Rows    []map[string]any `json:"rows" binding:"required"`
}

func (r *ingestRequest) records() []*sqlload.Record {
	out := make([]*sqlload.Record, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, sqlload.RecordFromMap(r.Columns, row))
	}
	return out
}

func main() {
	_ = godotenv.Load()
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := sqlload.LoadConfigFromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)

	loader, err := sqlload.NewLoader(db, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build loader")
	}
	reporter := monitoring.NewPrometheusReporter()
	loader.WithMetricsReporter(reporter)

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "tables": loader.Catalog.Tables()})
	})

	router.GET("/metrics", gin.WrapH(reporter.Handler()))

	router.POST("/reload", func(c *gin.Context) {
		if err := loader.Catalog.Reload(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tables": loader.Catalog.Tables()})
	})

	router.POST("/load/:table", func(c *gin.Context) {
		var req ingestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := loader.InsertAll(c.Request.Context(), c.Param("table"), req.records()); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rows": len(req.Rows)})
	})

	router.POST("/bulk/:procedure", func(c *gin.Context) {
		var req ingestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if ok := loader.RunBulkLoad(c.Request.Context(), c.Param("procedure"), req.records()); !ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"loaded": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"loaded": true, "rows": len(req.Rows)})
	})

	addr := os.Getenv("SQLLOAD_LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	logger.Info().Str("addr", addr).Msg("sqlload listening")
	if err := router.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
