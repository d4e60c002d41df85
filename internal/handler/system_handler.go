package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lidtrainer/examcore/internal/config"
	"github.com/lidtrainer/examcore/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const healthTimeout = 2 * time.Second

// SystemHandler reports process and dependency health.
type SystemHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		pool:      pool,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthStatus struct {
	Status          string `json:"status"`
	Postgres        string `json:"postgres"`
	Redis           string `json:"redis"`
	Uptime          string `json:"uptime"`
	Goroutines      int    `json:"goroutines"`
	GoVersion       string `json:"go_version"`
	QueueRevalidate int64  `json:"queue_revalidate"`
}

// Health godoc
// GET /health
// Pings PostgreSQL and Redis. Responds 503 when either is down.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	st := healthStatus{
		Status:     "ok",
		Postgres:   "ok",
		Redis:      "ok",
		Uptime:     time.Since(h.startTime).Truncate(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		GoVersion:  runtime.Version(),
	}

	if err := h.pool.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("PostgreSQL health check failed")
		st.Status, st.Postgres = "degraded", "down"
	}
	n, err := h.rdb.LLen(ctx, config.WorkerKey.RevalidateExamsQueue).Result()
	if err != nil {
		h.log.Warn().Err(err).Msg("Redis health check failed")
		st.Status, st.Redis = "degraded", "down"
	}
	st.QueueRevalidate = n

	code := http.StatusOK
	if st.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, st)
}
