package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"galleria/internal/database"
	"galleria/internal/utils"
)

type CommonHandler struct {
	db    database.Service
	redis redis.Cmdable
}

// NewCommonHandler builds the health and hello handlers. redisClient may be nil.
func NewCommonHandler(db database.Service, redisClient redis.Cmdable) *CommonHandler {
	return &CommonHandler{db: db, redis: redisClient}
}

func (h *CommonHandler) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (h *CommonHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	stats := h.db.Health()
	code := http.StatusOK
	if stats["message"] != "It's healthy" {
		code = http.StatusServiceUnavailable
	}

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx).Err(); err != nil {
			log.Error().Err(err).Msg("Redis health check failed")
			stats["redis"] = "down"
			code = http.StatusServiceUnavailable
		} else {
			stats["redis"] = "up"
		}
	}

	utils.RespondWithJSON(w, code, stats)
}
