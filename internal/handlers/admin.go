package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/craftid/internal/store"
	apperrors "github.com/charlesng35/craftid/pkg/errors"
	"github.com/charlesng35/craftid/pkg/logger"
	"github.com/charlesng35/craftid/pkg/response"
)

const defaultInitTimeout = 10 * time.Second

// AdminHandler exposes operational endpoints.
type AdminHandler struct {
	store   store.Store
	timeout time.Duration
}

// NewAdminHandler constructs the admin handler. timeout bounds each schema attempt.
func NewAdminHandler(st store.Store, timeout time.Duration) *AdminHandler {
	if timeout <= 0 {
		timeout = defaultInitTimeout
	}
	return &AdminHandler{store: st, timeout: timeout}
}

// InitDB ensures store connectivity and runs the idempotent schema bootstrap.
// A failed attempt resets the store's connections and is retried once.
//
// POST /init-db
func (h *AdminHandler) InitDB(c *gin.Context) {
	ctx := requestContext(c)
	log := logger.WithModule("admin")

	err := h.ensureSchema(ctx)
	if err != nil {
		log.Warn("schema bootstrap failed, resetting store", zap.Error(err))
		if resetErr := h.store.Reset(ctx); resetErr != nil {
			log.Warn("store reset failed", zap.Error(resetErr))
		}
		err = h.ensureSchema(ctx)
	}
	if err != nil {
		response.Error(c, apperrors.ErrStoreUnavailable.WithMessage("DB init failed").WithInternal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"detail": "DB initialized (and indexes created if available)",
	})
}

func (h *AdminHandler) ensureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		return err
	}
	return h.store.EnsureSchema(ctx)
}
