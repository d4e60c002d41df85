package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/response"
	"github.com/lidtrainer/examcore/internal/service"
	"github.com/rs/zerolog"
)

// MaintenanceHandler exposes operational checks and repairs.
type MaintenanceHandler struct {
	maintenanceService *service.MaintenanceService
	aliases            *composition.AliasResolver
	log                zerolog.Logger
}

// NewMaintenanceHandler creates a new MaintenanceHandler.
func NewMaintenanceHandler(maintenanceService *service.MaintenanceService, aliases *composition.AliasResolver, log zerolog.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		maintenanceService: maintenanceService,
		aliases:            aliases,
		log:                log.With().Str("component", "maintenance_handler").Logger(),
	}
}

// RepairSnapshots godoc
// POST /api/v1/maintenance/repair-snapshots
func (h *MaintenanceHandler) RepairSnapshots(c *gin.Context) {
	res, err := h.maintenanceService.RepairSnapshots(c.Request.Context())
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// CheckReadiness godoc
// GET /api/v1/maintenance/readiness
// Re-validates every exam.
func (h *MaintenanceHandler) CheckReadiness(c *gin.Context) {
	summary, err := h.maintenanceService.CheckAll(c.Request.Context())
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}

// ListProviders godoc
// GET /api/v1/providers
// Lists the provider alias groups.
func (h *MaintenanceHandler) ListProviders(c *gin.Context) {
	groups := h.aliases.Groups()
	out := make([]gin.H, 0, len(groups))
	for _, g := range groups {
		out = append(out, gin.H{"canonical": g[0], "aliases": g})
	}

	response.Success(c, http.StatusOK, gin.H{"providers": out})
}
