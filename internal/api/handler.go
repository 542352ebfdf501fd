// Package api provides the read-only HTTP query surface over the topology.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kneutral-org/inventory-dashboard/internal/filter"
	"github.com/kneutral-org/inventory-dashboard/internal/logging"
	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

// Snapshots serves the current topology. *topology.Cache implements it.
type Snapshots interface {
	Get(ctx context.Context) (*topology.Topology, error)
	Peek() (*topology.Topology, time.Time, bool)
	Invalidate()
	TTL() time.Duration
}

// Settings are the OAuth coordinates handed to the frontend.
type Settings struct {
	ClientID string `json:"clientId"`
	TokenURL string `json:"tokenUrl"`
	AuthURL  string `json:"authUrl"`
}

// Handler handles the topology query endpoints.
type Handler struct {
	snapshots Snapshots
	filters   *filter.Evaluator
	settings  Settings
	logger    zerolog.Logger
}

// NewHandler creates a new API handler with the provided dependencies.
func NewHandler(snapshots Snapshots, filters *filter.Evaluator, settings Settings, logger zerolog.Logger) *Handler {
	return &Handler{
		snapshots: snapshots,
		filters:   filters,
		settings:  settings,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// RegisterRoutes registers all query routes on the provided router group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/devices", h.ListDevices)
	router.GET("/devices/:id", h.GetDevice)
	router.GET("/devices/:id/ports", h.ListDevicePorts)

	router.GET("/sites", h.ListSites)
	router.GET("/sites/:id", h.GetSite)

	router.GET("/locations", h.ListLocations)
	router.GET("/locations/:id", h.GetLocation)

	router.GET("/device-types", h.ListDeviceTypes)
	router.GET("/device-types/:id", h.GetDeviceType)

	router.GET("/filters/validate", h.ValidateFilter)

	router.GET("/topology", h.GetTopology)
	router.POST("/topology/refresh", h.RefreshTopology)

	router.GET("/settings", h.GetSettings)
}

// log returns the request scoped logger set up by the request id middleware,
// falling back to the handler logger outside of it.
func (h *Handler) log(c *gin.Context) *zerolog.Logger {
	l := logging.LoggerFromContext(c.Request.Context())
	if l.GetLevel() == zerolog.Disabled {
		return &h.logger
	}
	l = l.With().Str("component", "api").Logger()
	return &l
}

// snapshot fetches the current topology, writing a 503 response on failure.
func (h *Handler) snapshot(c *gin.Context) (*topology.Topology, bool) {
	topo, err := h.snapshots.Get(c.Request.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.AbortWithStatus(499)
			return nil, false
		}
		h.log(c).Error().Err(err).Msg("topology unavailable")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "topology_unavailable",
			Message: err.Error(),
		})
		return nil, false
	}
	return topo, true
}

// idParam parses the :id path parameter, writing a 400 response on failure.
func idParam(c *gin.Context) (uint32, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "id must be an unsigned 32-bit integer",
		})
		return 0, false
	}
	return uint32(id), true
}

func notFound(c *gin.Context, kind string, id uint32) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: kind + " " + strconv.FormatUint(uint64(id), 10) + " not found",
	})
}

// GetSettings returns the authentication settings for the frontend.
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings)
}
