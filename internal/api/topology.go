package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

func (h *Handler) topologyResponse(topo *topology.Topology) *TopologyResponse {
	return &TopologyResponse{
		Summary:    topo.Summary(),
		LoadedAt:   h.loadedAt(topo),
		TTLSeconds: h.snapshots.TTL().Seconds(),
	}
}

// loadedAt reports when topo entered the cache. A snapshot replaced since it
// was fetched falls back to its own build time.
func (h *Handler) loadedAt(topo *topology.Topology) time.Time {
	if current, at, ok := h.snapshots.Peek(); ok && current == topo {
		return at
	}
	return topo.BuiltAt()
}

// GetTopology reports the entity counts of the current snapshot.
func (h *Handler) GetTopology(c *gin.Context) {
	topo, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.topologyResponse(topo))
}

// RefreshTopology drops the cached snapshot. With ?wait=true the rebuild
// happens within the request and its summary is returned.
func (h *Handler) RefreshTopology(c *gin.Context) {
	h.snapshots.Invalidate()
	h.log(c).Info().Msg("topology invalidated")

	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, RefreshResponse{Message: "topology will be rebuilt on next access"})
		return
	}

	topo, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, RefreshResponse{
		Message:  "topology rebuilt",
		Topology: h.topologyResponse(topo),
	})
}
