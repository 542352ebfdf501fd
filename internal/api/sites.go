package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

// ListSites lists all sites.
func (h *Handler) ListSites(c *gin.Context) {
	topo, ok := h.snapshot(c)
	if !ok {
		return
	}

	sites := topology.MapSites(topo, func(s topology.SiteRef) (SiteResponse, bool) {
		return siteResponse(s), true
	})
	c.JSON(http.StatusOK, SiteListResponse{Sites: sites, Count: len(sites)})
}

// GetSite returns one site by inventory id.
func (h *Handler) GetSite(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	topo, ok := h.snapshot(c)
	if !ok {
		return
	}
	site, ok := topo.SiteByID(id)
	if !ok {
		notFound(c, "site", id)
		return
	}
	c.JSON(http.StatusOK, siteResponse(site))
}

// ListLocations lists all locations.
func (h *Handler) ListLocations(c *gin.Context) {
	topo, ok := h.snapshot(c)
	if !ok {
		return
	}

	locs := topology.MapLocations(topo, func(l topology.LocationRef) (LocationResponse, bool) {
		return locationResponse(l), true
	})
	c.JSON(http.StatusOK, LocationListResponse{Locations: locs, Count: len(locs)})
}

// GetLocation returns one location by inventory id.
func (h *Handler) GetLocation(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	topo, ok := h.snapshot(c)
	if !ok {
		return
	}
	loc, ok := topo.LocationByID(id)
	if !ok {
		notFound(c, "location", id)
		return
	}
	c.JSON(http.StatusOK, locationResponse(loc))
}
