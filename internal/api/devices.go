package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kneutral-org/inventory-dashboard/internal/filter"
	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

// ListDevices lists devices, optionally narrowed by a CEL filter in ?filter=.
func (h *Handler) ListDevices(c *gin.Context) {
	topo, ok := h.snapshot(c)
	if !ok {
		return
	}

	expression := c.Query("filter")
	devices, err := h.filters.Select(topo, expression)
	if err != nil {
		status := http.StatusBadRequest
		code := "invalid_filter"
		if errors.Is(err, filter.ErrEvaluationFailed) {
			status = http.StatusUnprocessableEntity
			code = "filter_failed"
		}
		h.log(c).Debug().Err(err).Str("filter", expression).Msg("device filter rejected")
		c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
		return
	}

	resp := DeviceListResponse{
		Devices: make([]DeviceResponse, 0, len(devices)),
		Count:   len(devices),
		Filter:  expression,
	}
	for _, d := range devices {
		resp.Devices = append(resp.Devices, deviceResponse(d))
	}
	c.JSON(http.StatusOK, resp)
}

// ValidateFilter compiles ?filter= without evaluating it against the topology.
func (h *Handler) ValidateFilter(c *gin.Context) {
	expression := c.Query("filter")
	if err := h.filters.Validate(expression); err != nil {
		h.log(c).Debug().Err(err).Str("filter", expression).Msg("filter validation failed")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_filter", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, FilterValidationResponse{Filter: expression, Valid: true})
}

// GetDevice returns one device by inventory id.
func (h *Handler) GetDevice(c *gin.Context) {
	dev, ok := h.device(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, deviceResponse(dev))
}

// ListDevicePorts returns the ports of a device with their cable runs.
func (h *Handler) ListDevicePorts(c *gin.Context) {
	dev, ok := h.device(c)
	if !ok {
		return
	}

	ports := dev.Ports()
	resp := PortListResponse{
		Device: EntityRef{ID: dev.ID(), Name: dev.Name()},
		Ports:  make([]PortResponse, 0, len(ports)),
	}
	for _, p := range ports {
		resp.Ports = append(resp.Ports, portResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) device(c *gin.Context) (topology.DeviceRef, bool) {
	id, ok := idParam(c)
	if !ok {
		return topology.DeviceRef{}, false
	}
	topo, ok := h.snapshot(c)
	if !ok {
		return topology.DeviceRef{}, false
	}
	dev, ok := topo.DeviceByID(id)
	if !ok {
		notFound(c, "device", id)
		return topology.DeviceRef{}, false
	}
	return dev, true
}

// ListDeviceTypes lists all device models.
func (h *Handler) ListDeviceTypes(c *gin.Context) {
	topo, ok := h.snapshot(c)
	if !ok {
		return
	}

	types := topo.DeviceTypes()
	resp := DeviceTypeListResponse{
		DeviceTypes: make([]DeviceTypeResponse, 0, len(types)),
		Count:       len(types),
	}
	for _, t := range types {
		resp.DeviceTypes = append(resp.DeviceTypes, deviceTypeResponse(t))
	}
	c.JSON(http.StatusOK, resp)
}

// GetDeviceType returns one device model by inventory id.
func (h *Handler) GetDeviceType(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	topo, ok := h.snapshot(c)
	if !ok {
		return
	}
	t, ok := topo.DeviceTypeByID(id)
	if !ok {
		notFound(c, "device type", id)
		return
	}
	c.JSON(http.StatusOK, deviceTypeResponse(t))
}
