package endpoint

import (
	"fmt"

	"github.com/ariebrainware/measurement-gateway/util"
	"github.com/gin-gonic/gin"
)

type RemoveDeviceRequest struct {
	ID ID `json:"id" binding:"required" swaggertype:"integer" example:"3"`
}

// RegisterDevice godoc
// @Summary      Register a device
// @Description  Bind a measuring device to the calling patient. The body is the device description; numeroSerie and categoria are required.
// @Tags         Device
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body map[string]string true "Device description"
// @Success      200 {object} util.APIResponse "Device registered"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Caller is not a patient"
// @Failure      403 {object} util.APIResponse "Device registration rejected"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /dispositivo/registra [post]
func (h *MeasurementHandler) RegisterDevice(c *gin.Context) {
	user, ok := h.principalPatientOrRespond(c)
	if !ok {
		return
	}

	var body map[string]interface{}
	if !bindJSONOrRespond(c, &body, "Invalid request payload") {
		return
	}

	description := make(map[string]string, len(body))
	for k, v := range body {
		if v == nil {
			continue
		}
		if s, isString := v.(string); isString {
			description[k] = s
			continue
		}
		description[k] = fmt.Sprint(v)
	}

	registered, err := h.Measurements.RegisterDevice(c.Request.Context(), description, user.ID)
	if err != nil {
		h.respondError(c, "Failed to register device", err)
		return
	}
	if !registered {
		util.CallForbidden(c, util.APIErrorParams{
			Msg: "Device registration rejected",
			Err: fmt.Errorf("device cannot be registered"),
		})
		return
	}

	ci := clientOf(c)
	util.LogDeviceRegistered(user.ID, user.Email, ci.IP, description["numeroSerie"])
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Device registered"})
}

// RemoveDevice godoc
// @Summary      Remove a device
// @Description  Unbind a device from the calling patient. A removed device cannot take measurements until registered again.
// @Tags         Device
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body RemoveDeviceRequest true "Device id"
// @Success      200 {object} util.APIResponse "Device removed"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Caller is not a patient"
// @Failure      403 {object} util.APIResponse "Device not bound to the caller"
// @Failure      404 {object} util.APIResponse "Device not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /rimuoviDispositivo [post]
func (h *MeasurementHandler) RemoveDevice(c *gin.Context) {
	user, ok := h.principalPatientOrRespond(c)
	if !ok {
		return
	}

	var req RemoveDeviceRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	if err := h.Measurements.RemoveDevice(c.Request.Context(), uint(req.ID), user.ID); err != nil {
		h.respondError(c, "Failed to remove device", err)
		return
	}

	util.LogDeviceRemoved(user.ID, user.Email, c.ClientIP(), uint(req.ID))
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Device removed"})
}
