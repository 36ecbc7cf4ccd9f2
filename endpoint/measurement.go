package endpoint

import (
	"fmt"
	"strconv"

	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/util"
	"github.com/gin-gonic/gin"
)

type StartMeasurementRequest struct {
	DeviceID ID `json:"idDispositivo" binding:"required" swaggertype:"integer" example:"3"`
}

type CategoryRequest struct {
	Category  string `json:"categoria" binding:"required" example:"pressione"`
	PatientID ID     `json:"id" binding:"required" swaggertype:"integer" example:"12"`
}

type PatientRequest struct {
	PatientID ID `json:"id" binding:"required" swaggertype:"integer" example:"12"`
}

// FullRecord godoc
// @Summary      Patient health record
// @Description  All measurements of a patient in the order they were recorded
// @Tags         Measurement
// @Produce      json
// @Security     BearerAuth
// @Param        id query int true "Patient id"
// @Success      200 {object} util.APIResponse{data=[]model.Measurement} "Measurements"
// @Failure      400 {object} util.APIResponse "Invalid patient id"
// @Failure      401 {object} util.APIResponse "Requested user is not a patient"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /FascicoloSanitarioElettronico [post]
func (h *MeasurementHandler) FullRecord(c *gin.Context) {
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil || id == 0 {
		util.CallAppError(c, "Invalid patient id", util.WrapError(util.ErrInvalidRequest, "id %q", c.Query("id")))
		return
	}

	if !h.targetPatientOrRespond(c, uint(id)) {
		return
	}

	measurements, err := h.Measurements.GetByPatient(c.Request.Context(), uint(id))
	if err != nil {
		h.respondError(c, "Failed to load measurements", err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Measurements retrieved", Data: measurements})
}

// StartMeasurement godoc
// @Summary      Start a measurement
// @Description  Trigger a reading on one of the caller's devices and store the result
// @Tags         Measurement
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body StartMeasurementRequest true "Device id"
// @Success      200 {object} util.APIResponse{data=model.Measurement} "Measurement recorded"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Caller is not a patient"
// @Failure      403 {object} util.APIResponse "Device not registered to the caller"
// @Failure      404 {object} util.APIResponse "Device not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /avvioMisurazione [post]
func (h *MeasurementHandler) StartMeasurement(c *gin.Context) {
	user, ok := h.principalPatientOrRespond(c)
	if !ok {
		return
	}

	var req StartMeasurementRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	ctx := c.Request.Context()
	dev, err := h.Measurements.GetDeviceByID(ctx, uint(req.DeviceID))
	if err != nil {
		h.respondError(c, "Failed to load device", err)
		return
	}
	if !dev.OwnedBy(user.ID) {
		util.CallAppError(c, "Device is not registered to this patient",
			util.WrapError(util.ErrDeviceNotRegistered, "device %d", dev.ID))
		return
	}

	m, err := h.Adapter.StartMeasurement(ctx, dev)
	if err != nil {
		h.respondError(c, "Failed to take measurement", err)
		return
	}
	if err := h.Measurements.Save(ctx, &m); err != nil {
		h.respondError(c, "Failed to store measurement", err)
		return
	}

	util.LogMeasurementRecorded(user.ID, user.Email, c.ClientIP(), m)
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Measurement recorded", Data: m})
}

// MeasurementsByCategory godoc
// @Summary      Measurements by category
// @Description  Measurements of a patient of one category (pressione, glicemica, saturazione)
// @Tags         Measurement
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CategoryRequest true "Category and patient id"
// @Success      200 {object} util.APIResponse{data=[]model.Measurement} "Measurements"
// @Failure      400 {object} util.APIResponse "Invalid request payload or unknown category"
// @Failure      401 {object} util.APIResponse "Requested user is not a patient"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /getMisurazioneCategoria [post]
func (h *MeasurementHandler) MeasurementsByCategory(c *gin.Context) {
	var req CategoryRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if !model.KnownCategory(req.Category) {
		util.CallAppError(c, "Unknown category", util.WrapError(util.ErrInvalidRequest, "category %q", req.Category))
		return
	}

	if !h.targetPatientOrRespond(c, uint(req.PatientID)) {
		return
	}

	measurements, err := h.Measurements.GetByCategory(c.Request.Context(), req.Category, uint(req.PatientID))
	if err != nil {
		h.respondError(c, "Failed to load measurements", err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Measurements retrieved", Data: measurements})
}

// MeasurementSummaries godoc
// @Summary      Measurement summaries
// @Description  A display projection of every measurement of a patient
// @Tags         Measurement
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PatientRequest true "Patient id"
// @Success      200 {object} util.APIResponse{data=[]model.MeasurementSummary} "Summaries"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Requested user is not a patient"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /getAllMisurazioniByPaziente [post]
func (h *MeasurementHandler) MeasurementSummaries(c *gin.Context) {
	var req PatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if !h.targetPatientOrRespond(c, uint(req.PatientID)) {
		return
	}

	summaries, err := h.Measurements.GetAllSummaries(c.Request.Context(), uint(req.PatientID))
	if err != nil {
		h.respondError(c, "Failed to load measurements", err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Measurements retrieved", Data: summaries})
}

// Categories godoc
// @Summary      Measurement categories
// @Description  Distinct categories of a patient's measurements in the order they first appear
// @Tags         Measurement
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PatientRequest true "Patient id"
// @Success      200 {object} util.APIResponse{data=[]string} "Categories"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Requested user is not a patient"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /getCategorie [post]
func (h *MeasurementHandler) Categories(c *gin.Context) {
	var req PatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if !h.targetPatientOrRespond(c, uint(req.PatientID)) {
		return
	}

	categories, err := h.Measurements.ListCategories(c.Request.Context(), uint(req.PatientID))
	if err != nil {
		h.respondError(c, "Failed to load categories", err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: fmt.Sprintf("%d categories", len(categories)), Data: categories})
}
