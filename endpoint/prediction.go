package endpoint

import (
	"errors"
	"io"

	"github.com/ariebrainware/measurement-gateway/prediction"
	"github.com/ariebrainware/measurement-gateway/util"
	"github.com/gin-gonic/gin"
)

type PredictionRequest struct {
	// Infarto is "si" when the patient had a heart attack before.
	Infarto string `json:"infarto" example:"si"`
}

// Predict godoc
// @Summary      Heart attack risk prediction
// @Description  Builds the feature record from the caller's latest blood pressure and glycemic measurements and asks the scoring model for a 0/1 risk class
// @Tags         Prediction
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PredictionRequest true "Prior heart attack answer"
// @Success      200 {object} util.APIResponse{data=int} "Risk class"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Caller is not a patient"
// @Failure      422 {object} util.APIResponse "Missing blood pressure or glycemic measurement"
// @Failure      429 {object} util.APIResponse "Too many requests"
// @Failure      502 {object} util.APIResponse "Scoring service failed"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /avvioPredizione [post]
func (h *MeasurementHandler) Predict(c *gin.Context) {
	user, ok := h.principalPatientOrRespond(c)
	if !ok {
		return
	}

	var req PredictionRequest
	// An empty body is a valid request without the heart attack answer.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request payload", Err: err})
		return
	}

	ctx := c.Request.Context()
	history, err := h.Measurements.GetByPatient(ctx, user.ID)
	if err != nil {
		h.respondError(c, "Failed to load measurements", err)
		return
	}

	features, err := prediction.BuildFeatures(user, history, req.Infarto, h.now())
	if err != nil {
		util.CallAppError(c, "Not enough measurements for a prediction", err)
		return
	}

	score, err := h.Scorer.Score(ctx, features)
	if err != nil {
		h.respondError(c, "Prediction failed", err)
		return
	}

	util.LogPredictionRequested(user.ID, user.Email, c.ClientIP(), score)
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Prediction completed", Data: score})
}
