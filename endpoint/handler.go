package endpoint

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ariebrainware/measurement-gateway/device"
	"github.com/ariebrainware/measurement-gateway/middleware"
	"github.com/ariebrainware/measurement-gateway/model"
	"github.com/ariebrainware/measurement-gateway/prediction"
	"github.com/ariebrainware/measurement-gateway/service"
	"github.com/ariebrainware/measurement-gateway/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MeasurementHandler serves the patient measurement operations.
type MeasurementHandler struct {
	Users        service.UserService
	Measurements service.MeasurementService
	Adapter      device.Adapter
	Scorer       prediction.Scorer
	Log          *zap.SugaredLogger
	Now          func() time.Time
}

// ID accepts a JSON number or a numeric string.
type ID uint

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", string(b))
	}
	*id = ID(n)
	return nil
}

type clientInfo struct {
	IP    string
	Agent string
}

func clientOf(c *gin.Context) clientInfo {
	return clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}
}

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
		return false
	}
	return true
}

func (h *MeasurementHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// principalPatientOrRespond resolves the caller and requires the patient role.
func (h *MeasurementHandler) principalPatientOrRespond(c *gin.Context) (model.User, bool) {
	email, ok := middleware.GetPrincipal(c)
	if !ok {
		util.CallAppError(c, "Authentication required", util.ErrUnauthorized)
		return model.User{}, false
	}

	user, err := h.Users.FindByEmail(c.Request.Context(), email)
	if errors.Is(err, util.ErrNotFound) {
		util.LogUnauthorizedAccess("", email, c.ClientIP(), c.Request.URL.Path, "principal has no account")
		util.CallAppError(c, "Unauthorized", util.ErrUnauthorized)
		return model.User{}, false
	}
	if err != nil {
		h.respondError(c, "Failed to resolve user", err)
		return model.User{}, false
	}

	isPatient, err := h.Users.IsPatient(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, "Failed to resolve user", err)
		return model.User{}, false
	}
	if !isPatient {
		util.LogUnauthorizedAccess(fmt.Sprintf("%d", user.ID), email, c.ClientIP(), c.Request.URL.Path, "caller is not a patient")
		util.CallAppError(c, "Only patients can perform this operation", util.ErrUnauthorized)
		return model.User{}, false
	}
	return user, true
}

// targetPatientOrRespond requires id to name a patient.
func (h *MeasurementHandler) targetPatientOrRespond(c *gin.Context, id uint) bool {
	isPatient, err := h.Users.IsPatient(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to resolve patient", err)
		return false
	}
	if !isPatient {
		email, _ := middleware.GetPrincipal(c)
		util.LogUnauthorizedAccess("", email, c.ClientIP(), c.Request.URL.Path, fmt.Sprintf("user %d is not a patient", id))
		util.CallAppError(c, "Requested user is not a patient", util.ErrUnauthorized)
		return false
	}
	return true
}

// respondError renders err. Errors without a code are logged and reported as INTERNAL.
func (h *MeasurementHandler) respondError(c *gin.Context, msg string, err error) {
	var appErr *util.AppError
	if !errors.As(err, &appErr) {
		h.Log.Errorw(msg,
			"request_id", middleware.GetRequestID(c),
			"path", c.Request.URL.Path,
			"error", err,
		)
	}
	util.CallAppError(c, msg, err)
}
