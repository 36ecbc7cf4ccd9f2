package endpoint

import (
	"net/http"

	"github.com/ariebrainware/measurement-gateway/middleware"
	"github.com/ariebrainware/measurement-gateway/util"
	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Reports whether the service and its database are reachable
// @Tags         System
// @Produce      json
// @Success      200 {object} util.APIResponse "Service healthy"
// @Failure      503 {object} util.APIResponse "Database unreachable"
// @Router       /health [get]
func Health(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallSuccessOK(c, util.APISuccessParams{Msg: "ok"})
		return
	}

	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, util.APIResponse{
			Success: false,
			Code:    util.CodeInternal,
			Error:   "database unreachable",
			Msg:     "Service unhealthy",
		})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "ok"})
}
