package timeclock

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"sitecrew.com.au/sitecrew/core"
	"sitecrew.com.au/sitecrew/retention"
	"sitecrew.com.au/sitecrew/timeclock"
	"sitecrew.com.au/sitecrew/web/common"
)

type Endpoint struct {
	dm      *core.DatabaseManager
	engine  *timeclock.Engine
	sweeper *retention.Sweeper
}

func Register(r *gin.RouterGroup, dm *core.DatabaseManager, engine *timeclock.Engine, sweeper *retention.Sweeper) {
	endpoint := &Endpoint{dm: dm, engine: engine, sweeper: sweeper}
	r.POST("/time-entries/clock-in", endpoint.ClockIn)
	r.POST("/time-entries/clock-out", endpoint.ClockOut)
	r.PUT("/time-entries/:id", endpoint.Edit)
	r.POST("/sync/probe", endpoint.Probe)
	r.POST("/admin/cleanup", endpoint.Cleanup)
}

// respondError maps a domain error kind onto a wire status. Anything the
// taxonomy does not cover is an internal error.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch timeclock.KindOf(err) {
	case timeclock.KindUnauthenticated:
		status = http.StatusUnauthorized
	case timeclock.KindPermissionDenied:
		status = http.StatusForbidden
	case timeclock.KindNotFound:
		status = http.StatusNotFound
	case timeclock.KindInvalidArgument:
		status = http.StatusBadRequest
	case timeclock.KindFailedPrecondition:
		status = http.StatusPreconditionFailed
	}

	message := err.Error()
	var domainErr *timeclock.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	c.JSON(status, common.NewCodedErrorResponse(string(timeclock.KindOf(err)), message))
}
