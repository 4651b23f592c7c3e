package timeclock

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"sitecrew.com.au/sitecrew/retention"
	"sitecrew.com.au/sitecrew/timeclock"
	"sitecrew.com.au/sitecrew/web/common"
	"sitecrew.com.au/sitecrew/web/middlewares"
)

// Cleanup runs the retention sweep on demand. Admin only, and a dry run
// unless the caller asks for a destructive one.
func (e *Endpoint) Cleanup(c *gin.Context) {
	session := middlewares.Session(c)
	if session == nil {
		respondError(c, timeclock.Errf(timeclock.KindUnauthenticated, "no session"))
		return
	}
	if !session.IsAdmin() {
		respondError(c, timeclock.Errf(timeclock.KindPermissionDenied, "only admins can run cleanup"))
		return
	}

	var dto CleanupDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	opts := retention.RunOptions{DryRun: true, Collections: dto.Collections}
	if dto.DryRun != nil {
		opts.DryRun = *dto.DryRun
	}

	var report *retention.Report
	err := e.dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
		var runErr error
		report, runErr = e.sweeper.Run(c.Request.Context(), db, opts)
		return runErr
	})
	if err != nil {
		respondError(c, timeclock.Wrap(err, "cleanup run failed"))
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(report))
}
