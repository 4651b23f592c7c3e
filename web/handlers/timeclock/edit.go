package timeclock

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"sitecrew.com.au/sitecrew/timeclock"
	"sitecrew.com.au/sitecrew/web/common"
	"sitecrew.com.au/sitecrew/web/middlewares"
)

func (e *Endpoint) Edit(c *gin.Context) {
	var dto EditEntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	req := timeclock.EditRequest{
		TimeEntryID: c.Param("id"),
		EditReason:  dto.EditReason,
		ClockInAt:   dto.ClockInAt,
		ClockOutAt:  dto.ClockOutAt,
		Notes:       dto.Notes,
		Force:       dto.Force,
	}

	var result *timeclock.EditResult
	err := e.dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
		var execErr error
		result, execErr = e.engine.EditEntry(c.Request.Context(), db, middlewares.Session(c), req)
		return execErr
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"ok":                 result.Ok,
		"hasOverlap":         result.HasOverlap,
		"requiresReapproval": result.RequiresReapproval,
	}))
}
