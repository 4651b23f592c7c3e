package timeclock

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"sitecrew.com.au/sitecrew/core/model"
	"sitecrew.com.au/sitecrew/timeclock"
	"sitecrew.com.au/sitecrew/web/common"
	"sitecrew.com.au/sitecrew/web/middlewares"
)

func (e *Endpoint) ClockIn(c *gin.Context) {
	var dto ClockInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	req := timeclock.CreateRequest{
		JobID:         dto.JobID,
		ClockInAt:     dto.ClockInAt,
		ClientEventID: dto.ClientEventID,
		DeviceID:      dto.DeviceID,
		Origin:        dto.Origin,
	}
	if dto.Geo != nil {
		req.Geo = &timeclock.Coordinate{Lat: dto.Geo.Lat, Lng: dto.Geo.Lng}
	}

	var result *timeclock.CreateResult
	err := e.dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
		var execErr error
		result, execErr = e.engine.CreateEntry(c.Request.Context(), db, middlewares.Session(c), req)
		return execErr
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, common.NewSuccessResponse(gin.H{
		"entryId":   result.EntryID,
		"duplicate": result.Duplicate,
	}))
}

func (e *Endpoint) ClockOut(c *gin.Context) {
	var dto ClockOutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	req := timeclock.CloseRequest{
		JobID:         dto.JobID,
		ClockOutAt:    dto.ClockOutAt,
		ClientEventID: dto.ClientEventID,
		DeviceID:      dto.DeviceID,
	}
	if dto.Geo != nil {
		req.Geo = &timeclock.Coordinate{Lat: dto.Geo.Lat, Lng: dto.Geo.Lng}
	}

	var result *timeclock.CloseResult
	err := e.dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
		var execErr error
		result, execErr = e.engine.CloseEntry(c.Request.Context(), db, middlewares.Session(c), req)
		return execErr
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{
		"entryId":   result.EntryID,
		"duplicate": result.Duplicate,
	}))
}

// Probe records a client sync heartbeat: which device synced, how deep
// its outbound queue was and the request correlation id.
func (e *Endpoint) Probe(c *gin.Context) {
	var dto ProbeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse(common.FormatBindingError(err)))
		return
	}

	session := middlewares.Session(c)
	if session == nil {
		respondError(c, timeclock.Errf(timeclock.KindUnauthenticated, "no session"))
		return
	}

	probe := model.SyncProbe{
		CompanyID:     session.CompanyID,
		DeviceID:      session.DeviceID,
		CorrelationID: c.GetHeader("X-Correlation-Id"),
		QueueDepth:    dto.QueueDepth,
	}
	err := e.dm.Exec(c.Request.Context(), func(db *gorm.DB) error {
		return db.Create(&probe).Error
	})
	if err != nil {
		respondError(c, timeclock.Wrap(err, "failed to record sync probe"))
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(gin.H{"probeId": probe.ProbeID}))
}
