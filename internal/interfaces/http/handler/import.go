package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pim/backend/internal/infrastructure/scheduler"
	"github.com/pim/backend/internal/interfaces/http/dto"
)

// defaultHistoryLimit bounds the run history page when no limit is given
const defaultHistoryLimit = 20

// ImportHandler handles feed import API endpoints
type ImportHandler struct {
	BaseHandler
	trigger         *scheduler.ImportCronTrigger
	importScheduler *scheduler.ImportScheduler
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(trigger *scheduler.ImportCronTrigger, importScheduler *scheduler.ImportScheduler) *ImportHandler {
	return &ImportHandler{
		trigger:         trigger,
		importScheduler: importScheduler,
	}
}

// Trigger godoc
// @Summary      Trigger a feed import run
// @Description  Queue a manual feed import run. The run executes asynchronously; poll the run history for its outcome.
// @Tags         import
// @Accept       json
// @Produce      json
// @Success      202 {object} dto.Response{data=dto.ImportJobResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/import/runs [post]
func (h *ImportHandler) Trigger(c *gin.Context) {
	job, err := h.trigger.TriggerManualImport()
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrJobQueueFull):
			h.TooManyRequests(c, "Import queue is full, try again later")
		case errors.Is(err, scheduler.ErrSchedulerNotRunning):
			h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInvalidState, "Import scheduler is not running")
		default:
			h.InternalError(c, "Failed to schedule import run")
		}
		return
	}

	h.Accepted(c, dto.NewImportJobResponse(job))
}

// History godoc
// @Summary      List recent import runs
// @Description  Retrieve recent feed import runs, newest first
// @Tags         import
// @Accept       json
// @Produce      json
// @Param        limit query int false "Maximum number of runs to return" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]dto.ImportJobResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/import/runs [get]
func (h *ImportHandler) History(c *gin.Context) {
	var req dto.ImportHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultHistoryLimit
	}

	jobs := h.importScheduler.GetJobHistory(req.Limit)
	h.Success(c, dto.NewImportJobResponses(jobs))
}

// GetRun godoc
// @Summary      Get an import run by ID
// @Description  Retrieve one import run from the recent history
// @Tags         import
// @Accept       json
// @Produce      json
// @Param        id path string true "Run ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.ImportJobResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/import/runs/{id} [get]
func (h *ImportHandler) GetRun(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid run ID format")
		return
	}

	job, err := h.importScheduler.GetJob(runID)
	if err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			h.NotFound(c, "Import run not found")
			return
		}
		h.InternalError(c, "Failed to load import run")
		return
	}

	h.Success(c, dto.NewImportJobResponse(job))
}

// Stats godoc
// @Summary      Get import scheduler statistics
// @Description  Retrieve the periodic trigger state: run cadence, last scheduled time and total scheduled runs
// @Tags         import
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=map[string]interface{}}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalog/import/stats [get]
func (h *ImportHandler) Stats(c *gin.Context) {
	h.Success(c, h.trigger.GetStats())
}
