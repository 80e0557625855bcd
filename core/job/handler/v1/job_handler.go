package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goto/salt/log"

	"github.com/goto/batchboard/core/job"
	"github.com/goto/batchboard/core/job/dto"
	"github.com/goto/batchboard/core/job/service"
	"github.com/goto/batchboard/internal/errors"
)

type JobService interface {
	Create(ctx context.Context, eventID job.EventID, spec *job.Spec) (*job.Job, error)
	Update(ctx context.Context, id job.ID, spec *job.Spec) (*job.Job, error)
	Delete(ctx context.Context, id job.ID) error
	Preview(ctx context.Context, eventID job.EventID) (*service.EventPlan, error)
}

type EventService interface {
	Create(ctx context.Context, eventType, name string) (*job.Event, error)
	Update(ctx context.Context, id job.EventID, eventType, name string) (*job.Event, error)
	Delete(ctx context.Context, id job.EventID) error
	List(ctx context.Context) ([]*job.EventWithJobs, error)
}

type JobHandler struct {
	jobService   JobService
	eventService EventService

	logger log.Logger
}

func NewJobHandler(jobService JobService, eventService EventService, logger log.Logger) *JobHandler {
	return &JobHandler{
		jobService:   jobService,
		eventService: eventService,
		logger:       logger,
	}
}

func (h *JobHandler) RegisterRoutes(r gin.IRouter) {
	setup := r.Group("/setup")

	setup.GET("/events", h.ListEvents)
	setup.POST("/events", h.CreateEvent)
	setup.PUT("/events/:eventID", h.UpdateEvent)
	setup.DELETE("/events/:eventID", h.DeleteEvent)
	setup.GET("/events/:eventID/plan", h.PlanEvent)

	setup.POST("/jobs", h.CreateJob)
	setup.PUT("/jobs/:jobID", h.UpdateJob)
	setup.DELETE("/jobs/:jobID", h.DeleteJob)
}

func (h *JobHandler) ListEvents(c *gin.Context) {
	events, err := h.eventService.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp := make([]dto.EventResponse, len(events))
	for i, e := range events {
		resp[i] = dto.FromEventWithJobs(e)
	}
	c.JSON(http.StatusOK, gin.H{"status": true, "events": resp})
}

func (h *JobHandler) CreateEvent(c *gin.Context) {
	var req dto.EventRequest
	if err := bindRequest(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	if err := req.Validate(); err != nil {
		_ = c.Error(err)
		return
	}

	created, err := h.eventService.Create(c.Request.Context(), req.Type, req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, success(fmt.Sprintf("create event success: event %d", created.ID())))
}

func (h *JobHandler) UpdateEvent(c *gin.Context) {
	eventID, err := job.EventIDFrom(c.Param("eventID"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req dto.EventRequest
	if err := bindRequest(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	if err := req.Validate(); err != nil {
		_ = c.Error(err)
		return
	}

	if _, err := h.eventService.Update(c.Request.Context(), eventID, req.Type, req.Name); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, success(fmt.Sprintf("update event success: event %d", eventID)))
}

func (h *JobHandler) DeleteEvent(c *gin.Context) {
	eventID, err := job.EventIDFrom(c.Param("eventID"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), eventID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, success(fmt.Sprintf("delete event success: event %d", eventID)))
}

// PlanEvent returns the offsets the event's jobs would get, without saving.
func (h *JobHandler) PlanEvent(c *gin.Context) {
	eventID, err := job.EventIDFrom(c.Param("eventID"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	plan, err := h.jobService.Preview(c.Request.Context(), eventID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	planned := make([]dto.PlannedJob, 0, len(plan.Jobs))
	for _, id := range plan.Result.Order {
		j, _ := plan.Jobs.Get(id)
		planned = append(planned, dto.PlannedJob{JobResponse: dto.FromJob(j), Finish: plan.Finish(id)})
	}
	c.JSON(http.StatusOK, gin.H{"status": true, "jobs": planned})
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.JobRequest
	if err := bindRequest(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	if err := req.Validate(true); err != nil {
		_ = c.Error(err)
		return
	}
	spec, err := req.ToSpec()
	if err != nil {
		_ = c.Error(err)
		return
	}

	created, err := h.jobService.Create(c.Request.Context(), job.EventID(req.EventID), spec)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, success(fmt.Sprintf("create job success: job %d", created.ID())))
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	jobID, err := job.IDFrom(c.Param("jobID"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req dto.JobRequest
	if err := bindRequest(c, &req); err != nil {
		_ = c.Error(err)
		return
	}
	if err := req.Validate(false); err != nil {
		_ = c.Error(err)
		return
	}
	spec, err := req.ToSpec()
	if err != nil {
		_ = c.Error(err)
		return
	}

	if _, err := h.jobService.Update(c.Request.Context(), jobID, spec); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, success(fmt.Sprintf("update job success: job %d", jobID)))
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID, err := job.IDFrom(c.Param("jobID"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.jobService.Delete(c.Request.Context(), jobID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, success(fmt.Sprintf("delete job success: job %d", jobID)))
}

func bindRequest(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return errors.InvalidArgument(job.EntityJob, "request body missing")
	}
	return nil
}
