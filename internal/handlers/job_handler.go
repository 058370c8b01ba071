package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homeservices-marketplace/internal/models"
	"homeservices-marketplace/internal/services"
)

// JobHandler serves the job registry.
type JobHandler struct {
	jobs *services.JobService
	log  *zap.Logger
}

func NewJobHandler(jobs *services.JobService, log *zap.Logger) *JobHandler {
	return &JobHandler{jobs: jobs, log: log}
}

// CreateJob posts a new open job
// POST /api/jobs
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req models.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.jobs.CreateJob(c.Request.Context(), req)
	if err != nil {
		// An unknown poster is a bad request here, not a missing resource.
		if errors.Is(err, services.ErrNotFound) {
			respondErrorStatus(c, h.log, http.StatusBadRequest, err, "Invalid user ID")
			return
		}
		respondError(c, h.log, err, "Failed to create job")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"jobId":   job.ID,
		"message": "Job created successfully",
	})
}

// ListJobs returns a user's view of the registry
// GET /api/jobs?userId=&userRole=&category=&status=
func (h *JobHandler) ListJobs(c *gin.Context) {
	filter := models.JobFilter{
		UserID:   c.Query("userId"),
		Role:     models.UserRole(c.Query("userRole")),
		Category: c.Query("category"),
	}

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseJobStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		filter.Status = status
	}

	jobs, err := h.jobs.ListJobs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch jobs")
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// GetJob returns a single job
// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch job")
		return
	}

	c.JSON(http.StatusOK, job)
}
