package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/ratewalk/dataset"
	"github.com/use-agent/ratewalk/models"
	"github.com/use-agent/ratewalk/walker"
	"github.com/use-agent/ratewalk/webhook"
)

// PostWalk returns a handler for POST /api/v1/walks.
//
// The walk runs in the background under ctx, so it outlives the request
// but stops on server shutdown; JobStore.Wait reports when it has returned. Captured entries are kept on the job and,
// when out is non-nil, also written to out.
func PostWalk(ctx context.Context, b Browser, w *walker.Walker, startURL string, jobs *JobStore, out dataset.Sink) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.WalkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.WalkResponse{
				Status: models.StatusFailed,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		plan := walker.FairworkPlan(startURL, req.Award)
		plan.Limit = req.MaxCombinations
		if err := plan.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, models.WalkResponse{
				Status: models.StatusFailed,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		job := jobs.create(req.Award)
		jobs.run(func() { runWalk(ctx, b, w, job, plan, req, out) })

		c.JSON(http.StatusOK, models.WalkResponse{
			ID:     job.id,
			Status: models.StatusProcessing,
		})
	}
}

// GetWalk returns a handler for GET /api/v1/walks/:id. Entries are
// omitted when ?entries=false.
func GetWalk(jobs *JobStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := jobs.load(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error": models.ErrorDetail{
					Code:    models.ErrCodeNotFound,
					Message: "walk job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, job.snapshot(c.Query("entries") != "false"))
	}
}

// runWalk drives one walk job to completion and fires its webhook.
func runWalk(ctx context.Context, b Browser, w *walker.Walker, job *walkJob, plan *walker.Plan, req models.WalkRequest, out dataset.Sink) {
	form, release, err := b.NewForm(*req.Stealth)
	if err != nil {
		job.finish(models.StatusFailed, 0, asWalkError(err).ToDetail())
		notify(job, req)
		return
	}
	defer release()

	var sink walker.Sink = job.entries
	if out != nil {
		sink = dataset.Multi{job.entries, out}
	}

	summary, err := w.Run(ctx, plan, form, sink)
	retries := 0
	if summary != nil {
		retries = summary.Retries
	}

	switch {
	case err == nil:
		job.finish(models.StatusCompleted, retries, nil)
	case job.entries.Len() > 0:
		job.finish(models.StatusPartial, retries, asWalkError(err).ToDetail())
	default:
		job.finish(models.StatusFailed, retries, asWalkError(err).ToDetail())
	}

	snap := job.snapshot(false)
	slog.Info("walk job finished",
		"id", job.id,
		"award", job.award,
		"status", snap.Status,
		"completed", snap.Completed,
	)
	notify(job, req)
}

func notify(job *walkJob, req models.WalkRequest) {
	if req.WebhookURL == "" {
		return
	}
	snap := job.snapshot(false)
	typ := webhook.EventWalkCompleted
	if snap.Status == models.StatusFailed {
		typ = webhook.EventWalkFailed
	}
	webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, webhook.NewEvent(typ, job.id, snap))
}
