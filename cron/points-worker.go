package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"tms/config"
	"tms/metrics"
	"tms/service"
	"tms/utils"

	"github.com/gin-contrib/cache/persistence"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// PointsWorker consumes deferred recompute tasks. The queue delivers
// at-least-once, duplicate executions are harmless because the recompute is
// idempotent.
type PointsWorker struct {
	reader        *kafka.Reader
	pointsService *service.PointsService
}

func NewPointsWorker(db *gorm.DB, cache persistence.CacheStore) (*PointsWorker, error) {
	reader, err := config.GetPointsTaskReader(0)
	if err != nil {
		return nil, err
	}
	return &PointsWorker{
		reader:        reader,
		pointsService: service.NewPointsService(db, cache),
	}, nil
}

// Run processes tasks until the context is cancelled.
func (w *PointsWorker) Run(ctx context.Context) {
	defer utils.Closer(w.reader)()
	for {
		message, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Failed to fetch points task: %v", err)
			time.Sleep(time.Second)
			continue
		}
		var task service.PointsTask
		if err := json.Unmarshal(message.Value, &task); err != nil {
			log.Printf("Dropping malformed points task: %v", err)
		} else {
			if until := time.Until(task.RunAt); until > 0 {
				time.Sleep(until)
			}
			w.handle(task)
		}
		if err := w.reader.CommitMessages(ctx, message); err != nil {
			log.Printf("Failed to commit points task offset: %v", err)
		}
	}
}

func (w *PointsWorker) handle(task service.PointsTask) {
	switch task.Name {
	case service.TaskRecomputeTeamPoints:
		if _, err := w.pointsService.UpdateTotalPoints(task.TeamID); err != nil {
			metrics.TaskErrorCounter.Inc()
			log.Printf("Failed to recompute points for team %d: %v", task.TeamID, err)
			return
		}
		metrics.TasksProcessedCounter.Inc()
	default:
		log.Printf("Unknown points task %q", task.Name)
	}
}
