package service

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"tms/config"
	"tms/metrics"

	"github.com/gin-contrib/cache/persistence"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

const TaskRecomputeTeamPoints = "recompute_team_points"

// PointsTask is the deferred work item handed to the task queue. Delivery is
// at-least-once with no ordering guarantee, which is fine because the
// recompute it triggers is idempotent.
type PointsTask struct {
	Name   string    `json:"task_name"`
	TeamID int       `json:"team_id"`
	RunAt  time.Time `json:"run_at"`
}

type TaskService struct {
	writer        *kafka.Writer
	pointsService *PointsService
}

func NewTaskService(db *gorm.DB, cache persistence.CacheStore) *TaskService {
	writer, err := config.GetPointsTaskWriter()
	if err != nil {
		log.Printf("Task queue unavailable, recomputes will run synchronously: %v", err)
		writer = nil
	}
	return &TaskService{
		writer:        writer,
		pointsService: NewPointsService(db, cache),
	}
}

// ScheduleRecompute hands a team recompute to the task queue, fire and
// forget. Without a broker, or when the publish fails, the recompute runs
// synchronously instead so a game save never silently loses the update.
func (s *TaskService) ScheduleRecompute(teamId int, delay time.Duration) {
	if s.writer == nil {
		s.recomputeNow(teamId)
		return
	}
	task := PointsTask{
		Name:   TaskRecomputeTeamPoints,
		TeamID: teamId,
		RunAt:  time.Now().Add(delay),
	}
	value, err := json.Marshal(task)
	if err != nil {
		log.Printf("Failed to marshal points task for team %d: %v", teamId, err)
		s.recomputeNow(teamId)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(strconv.Itoa(teamId)),
			Value: value,
		})
		if err != nil {
			log.Printf("Failed to schedule recompute for team %d: %v", teamId, err)
			s.recomputeNow(teamId)
			return
		}
		metrics.TasksScheduledCounter.Inc()
	}()
}

func (s *TaskService) recomputeNow(teamId int) {
	if _, err := s.pointsService.UpdateTotalPoints(teamId); err != nil {
		log.Printf("Synchronous recompute for team %d failed: %v", teamId, err)
	}
}
