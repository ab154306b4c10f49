package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/umn33q/adom-testovoe/internal/models"
)

const (
	EventTaskCreated    = "task.created"
	EventTaskUpdated    = "task.updated"
	EventCommentCreated = "comment.created"
)

// Fanout computes the audience of a task or comment event and delivers
// one message per audience member on that member's private channel.
// Delivery is best-effort: a failed send is logged and never affects
// the other recipients or the write that triggered the event.
type Fanout struct {
	sink        EventSink
	sendTimeout time.Duration
	logger      *slog.Logger
}

func NewFanout(sink EventSink, sendTimeout time.Duration, logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{
		sink:        sink,
		sendTimeout: sendTimeout,
		logger:      logger,
	}
}

func channelFor(userID int64) string {
	return fmt.Sprintf("user.%d", userID)
}

type taskEventData struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Status      models.TaskStatus `json:"status"`
	Description string            `json:"description"`
	DueDate     *time.Time        `json:"due_date"`
	CreatedAt   time.Time         `json:"created_at"`
}

type taskEvent struct {
	Task    taskEventData `json:"task"`
	Message string        `json:"message"`
	Type    string        `json:"type"`
}

type commentEventData struct {
	ID        int64              `json:"id"`
	Content   string             `json:"content"`
	TaskID    int64              `json:"task_id"`
	User      models.UserSummary `json:"user"`
	CreatedAt time.Time          `json:"created_at"`
}

type taskRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type commentEvent struct {
	Comment commentEventData `json:"comment"`
	Task    taskRef          `json:"task"`
	Message string           `json:"message"`
	Type    string           `json:"type"`
}

// TaskCreated notifies every participant of the new task.
func (f *Fanout) TaskCreated(ctx context.Context, task *models.Task) {
	f.dispatch(ctx, audience(task.Participants, 0), EventTaskCreated, taskEvent{
		Task:    taskData(task),
		Message: "New task created: " + task.Title,
		Type:    EventTaskCreated,
	})
}

// TaskUpdated notifies every participant of the post-update state. The
// audience is computed from the task's current participant set, so
// users removed by the update are no longer addressed.
func (f *Fanout) TaskUpdated(ctx context.Context, task *models.Task) {
	f.dispatch(ctx, audience(task.Participants, 0), EventTaskUpdated, taskEvent{
		Task:    taskData(task),
		Message: "Task updated: " + task.Title,
		Type:    EventTaskUpdated,
	})
}

// CommentCreated notifies every task participant except the comment's
// author.
func (f *Fanout) CommentCreated(ctx context.Context, comment *models.Comment, task *models.Task) {
	f.dispatch(ctx, audience(task.Participants, comment.User.ID), EventCommentCreated, commentEvent{
		Comment: commentEventData{
			ID:        comment.ID,
			Content:   comment.Content,
			TaskID:    comment.TaskID,
			User:      comment.User,
			CreatedAt: comment.CreatedAt,
		},
		Task:    taskRef{ID: task.ID, Title: task.Title},
		Message: fmt.Sprintf("%s commented on task: %s", comment.User.Name, task.Title),
		Type:    EventCommentCreated,
	})
}

func taskData(task *models.Task) taskEventData {
	return taskEventData{
		ID:          task.ID,
		Title:       task.Title,
		Status:      task.Status,
		Description: task.Description,
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
	}
}

// audience lists the participant user ids, skipping exclude (0 excludes
// nobody). Audience computation is the sole gate on who gets an event;
// the gateway only checks that subscribers own their channel.
func audience(participants []models.Participant, exclude int64) []int64 {
	ids := make([]int64, 0, len(participants))
	for _, p := range participants {
		if p.ID == exclude {
			continue
		}
		ids = append(ids, p.ID)
	}
	return ids
}

// dispatch sends the payload to each recipient concurrently and waits
// for all attempts to finish. Each send gets its own bounded timeout so
// one unreachable recipient cannot stall the rest, and failures are
// swallowed after logging: the triggering write already succeeded.
func (f *Fanout) dispatch(ctx context.Context, recipients []int64, event string, payload any) {
	var wg sync.WaitGroup
	for _, userID := range recipients {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.sendTimeout)
			defer cancel()
			if err := f.sink.Publish(sendCtx, channelFor(userID), event, payload); err != nil {
				f.logger.Error("event delivery failed",
					"event", event,
					"user_id", userID,
					"error", err,
				)
			}
		}(userID)
	}
	wg.Wait()
}
