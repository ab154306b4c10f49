package models

import "time"

type Comment struct {
	ID        int64       `json:"id"`
	Content   string      `json:"content"`
	TaskID    int64       `json:"task_id"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

type UpdateCommentRequest struct {
	Content *string `json:"content"`
}
