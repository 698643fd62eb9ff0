package model

import "time"

type Task struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Task      string    `json:"task"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}
