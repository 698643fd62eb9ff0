package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Feedback struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	Rating             int       `json:"rating"`
	AdditionalComments string    `json:"additionalComments"`
	CreatedAt          time.Time `json:"createdAt"`
}
