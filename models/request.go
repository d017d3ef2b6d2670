package models

// QuestionRequest is the body of POST /ask.
type QuestionRequest struct {
	Question string `json:"question" binding:"required"`
}
