package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	TaskInitiated      TaskStatus = "initiated"
	TaskSubmitted      TaskStatus = "submitted"
	TaskPMReviewed     TaskStatus = "pm_reviewed"
	TaskClientReviewed TaskStatus = "client_reviewed"
	TaskRejected       TaskStatus = "rejected"
	TaskCompleted      TaskStatus = "completed"
)

type Rating string

const (
	RatingPending  Rating = "pending"
	RatingApproved Rating = "approved"
	RatingRejected Rating = "rejected"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Submission holds the work description and files attached by the assignee.
// Resubmission after a rejection overwrites the whole payload.
type Submission struct {
	Work        string       `json:"work" bson:"work"`
	Files       []Attachment `json:"files" bson:"files"`
	SubmittedAt time.Time    `json:"submittedAt" bson:"submittedAt"`
}

type Task struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Title              string              `json:"title" bson:"title"`
	Description        string              `json:"description" bson:"description"`
	ProjectID          primitive.ObjectID  `json:"projectId" bson:"projectId"`
	AssignedTo         *primitive.ObjectID `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`
	AssignedBy         primitive.ObjectID  `json:"assignedBy" bson:"assignedBy"`
	Status             TaskStatus          `json:"status" bson:"status"`
	Priority           TaskPriority        `json:"priority" bson:"priority"`
	DueDate            *time.Time          `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Submission         *Submission         `json:"submission,omitempty" bson:"submission,omitempty"`
	SubmittedAt        *time.Time          `json:"submittedAt,omitempty" bson:"submittedAt,omitempty"`
	ProgressPercentage int                 `json:"progressPercentage" bson:"progressPercentage"`
	PMRating           Rating              `json:"pmRating" bson:"pmRating"`
	ClientRating       Rating              `json:"clientRating" bson:"clientRating"`
	PMFeedback         string              `json:"pmFeedback" bson:"pmFeedback"`
	ClientFeedback     string              `json:"clientFeedback" bson:"clientFeedback"`
	CreatedAt          time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// CalculateProgress derives the stored percentage from the workflow state.
// A rejected task keeps the last computed value (0 if never computed), so
// rejection does not erase earlier progress until resubmission recomputes it.
func (t *Task) CalculateProgress() int {
	switch {
	case t.Status == TaskInitiated:
		t.ProgressPercentage = 10
	case t.Status == TaskSubmitted:
		t.ProgressPercentage = 30
	case t.Status == TaskPMReviewed && t.PMRating == RatingApproved:
		t.ProgressPercentage = 60
	case t.Status == TaskClientReviewed && t.ClientRating == RatingApproved:
		t.ProgressPercentage = 100
	case t.Status == TaskCompleted:
		t.ProgressPercentage = 100
	}
	return t.ProgressPercentage
}
