package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotifyUserOnboarded      NotificationType = "user_onboarded"
	NotifyProjectCreated     NotificationType = "project_created"
	NotifyProjectUpdated     NotificationType = "project_updated"
	NotifyTeamMemberAdded    NotificationType = "team_member_added"
	NotifyTeamMemberRemoved  NotificationType = "team_member_removed"
	NotifyClientRemoved      NotificationType = "client_removed"
	NotifyTaskAssigned       NotificationType = "task_assigned"
	NotifyTaskSubmitted      NotificationType = "task_submitted"
	NotifyTaskReviewed       NotificationType = "task_reviewed"
)

type Notification struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID         primitive.ObjectID  `json:"userId" bson:"userId"`
	Type           NotificationType    `json:"type" bson:"type"`
	Title          string              `json:"title" bson:"title"`
	Message        string              `json:"message" bson:"message"`
	RelatedProject *primitive.ObjectID `json:"relatedProject,omitempty" bson:"relatedProject,omitempty"`
	RelatedTask    *primitive.ObjectID `json:"relatedTask,omitempty" bson:"relatedTask,omitempty"`
	IsRead         bool                `json:"isRead" bson:"isRead"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
}
