package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "not_started"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectOnHold     ProjectStatus = "on_hold"
	ProjectCompleted  ProjectStatus = "completed"
)

// ValidProjectStatus reports whether s is a known project status.
func ValidProjectStatus(s string) bool {
	switch ProjectStatus(s) {
	case ProjectNotStarted, ProjectInProgress, ProjectOnHold, ProjectCompleted:
		return true
	}
	return false
}

// Attachment describes one stored file. Files are owned by the record that
// created them and must be deleted from disk when that record drops them.
type Attachment struct {
	Filename     string `json:"filename" bson:"filename"`
	OriginalName string `json:"originalName" bson:"originalName"`
	Path         string `json:"path" bson:"path"`
	Size         int64  `json:"size" bson:"size"`
	MimeType     string `json:"mimeType" bson:"mimeType"`
}

type Project struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Title          string               `json:"title" bson:"title"`
	Description    string               `json:"description" bson:"description"`
	ProjectManager primitive.ObjectID   `json:"projectManager" bson:"projectManager"`
	Client         *primitive.ObjectID  `json:"client,omitempty" bson:"client,omitempty"`
	TeamMembers    []primitive.ObjectID `json:"teamMembers" bson:"teamMembers"`
	Status         ProjectStatus        `json:"status" bson:"status"`
	StartDate      *time.Time           `json:"startDate,omitempty" bson:"startDate,omitempty"`
	EndDate        *time.Time           `json:"endDate,omitempty" bson:"endDate,omitempty"`
	Progress       int                  `json:"progress" bson:"progress"`
	ClientLogo     *Attachment          `json:"clientLogo,omitempty" bson:"clientLogo,omitempty"`
	CreatedAt      time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// HasTeamMember reports whether the user id appears in the project's team.
func (p *Project) HasTeamMember(id primitive.ObjectID) bool {
	for _, m := range p.TeamMembers {
		if m == id {
			return true
		}
	}
	return false
}

// ParticipantIDs returns every user attached to the project: the manager,
// all team members and the client, without duplicates.
func (p *Project) ParticipantIDs() []primitive.ObjectID {
	seen := map[primitive.ObjectID]bool{p.ProjectManager: true}
	ids := []primitive.ObjectID{p.ProjectManager}
	for _, m := range p.TeamMembers {
		if !seen[m] {
			seen[m] = true
			ids = append(ids, m)
		}
	}
	if p.Client != nil && !seen[*p.Client] {
		ids = append(ids, *p.Client)
	}
	return ids
}
