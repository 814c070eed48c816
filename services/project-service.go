package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sundayekpa25-ai/projectsandtasks/logging"
	"github.com/sundayekpa25-ai/projectsandtasks/models"
	"github.com/sundayekpa25-ai/projectsandtasks/storage"
)

type ProjectService struct {
	projectsCollection *mongo.Collection
	tasksCollection    *mongo.Collection
	usersCollection    *mongo.Collection
	notifications      *NotificationService
	files              *storage.FileStore
}

func NewProjectService(projectsCollection, tasksCollection, usersCollection *mongo.Collection, notifications *NotificationService, files *storage.FileStore) *ProjectService {
	return &ProjectService{
		projectsCollection: projectsCollection,
		tasksCollection:    tasksCollection,
		usersCollection:    usersCollection,
		notifications:      notifications,
		files:              files,
	}
}

// progressFor is the project progress aggregate: the rounded percentage of
// completed tasks. No partial credit from in-flight tasks.
func progressFor(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// projectListFilter scopes a project listing by role: admins see everything,
// managers their projects, team members projects they are on, clients theirs.
func projectListFilter(u *models.User) bson.M {
	switch u.Role {
	case models.RoleAdmin:
		return bson.M{}
	case models.RoleProjectManager:
		return bson.M{"projectManager": u.ID}
	case models.RoleTeamMember:
		return bson.M{"teamMembers": u.ID}
	default:
		return bson.M{"client": u.ID}
	}
}

// applyLogo swaps in a new client logo and returns the attachment it
// replaced. The replaced file must stay on disk until the record persists.
func applyLogo(project *models.Project, logo *models.Attachment) *models.Attachment {
	replaced := project.ClientLogo
	project.ClientLogo = logo
	return replaced
}

func statusMessage(status models.ProjectStatus) string {
	switch status {
	case models.ProjectInProgress:
		return "has been started"
	case models.ProjectCompleted:
		return "has been completed"
	case models.ProjectOnHold:
		return "has been put on hold"
	default:
		return "status has been updated"
	}
}

type CreateProjectInput struct {
	Title       string
	Description string
	ClientID    string
	StartDate   *time.Time
	EndDate     *time.Time
	ClientLogo  *models.Attachment
}

// CreateProject creates a project managed by the acting user (or, for an
// admin, owned by them as manager) in state not_started.
func (s *ProjectService) CreateProject(ctx context.Context, actor *models.User, input CreateProjectInput) (*models.Project, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleProjectManager {
		return nil, errForbidden("only project manager or admin can create projects")
	}

	fields := map[string]string{}
	if strings.TrimSpace(input.Title) == "" {
		fields["title"] = "project title is required"
	}

	var clientID *primitive.ObjectID
	if input.ClientID != "" {
		id, err := primitive.ObjectIDFromHex(input.ClientID)
		if err != nil {
			fields["clientId"] = "invalid client ID"
		} else {
			var client models.User
			err := s.usersCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&client)
			if err != nil || client.Role != models.RoleClient {
				fields["clientId"] = "invalid client ID"
			} else {
				clientID = &id
			}
		}
	}
	if len(fields) > 0 {
		return nil, errValidation(fields)
	}

	now := time.Now()
	project := &models.Project{
		ID:             primitive.NewObjectID(),
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		ProjectManager: actor.ID,
		Client:         clientID,
		TeamMembers:    []primitive.ObjectID{},
		Status:         models.ProjectNotStarted,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		ClientLogo:     input.ClientLogo,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := s.projectsCollection.InsertOne(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %v", err)
	}

	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project %s created by %s", project.ID.Hex(), actor.Email)

	if clientID != nil {
		s.notifications.Notify(ctx, *clientID, models.NotifyProjectCreated, "New Project",
			fmt.Sprintf("You have been added to project: %s", project.Title), &project.ID, nil)
	}

	return project, nil
}

// ListProjects returns the projects visible to the actor, newest first.
func (s *ProjectService) ListProjects(ctx context.Context, actor *models.User) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.projectsCollection.Find(ctx, projectListFilter(actor), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve projects: %v", err)
	}
	defer cursor.Close(ctx)

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %v", err)
	}
	return projects, nil
}

// GetProject loads a project the actor is allowed to see.
func (s *ProjectService) GetProject(ctx context.Context, actor *models.User, projectID string) (*models.Project, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !models.HasProjectAccess(actor, project) {
		return nil, errForbidden("access denied")
	}
	return project, nil
}

func (s *ProjectService) loadProject(ctx context.Context, projectID string) (*models.Project, error) {
	objectID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, errValidation(map[string]string{"projectId": "invalid project ID format"})
	}

	var project models.Project
	err = s.projectsCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errNotFound("project not found")
		}
		return nil, fmt.Errorf("failed to fetch project: %v", err)
	}
	return &project, nil
}

type UpdateProjectInput struct {
	Title       *string
	Description *string
	Status      *string
	ClientID    *string
	StartDate   *time.Time
	EndDate     *time.Time
	ClientLogo  *models.Attachment
}

// UpdateProject applies metadata and status changes. Moving to in_progress
// backfills the start date, completing backfills the end date and recomputes
// progress from tasks. Team members and the client are notified afterwards.
func (s *ProjectService) UpdateProject(ctx context.Context, actor *models.User, projectID string, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !models.IsProjectManagerOf(actor, project) {
		return nil, errForbidden("only project manager or admin can perform this action")
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, errValidation(map[string]string{"title": "project title is required"})
		}
		project.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		project.Description = *input.Description
	}

	statusChanged := false
	if input.Status != nil {
		if !models.ValidProjectStatus(*input.Status) {
			return nil, errValidation(map[string]string{"status": "invalid project status"})
		}
		project.Status = models.ProjectStatus(*input.Status)
		statusChanged = true

		now := time.Now()
		if project.Status == models.ProjectInProgress && project.StartDate == nil {
			project.StartDate = &now
		}
		if project.Status == models.ProjectCompleted && project.EndDate == nil {
			project.EndDate = &now
		}
	}
	if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		project.EndDate = input.EndDate
	}

	if input.ClientID != nil && *input.ClientID != "" {
		id, err := primitive.ObjectIDFromHex(*input.ClientID)
		if err != nil {
			return nil, errValidation(map[string]string{"clientId": "invalid client ID"})
		}
		var client models.User
		if err := s.usersCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&client); err != nil || client.Role != models.RoleClient {
			return nil, errValidation(map[string]string{"clientId": "invalid client ID"})
		}
		project.Client = &id
	}

	var replacedLogo *models.Attachment
	if input.ClientLogo != nil {
		replacedLogo = applyLogo(project, input.ClientLogo)
	}

	project.UpdatedAt = time.Now()
	if _, err := s.projectsCollection.ReplaceOne(ctx, bson.M{"_id": project.ID}, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %v", err)
	}

	// The replaced logo file goes away only once the new record is stored,
	// so a failed write never leaves the record pointing at a deleted file.
	if replacedLogo != nil {
		if err := s.files.Delete(*replacedLogo); err != nil {
			logging.Logger.Warnf("Event ID: LOGO_DELETE_FAILED, Description: %v", err)
		}
	}

	if statusChanged && project.Status == models.ProjectCompleted {
		if err := s.RecomputeProgress(ctx, project.ID); err != nil {
			logging.Logger.Warnf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: %v", err)
		} else {
			reloaded, err := s.loadProject(ctx, project.ID.Hex())
			if err == nil {
				project = reloaded
			}
		}
	}

	notifyUsers := append([]primitive.ObjectID{}, project.TeamMembers...)
	if project.Client != nil {
		notifyUsers = append(notifyUsers, *project.Client)
	}
	if len(notifyUsers) > 0 {
		message := fmt.Sprintf("Project %q has been updated", project.Title)
		if statusChanged {
			message = fmt.Sprintf("Project %q %s", project.Title, statusMessage(project.Status))
		}
		s.notifications.NotifyMany(ctx, notifyUsers, models.NotifyProjectUpdated, "Project Updated", message, &project.ID, nil)
	}

	return project, nil
}

// AddTeamMember attaches a team_member user to the project.
func (s *ProjectService) AddTeamMember(ctx context.Context, actor *models.User, projectID, userID string) (*models.Project, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !models.IsProjectManagerOf(actor, project) {
		return nil, errForbidden("only project manager or admin can perform this action")
	}

	memberID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errValidation(map[string]string{"userId": "valid user ID is required"})
	}

	var member models.User
	if err := s.usersCollection.FindOne(ctx, bson.M{"_id": memberID}).Decode(&member); err != nil || member.Role != models.RoleTeamMember {
		return nil, errValidation(map[string]string{"userId": "invalid team member ID"})
	}
	if project.HasTeamMember(memberID) {
		return nil, errValidation(map[string]string{"userId": "team member already in project"})
	}

	project.TeamMembers = append(project.TeamMembers, memberID)
	project.UpdatedAt = time.Now()
	update := bson.M{"$push": bson.M{"teamMembers": memberID}, "$set": bson.M{"updatedAt": project.UpdatedAt}}
	if _, err := s.projectsCollection.UpdateOne(ctx, bson.M{"_id": project.ID}, update); err != nil {
		return nil, fmt.Errorf("failed to add team member: %v", err)
	}

	s.notifications.Notify(ctx, memberID, models.NotifyTeamMemberAdded, "Added to Project",
		fmt.Sprintf("You have been added to project: %s", project.Title), &project.ID, nil)

	return project, nil
}

// RemoveTeamMember detaches a team member. Allowed only once the project is
// completed, or at any time by an admin.
func (s *ProjectService) RemoveTeamMember(ctx context.Context, actor *models.User, projectID, userID string) (*models.Project, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !models.IsProjectManagerOf(actor, project) {
		return nil, errForbidden("only project manager or admin can perform this action")
	}
	if project.Status != models.ProjectCompleted && actor.Role != models.RoleAdmin {
		return nil, errForbidden("team members can only be removed after project completion or by admin")
	}

	memberID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errValidation(map[string]string{"userId": "invalid user ID format"})
	}

	update := bson.M{"$pull": bson.M{"teamMembers": memberID}, "$set": bson.M{"updatedAt": time.Now()}}
	if _, err := s.projectsCollection.UpdateOne(ctx, bson.M{"_id": project.ID}, update); err != nil {
		return nil, fmt.Errorf("failed to remove team member: %v", err)
	}

	s.notifications.Notify(ctx, memberID, models.NotifyTeamMemberRemoved, "Removed from Project",
		fmt.Sprintf("You have been removed from project: %s", project.Title), &project.ID, nil)

	return s.loadProject(ctx, projectID)
}

// RemoveClient detaches the client under the same rules as team removal.
func (s *ProjectService) RemoveClient(ctx context.Context, actor *models.User, projectID string) (*models.Project, error) {
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !models.IsProjectManagerOf(actor, project) {
		return nil, errForbidden("only project manager or admin can perform this action")
	}
	if project.Status != models.ProjectCompleted && actor.Role != models.RoleAdmin {
		return nil, errForbidden("client can only be removed after project completion or by admin")
	}

	clientID := project.Client
	update := bson.M{"$unset": bson.M{"client": ""}, "$set": bson.M{"updatedAt": time.Now()}}
	if _, err := s.projectsCollection.UpdateOne(ctx, bson.M{"_id": project.ID}, update); err != nil {
		return nil, fmt.Errorf("failed to remove client: %v", err)
	}

	if clientID != nil {
		s.notifications.Notify(ctx, *clientID, models.NotifyClientRemoved, "Removed from Project",
			fmt.Sprintf("You have been removed from project: %s", project.Title), &project.ID, nil)
	}

	return s.loadProject(ctx, projectID)
}

// RecomputeProgress derives the project percentage from its tasks and
// persists it. Progress is always recomputed from source tasks, never
// adjusted incrementally, so a stale value self-heals on the next trigger.
func (s *ProjectService) RecomputeProgress(ctx context.Context, projectID primitive.ObjectID) error {
	total, err := s.tasksCollection.CountDocuments(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return fmt.Errorf("failed to count tasks: %v", err)
	}
	completed, err := s.tasksCollection.CountDocuments(ctx, bson.M{"projectId": projectID, "status": models.TaskCompleted})
	if err != nil {
		return fmt.Errorf("failed to count completed tasks: %v", err)
	}

	progress := progressFor(int(completed), int(total))
	_, err = s.projectsCollection.UpdateOne(ctx, bson.M{"_id": projectID},
		bson.M{"$set": bson.M{"progress": progress, "updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to persist project progress: %v", err)
	}
	return nil
}

// CompleteOverdueProjects force-completes every project whose end date has
// passed and that is not yet completed. The status guard makes the sweep
// idempotent: a second run in the same day matches nothing new.
func (s *ProjectService) CompleteOverdueProjects(ctx context.Context) (int, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	filter := bson.M{
		"endDate": bson.M{"$lte": today},
		"status":  bson.M{"$ne": models.ProjectCompleted},
	}
	cursor, err := s.projectsCollection.Find(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to find overdue projects: %v", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return 0, fmt.Errorf("failed to decode overdue projects: %v", err)
	}

	for i := range projects {
		project := &projects[i]

		set := bson.M{"status": models.ProjectCompleted, "updatedAt": time.Now()}
		if project.EndDate == nil {
			set["endDate"] = today
		}
		if _, err := s.projectsCollection.UpdateOne(ctx, bson.M{"_id": project.ID}, bson.M{"$set": set}); err != nil {
			logging.Logger.Errorf("Event ID: AUTO_COMPLETE_FAILED, Description: Failed to complete project %s: %v", project.ID.Hex(), err)
			continue
		}

		if err := s.RecomputeProgress(ctx, project.ID); err != nil {
			logging.Logger.Warnf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: %v", err)
		}

		s.notifications.NotifyMany(ctx, project.ParticipantIDs(), models.NotifyProjectUpdated,
			"Project Auto-Completed",
			fmt.Sprintf("Project %q has been automatically completed as the end date has been reached.", project.Title),
			&project.ID, nil)

		logging.Logger.Infof("Event ID: PROJECT_AUTO_COMPLETED, Description: Auto-completed project %s (%s)", project.Title, project.ID.Hex())
	}

	return len(projects), nil
}
