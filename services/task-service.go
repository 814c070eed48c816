package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sundayekpa25-ai/projectsandtasks/logging"
	"github.com/sundayekpa25-ai/projectsandtasks/models"
)

// TaskService is the task review workflow engine. Tasks move through
// initiated -> submitted -> pm_reviewed -> client_reviewed -> completed,
// with rejected reachable from either review stage and resubmission going
// back through submit.
type TaskService struct {
	tasksCollection    *mongo.Collection
	projectsCollection *mongo.Collection
	notifications      *NotificationService
	projects           *ProjectService
}

func NewTaskService(tasksCollection, projectsCollection *mongo.Collection, notifications *NotificationService, projects *ProjectService) *TaskService {
	return &TaskService{
		tasksCollection:    tasksCollection,
		projectsCollection: projectsCollection,
		notifications:      notifications,
		projects:           projects,
	}
}

// applySubmission moves a task into submitted, overwriting any previous
// submission payload. Valid only from initiated or rejected; feedback from
// earlier reviews is kept until the next review overwrites it.
func applySubmission(task *models.Task, sub models.Submission) error {
	if task.Status != models.TaskInitiated && task.Status != models.TaskRejected {
		return errInvalidTransition("task is not in a state for submission")
	}
	task.Status = models.TaskSubmitted
	task.Submission = &sub
	task.SubmittedAt = &sub.SubmittedAt
	task.CalculateProgress()
	return nil
}

// applyReview performs the staged review. The project manager (or an admin)
// reviews a submitted task; the client (or an admin standing in for one)
// reviews after PM approval. Client approval completes the task in the same
// operation. Rejection at either stage moves the task to rejected without
// clearing earlier feedback, and keeps the last computed percentage.
func applyReview(task *models.Task, project *models.Project, actor *models.User, rating models.Rating, feedback string) error {
	isPM := models.IsProjectManagerOf(actor, project)
	isClient := project.Client != nil && *project.Client == actor.ID
	isAdmin := actor.Role == models.RoleAdmin

	if !isPM && !isClient {
		return errForbidden("only project manager, client, or admin can review tasks")
	}

	if isPM {
		if task.Status != models.TaskSubmitted && task.Status != models.TaskPMReviewed {
			return errInvalidTransition("task is not in a state for PM review")
		}
		task.PMRating = rating
		task.PMFeedback = feedback
		if rating == models.RatingApproved {
			task.Status = models.TaskPMReviewed
		} else {
			task.Status = models.TaskRejected
		}
	}

	// An admin who just approved at the PM stage falls through and performs
	// the client stage too, matching the delegated-review behavior.
	if isClient || (isAdmin && task.Status == models.TaskPMReviewed && task.PMRating == models.RatingApproved) {
		if task.Status != models.TaskPMReviewed || task.PMRating != models.RatingApproved {
			return errInvalidTransition("task must be approved by the project manager before client review")
		}
		task.ClientRating = rating
		task.ClientFeedback = feedback
		if rating == models.RatingApproved {
			task.Status = models.TaskClientReviewed
		} else {
			task.Status = models.TaskRejected
		}
	}

	if task.Status == models.TaskClientReviewed && task.ClientRating == models.RatingApproved {
		task.Status = models.TaskCompleted
	}

	task.CalculateProgress()
	return nil
}

// taskListFilter scopes a task listing by role. Managers and clients see
// tasks inside their own projects only; an explicit project filter narrows
// within that set, never past it. Team members see tasks assigned to them.
func taskListFilter(u *models.User, projectIDs []primitive.ObjectID, projectFilter *primitive.ObjectID) bson.M {
	filter := bson.M{}

	switch u.Role {
	case models.RoleAdmin:
		if projectFilter != nil {
			filter["projectId"] = *projectFilter
		}
	case models.RoleTeamMember:
		filter["assignedTo"] = u.ID
		if projectFilter != nil {
			filter["projectId"] = *projectFilter
		}
	default: // project_manager, client
		scope := projectIDs
		if projectFilter != nil {
			scope = nil
			for _, id := range projectIDs {
				if id == *projectFilter {
					scope = append(scope, id)
					break
				}
			}
		}
		if scope == nil {
			scope = []primitive.ObjectID{}
		}
		filter["projectId"] = bson.M{"$in": scope}
	}
	return filter
}

type CreateTaskInput struct {
	Title       string
	Description string
	ProjectID   string
	AssignedTo  string
	Priority    string
	DueDate     *time.Time
}

// CreateTask creates a task in state initiated. Creating the first task of a
// not_started project moves the project to in_progress.
func (s *TaskService) CreateTask(ctx context.Context, actor *models.User, input CreateTaskInput) (*models.Task, error) {
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleProjectManager {
		return nil, errForbidden("only project manager or admin can create tasks")
	}

	fields := map[string]string{}
	if strings.TrimSpace(input.Title) == "" {
		fields["title"] = "task title is required"
	}
	projectID, err := primitive.ObjectIDFromHex(input.ProjectID)
	if err != nil {
		fields["projectId"] = "valid project ID is required"
	}
	if len(fields) > 0 {
		return nil, errValidation(fields)
	}

	var project models.Project
	err = s.projectsCollection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errNotFound("project not found")
		}
		return nil, fmt.Errorf("failed to fetch project: %v", err)
	}

	if !models.IsProjectManagerOf(actor, &project) {
		return nil, errForbidden("only project manager or admin can create tasks")
	}

	var assignedTo *primitive.ObjectID
	if input.AssignedTo != "" {
		id, err := primitive.ObjectIDFromHex(input.AssignedTo)
		if err != nil {
			return nil, errValidation(map[string]string{"assignedTo": "invalid user ID format"})
		}
		if !project.HasTeamMember(id) {
			return nil, errValidation(map[string]string{"assignedTo": "assigned user must be a team member of the project"})
		}
		assignedTo = &id
	}

	priority := models.TaskPriority(input.Priority)
	switch priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
	case "":
		priority = models.PriorityMedium
	default:
		return nil, errValidation(map[string]string{"priority": "priority must be low, medium, or high"})
	}

	now := time.Now()
	task := &models.Task{
		ID:           primitive.NewObjectID(),
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		ProjectID:    projectID,
		AssignedTo:   assignedTo,
		AssignedBy:   actor.ID,
		Status:       models.TaskInitiated,
		Priority:     priority,
		DueDate:      input.DueDate,
		PMRating:     models.RatingPending,
		ClientRating: models.RatingPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	task.CalculateProgress()

	if _, err := s.tasksCollection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created in project %s by %s", task.ID.Hex(), projectID.Hex(), actor.Email)

	if assignedTo != nil {
		s.notifications.Notify(ctx, *assignedTo, models.NotifyTaskAssigned, "New Task Assigned",
			fmt.Sprintf("You have been assigned a new task: %s", task.Title), &projectID, &task.ID)
	}

	// First task flips a not_started project into in_progress.
	if project.Status == models.ProjectNotStarted {
		set := bson.M{"status": models.ProjectInProgress, "updatedAt": now}
		if project.StartDate == nil {
			set["startDate"] = now
		}
		if _, err := s.projectsCollection.UpdateOne(ctx, bson.M{"_id": projectID}, bson.M{"$set": set}); err != nil {
			logging.Logger.Warnf("Event ID: PROJECT_START_FAILED, Description: Failed to start project %s: %v", projectID.Hex(), err)
		}
	}

	if err := s.projects.RecomputeProgress(ctx, projectID); err != nil {
		logging.Logger.Warnf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: %v", err)
	}

	return task, nil
}

// ListTasks returns the tasks visible to the actor, optionally narrowed to
// one project, newest first.
func (s *TaskService) ListTasks(ctx context.Context, actor *models.User, projectID string) ([]models.Task, error) {
	var projectFilter *primitive.ObjectID
	if projectID != "" {
		id, err := primitive.ObjectIDFromHex(projectID)
		if err != nil {
			return nil, errValidation(map[string]string{"projectId": "invalid project ID format"})
		}
		projectFilter = &id
	}

	var projectIDs []primitive.ObjectID
	if actor.Role == models.RoleProjectManager || actor.Role == models.RoleClient {
		key := "projectManager"
		if actor.Role == models.RoleClient {
			key = "client"
		}
		cursor, err := s.projectsCollection.Find(ctx, bson.M{key: actor.ID})
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve projects: %v", err)
		}
		var projects []models.Project
		if err := cursor.All(ctx, &projects); err != nil {
			return nil, fmt.Errorf("failed to decode projects: %v", err)
		}
		for _, p := range projects {
			projectIDs = append(projectIDs, p.ID)
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.tasksCollection.Find(ctx, taskListFilter(actor, projectIDs, projectFilter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

// GetTask loads a task the actor is allowed to see.
func (s *TaskService) GetTask(ctx context.Context, actor *models.User, taskID string) (*models.Task, error) {
	task, project, err := s.loadTaskWithProject(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !models.CanViewTask(actor, task, project) {
		return nil, errForbidden("access denied")
	}
	return task, nil
}

func (s *TaskService) loadTaskWithProject(ctx context.Context, taskID string) (*models.Task, *models.Project, error) {
	objectID, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, nil, errValidation(map[string]string{"taskId": "invalid task ID format"})
	}

	var task models.Task
	err = s.tasksCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&task)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil, errNotFound("task not found")
		}
		return nil, nil, fmt.Errorf("failed to fetch task: %v", err)
	}

	var project models.Project
	err = s.projectsCollection.FindOne(ctx, bson.M{"_id": task.ProjectID}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil, errNotFound("project not found")
		}
		return nil, nil, fmt.Errorf("failed to fetch project: %v", err)
	}

	return &task, &project, nil
}

// SubmitWork stores a submission payload on the task and moves it to
// submitted. The caller is responsible for deleting stored files when an
// error is returned.
func (s *TaskService) SubmitWork(ctx context.Context, actor *models.User, taskID, work string, files []models.Attachment) (*models.Task, error) {
	if strings.TrimSpace(work) == "" {
		return nil, errValidation(map[string]string{"work": "work description is required"})
	}

	task, project, err := s.loadTaskWithProject(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !models.CanSubmitTask(actor, task, project) {
		return nil, errForbidden("only assigned team member, project manager, client, or admin can submit work")
	}

	sub := models.Submission{
		Work:        strings.TrimSpace(work),
		Files:       files,
		SubmittedAt: time.Now(),
	}
	if files == nil {
		sub.Files = []models.Attachment{}
	}
	if err := applySubmission(task, sub); err != nil {
		return nil, err
	}

	task.UpdatedAt = time.Now()
	if _, err := s.tasksCollection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task); err != nil {
		return nil, fmt.Errorf("failed to save submission: %v", err)
	}

	logging.Logger.Infof("Event ID: TASK_SUBMITTED, Description: Task %s submitted by %s", task.ID.Hex(), actor.Email)

	if err := s.projects.RecomputeProgress(ctx, project.ID); err != nil {
		logging.Logger.Warnf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: %v", err)
	}

	notifyUsers := []primitive.ObjectID{project.ProjectManager}
	if project.Client != nil {
		notifyUsers = append(notifyUsers, *project.Client)
	}
	s.notifications.NotifyMany(ctx, notifyUsers, models.NotifyTaskSubmitted, "Task Submitted",
		fmt.Sprintf("Task %q has been submitted for review", task.Title), &project.ID, &task.ID)

	return task, nil
}

// ReviewTask runs one review stage. Client approval of a PM-approved task
// completes it within the same call, and the owning project's progress is
// recomputed afterwards.
func (s *TaskService) ReviewTask(ctx context.Context, actor *models.User, taskID string, rating, feedback string) (*models.Task, error) {
	if rating != string(models.RatingApproved) && rating != string(models.RatingRejected) {
		return nil, errValidation(map[string]string{"rating": "rating must be approved or rejected"})
	}

	task, project, err := s.loadTaskWithProject(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := applyReview(task, project, actor, models.Rating(rating), strings.TrimSpace(feedback)); err != nil {
		return nil, err
	}

	task.UpdatedAt = time.Now()
	if _, err := s.tasksCollection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task); err != nil {
		return nil, fmt.Errorf("failed to save review: %v", err)
	}

	logging.Logger.Infof("Event ID: TASK_REVIEWED, Description: Task %s reviewed as %s by %s, status now %s", task.ID.Hex(), rating, actor.Email, task.Status)

	if err := s.projects.RecomputeProgress(ctx, project.ID); err != nil {
		logging.Logger.Warnf("Event ID: PROGRESS_RECOMPUTE_FAILED, Description: %v", err)
	}

	if task.AssignedTo != nil {
		reviewer := "by PM"
		if project.Client != nil && *project.Client == actor.ID {
			reviewer = "by client"
		}
		s.notifications.Notify(ctx, *task.AssignedTo, models.NotifyTaskReviewed, "Task Reviewed",
			fmt.Sprintf("Your task %q has been %s %s", task.Title, rating, reviewer), &project.ID, &task.ID)
	}

	return task, nil
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	AssignedTo  *string
	Priority    *string
	DueDate     *time.Time
}

// UpdateTask edits task metadata. Reassignment is validated against the
// project's current team.
func (s *TaskService) UpdateTask(ctx context.Context, actor *models.User, taskID string, input UpdateTaskInput) (*models.Task, error) {
	task, project, err := s.loadTaskWithProject(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !models.IsProjectManagerOf(actor, project) {
		return nil, errForbidden("only project manager can update tasks")
	}

	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		priority := models.TaskPriority(*input.Priority)
		switch priority {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
			task.Priority = priority
		default:
			return nil, errValidation(map[string]string{"priority": "priority must be low, medium, or high"})
		}
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.AssignedTo != nil && *input.AssignedTo != "" {
		id, err := primitive.ObjectIDFromHex(*input.AssignedTo)
		if err != nil {
			return nil, errValidation(map[string]string{"assignedTo": "invalid user ID format"})
		}
		if !project.HasTeamMember(id) {
			return nil, errValidation(map[string]string{"assignedTo": "assigned user must be a team member"})
		}
		task.AssignedTo = &id
	}

	task.UpdatedAt = time.Now()
	if _, err := s.tasksCollection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %v", err)
	}

	return task, nil
}
