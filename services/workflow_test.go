package services

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sundayekpa25-ai/projectsandtasks/models"
)

type workflowFixture struct {
	project *models.Project
	pm      *models.User
	member  *models.User
	client  *models.User
	admin   *models.User
}

func newWorkflowFixture() workflowFixture {
	pm := &models.User{ID: primitive.NewObjectID(), Role: models.RoleProjectManager}
	member := &models.User{ID: primitive.NewObjectID(), Role: models.RoleTeamMember}
	client := &models.User{ID: primitive.NewObjectID(), Role: models.RoleClient}
	admin := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	project := &models.Project{
		ID:             primitive.NewObjectID(),
		ProjectManager: pm.ID,
		Client:         &client.ID,
		TeamMembers:    []primitive.ObjectID{member.ID},
	}
	return workflowFixture{project: project, pm: pm, member: member, client: client, admin: admin}
}

func initiatedTask(f workflowFixture) *models.Task {
	task := &models.Task{
		ID:           primitive.NewObjectID(),
		Title:        "build the widget",
		ProjectID:    f.project.ID,
		AssignedTo:   &f.member.ID,
		AssignedBy:   f.pm.ID,
		Status:       models.TaskInitiated,
		PMRating:     models.RatingPending,
		ClientRating: models.RatingPending,
	}
	task.CalculateProgress()
	return task
}

func submit(t *testing.T, task *models.Task) {
	t.Helper()
	if err := applySubmission(task, models.Submission{Work: "done"}); err != nil {
		t.Fatalf("applySubmission() error = %v", err)
	}
}

func TestSubmissionFromInitiated(t *testing.T) {
	f := newWorkflowFixture()
	task := initiatedTask(f)

	submit(t, task)

	if task.Status != models.TaskSubmitted {
		t.Errorf("status = %s, want submitted", task.Status)
	}
	if task.ProgressPercentage != 30 {
		t.Errorf("progress = %d, want 30", task.ProgressPercentage)
	}
	if task.Submission == nil || task.Submission.Work != "done" {
		t.Error("submission payload not stored")
	}
}

func TestSubmissionInvalidStates(t *testing.T) {
	f := newWorkflowFixture()
	for _, status := range []models.TaskStatus{models.TaskSubmitted, models.TaskPMReviewed, models.TaskClientReviewed, models.TaskCompleted} {
		task := initiatedTask(f)
		task.Status = status
		err := applySubmission(task, models.Submission{Work: "again"})
		if KindOf(err) != KindInvalidTransition {
			t.Errorf("submit from %s: kind = %v, want KindInvalidTransition", status, KindOf(err))
		}
	}
}

func TestPMReviewOfInitiatedTaskFails(t *testing.T) {
	f := newWorkflowFixture()
	task := initiatedTask(f)

	err := applyReview(task, f.project, f.pm, models.RatingApproved, "")
	if KindOf(err) != KindInvalidTransition {
		t.Fatalf("kind = %v, want KindInvalidTransition", KindOf(err))
	}
	if task.Status != models.TaskInitiated {
		t.Errorf("status changed to %s on failed review", task.Status)
	}
}

func TestClientReviewBeforePMApprovalFails(t *testing.T) {
	f := newWorkflowFixture()
	task := initiatedTask(f)
	submit(t, task)

	err := applyReview(task, f.project, f.client, models.RatingApproved, "")
	if KindOf(err) != KindInvalidTransition {
		t.Errorf("client review of submitted task: kind = %v, want KindInvalidTransition", KindOf(err))
	}

	// PM rejection also blocks the client stage.
	if err := applyReview(task, f.project, f.pm, models.RatingRejected, "redo"); err != nil {
		t.Fatalf("PM rejection error = %v", err)
	}
	err = applyReview(task, f.project, f.client, models.RatingApproved, "")
	if KindOf(err) != KindInvalidTransition {
		t.Errorf("client review of rejected task: kind = %v, want KindInvalidTransition", KindOf(err))
	}
}

func TestTwoStageApprovalCompletesTask(t *testing.T) {
	f := newWorkflowFixture()
	task := initiatedTask(f)
	submit(t, task)

	if err := applyReview(task, f.project, f.pm, models.RatingApproved, "nice"); err != nil {
		t.Fatalf("PM review error = %v", err)
	}
	if task.Status != models.TaskPMReviewed || task.ProgressPercentage != 60 {
		t.Fatalf("after PM approval: status=%s progress=%d, want pm_reviewed/60", task.Status, task.ProgressPercentage)
	}

	// A single client approval carries the task through client_reviewed to
	// completed; no separate complete call exists.
	if err := applyReview(task, f.project, f.client, models.RatingApproved, "ship it"); err != nil {
		t.Fatalf("client review error = %v", err)
	}
	if task.Status != models.TaskCompleted {
		t.Errorf("status = %s, want completed", task.Status)
	}
	if task.ProgressPercentage != 100 {
		t.Errorf("progress = %d, want 100", task.ProgressPercentage)
	}
	if task.ClientRating != models.RatingApproved || task.ClientFeedback != "ship it" {
		t.Error("client rating/feedback not recorded")
	}
}

func TestRejectionAndResubmission(t *testing.T) {
	f := newWorkflowFixture()
	task := initiatedTask(f)
	submit(t, task)

	if err := applyReview(task, f.project, f.pm, models.RatingRejected, "not there yet"); err != nil {
		t.Fatalf("PM rejection error = %v", err)
	}
	if task.Status != models.TaskRejected {
		t.Fatalf("status = %s, want rejected", task.Status)
	}
	// Rejection keeps the last computed percentage.
	if task.ProgressPercentage != 30 {
		t.Errorf("progress after rejection = %d, want 30", task.ProgressPercentage)
	}

	submit(t, task)
	if task.Status != models.TaskSubmitted || task.ProgressPercentage != 30 {
		t.Errorf("after resubmission: status=%s progress=%d, want submitted/30", task.Status, task.ProgressPercentage)
	}
	// Earlier feedback survives until the next review overwrites it.
	if task.PMFeedback != "not there yet" {
		t.Errorf("pmFeedback = %q, want preserved", task.PMFeedback)
	}
}

func TestClientRejectionKeepsPMStageProgress(t *testing.T) {
	f := newWorkflowFixture()
	task := initiatedTask(f)
	submit(t, task)

	if err := applyReview(task, f.project, f.pm, models.RatingApproved, ""); err != nil {
		t.Fatalf("PM review error = %v", err)
	}
	if err := applyReview(task, f.project, f.client, models.RatingRejected, "wrong color"); err != nil {
		t.Fatalf("client rejection error = %v", err)
	}

	if task.Status != models.TaskRejected {
		t.Errorf("status = %s, want rejected", task.Status)
	}
	if task.ProgressPercentage != 60 {
		t.Errorf("progress = %d, want 60 (last computed value)", task.ProgressPercentage)
	}
}

func TestAdminActsAsClientReviewer(t *testing.T) {
	f := newWorkflowFixture()
	task := initiatedTask(f)
	submit(t, task)

	if err := applyReview(task, f.project, f.pm, models.RatingApproved, ""); err != nil {
		t.Fatalf("PM review error = %v", err)
	}

	// Delegated review: the admin performs the client stage.
	if err := applyReview(task, f.project, f.admin, models.RatingApproved, ""); err != nil {
		t.Fatalf("admin review error = %v", err)
	}
	if task.Status != models.TaskCompleted {
		t.Errorf("status = %s, want completed", task.Status)
	}
}

func TestAdminApprovalOfSubmittedTaskRunsBothStages(t *testing.T) {
	f := newWorkflowFixture()
	task := initiatedTask(f)
	submit(t, task)

	// One admin approval performs the PM stage and then falls through to
	// the client stage in the same operation.
	if err := applyReview(task, f.project, f.admin, models.RatingApproved, ""); err != nil {
		t.Fatalf("admin review error = %v", err)
	}
	if task.Status != models.TaskCompleted {
		t.Errorf("status = %s, want completed", task.Status)
	}
	if task.PMRating != models.RatingApproved || task.ClientRating != models.RatingApproved {
		t.Error("both stage ratings should be recorded")
	}
}

func TestReviewByOutsiderForbidden(t *testing.T) {
	f := newWorkflowFixture()
	task := initiatedTask(f)
	submit(t, task)

	outsider := &models.User{ID: primitive.NewObjectID(), Role: models.RoleTeamMember}
	err := applyReview(task, f.project, outsider, models.RatingApproved, "")
	if KindOf(err) != KindForbidden {
		t.Errorf("kind = %v, want KindForbidden", KindOf(err))
	}

	// Even the assignee cannot review their own work.
	err = applyReview(task, f.project, f.member, models.RatingApproved, "")
	if KindOf(err) != KindForbidden {
		t.Errorf("assignee review: kind = %v, want KindForbidden", KindOf(err))
	}
}

func TestProgressFor(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{3, 3, 100},
		{1, 6, 17},
	}
	for _, tt := range tests {
		if got := progressFor(tt.completed, tt.total); got != tt.want {
			t.Errorf("progressFor(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}

func TestProjectListFilter(t *testing.T) {
	userID := primitive.NewObjectID()

	tests := []struct {
		role models.Role
		want bson.M
	}{
		{models.RoleAdmin, bson.M{}},
		{models.RoleProjectManager, bson.M{"projectManager": userID}},
		{models.RoleTeamMember, bson.M{"teamMembers": userID}},
		{models.RoleClient, bson.M{"client": userID}},
	}
	for _, tt := range tests {
		u := &models.User{ID: userID, Role: tt.role}
		got := projectListFilter(u)
		if len(got) != len(tt.want) {
			t.Errorf("projectListFilter(%s) = %v, want %v", tt.role, got, tt.want)
			continue
		}
		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("projectListFilter(%s)[%s] = %v, want %v", tt.role, k, got[k], v)
			}
		}
	}
}

func scopedProjectIDs(t *testing.T, filter bson.M) []primitive.ObjectID {
	t.Helper()
	scope, ok := filter["projectId"].(bson.M)
	if !ok {
		t.Fatalf("filter = %v, want $in projectId scoping", filter)
	}
	ids, ok := scope["$in"].([]primitive.ObjectID)
	if !ok {
		t.Fatalf("$in = %v, want object id list", scope["$in"])
	}
	return ids
}

func TestTaskListFilter(t *testing.T) {
	userID := primitive.NewObjectID()
	projectID := primitive.NewObjectID()

	member := &models.User{ID: userID, Role: models.RoleTeamMember}
	got := taskListFilter(member, nil, nil)
	if got["assignedTo"] != userID {
		t.Errorf("team member filter = %v, want assignedTo scoping", got)
	}

	admin := &models.User{ID: userID, Role: models.RoleAdmin}
	if got := taskListFilter(admin, nil, nil); len(got) != 0 {
		t.Errorf("admin filter = %v, want empty", got)
	}
	got = taskListFilter(admin, nil, &projectID)
	if got["projectId"] != projectID {
		t.Errorf("admin filter with project = %v, want exact projectId", got)
	}

	pm := &models.User{ID: userID, Role: models.RoleProjectManager}
	ids := scopedProjectIDs(t, taskListFilter(pm, []primitive.ObjectID{projectID}, nil))
	if len(ids) != 1 || ids[0] != projectID {
		t.Errorf("manager scope = %v, want owned projects", ids)
	}

	// An explicit filter for an owned project narrows to just that project.
	ids = scopedProjectIDs(t, taskListFilter(pm, []primitive.ObjectID{projectID, primitive.NewObjectID()}, &projectID))
	if len(ids) != 1 || ids[0] != projectID {
		t.Errorf("manager filter with owned project = %v, want that project only", ids)
	}
}

func TestTaskListFilterKeepsOwnershipScope(t *testing.T) {
	owned := primitive.NewObjectID()
	foreign := primitive.NewObjectID()

	// A project filter outside the owned set must match nothing, not widen
	// the listing to someone else's project.
	for _, role := range []models.Role{models.RoleProjectManager, models.RoleClient} {
		u := &models.User{ID: primitive.NewObjectID(), Role: role}
		ids := scopedProjectIDs(t, taskListFilter(u, []primitive.ObjectID{owned}, &foreign))
		if len(ids) != 0 {
			t.Errorf("%s: filter for a project outside the owned set = %v, want empty scope", role, ids)
		}
	}

	// A client owning no projects gets an empty scope, not an open filter.
	client := &models.User{ID: primitive.NewObjectID(), Role: models.RoleClient}
	ids := scopedProjectIDs(t, taskListFilter(client, nil, nil))
	if len(ids) != 0 {
		t.Errorf("client with no projects: scope = %v, want empty", ids)
	}
}

func TestServiceErrorFieldsEnumerated(t *testing.T) {
	err := errValidation(map[string]string{
		"title":     "task title is required",
		"projectId": "valid project ID is required",
	})
	if KindOf(err) != KindValidationFailed {
		t.Fatalf("kind = %v, want KindValidationFailed", KindOf(err))
	}
	fields := FieldsOf(err)
	if len(fields) != 2 {
		t.Errorf("FieldsOf() returned %d fields, want 2", len(fields))
	}
	msg := err.Error()
	if msg != "validation failed (projectId: valid project ID is required; title: task title is required)" {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestStorageErrorClassification(t *testing.T) {
	cause := errors.New("disk full")
	err := StorageError("failed to store uploaded file", cause)

	if KindOf(err) != KindStorageFailure {
		t.Errorf("kind = %v, want KindStorageFailure", KindOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through errors.Is")
	}
	if err.Error() != "failed to store uploaded file" {
		t.Errorf("message = %q, cause must not leak into it", err.Error())
	}
}

func TestApplyLogoReturnsReplacedAttachment(t *testing.T) {
	old := &models.Attachment{Filename: "client-logo-old.png"}
	project := &models.Project{ClientLogo: old}
	newLogo := &models.Attachment{Filename: "client-logo-new.png"}

	replaced := applyLogo(project, newLogo)
	if replaced != old {
		t.Error("replaced attachment should be the previous logo")
	}
	if project.ClientLogo != newLogo {
		t.Error("project should carry the new logo")
	}

	// First logo: nothing to clean up afterwards.
	fresh := &models.Project{}
	if got := applyLogo(fresh, newLogo); got != nil {
		t.Errorf("replaced = %v, want nil for a project without a logo", got)
	}
}
