package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func buildProject() (*Project, *User, *User, *User, *User) {
	pm := &User{ID: primitive.NewObjectID(), Role: RoleProjectManager}
	member := &User{ID: primitive.NewObjectID(), Role: RoleTeamMember}
	client := &User{ID: primitive.NewObjectID(), Role: RoleClient}
	admin := &User{ID: primitive.NewObjectID(), Role: RoleAdmin}

	project := &Project{
		ID:             primitive.NewObjectID(),
		ProjectManager: pm.ID,
		Client:         &client.ID,
		TeamMembers:    []primitive.ObjectID{member.ID},
	}
	return project, pm, member, client, admin
}

func TestHasProjectAccess(t *testing.T) {
	project, pm, member, client, admin := buildProject()
	outsider := &User{ID: primitive.NewObjectID(), Role: RoleTeamMember}

	tests := []struct {
		name string
		user *User
		want bool
	}{
		{"admin", admin, true},
		{"project manager", pm, true},
		{"team member", member, true},
		{"client", client, true},
		{"unrelated team member", outsider, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasProjectAccess(tt.user, project); got != tt.want {
				t.Errorf("HasProjectAccess() = %v, want %v", got, tt.want)
			}
		})
	}

	if HasProjectAccess(nil, project) {
		t.Error("HasProjectAccess(nil, project) = true, want false")
	}
}

func TestIsProjectManagerOf(t *testing.T) {
	project, pm, member, client, admin := buildProject()

	if !IsProjectManagerOf(pm, project) {
		t.Error("assigned manager should pass")
	}
	if !IsProjectManagerOf(admin, project) {
		t.Error("admin should pass")
	}
	if IsProjectManagerOf(member, project) || IsProjectManagerOf(client, project) {
		t.Error("member and client should not pass")
	}

	otherPM := &User{ID: primitive.NewObjectID(), Role: RoleProjectManager}
	if IsProjectManagerOf(otherPM, project) {
		t.Error("a manager of a different project should not pass")
	}
}

func TestCanSubmitTask(t *testing.T) {
	project, pm, member, client, admin := buildProject()
	task := &Task{ProjectID: project.ID, AssignedTo: &member.ID}

	for _, u := range []*User{member, pm, client, admin} {
		if !CanSubmitTask(u, task, project) {
			t.Errorf("role %s should be allowed to submit", u.Role)
		}
	}

	otherMember := &User{ID: primitive.NewObjectID(), Role: RoleTeamMember}
	if CanSubmitTask(otherMember, task, project) {
		t.Error("an unassigned outsider should not be allowed to submit")
	}
}

func TestCanViewTaskIncludesAssignee(t *testing.T) {
	project, _, member, _, _ := buildProject()

	// Assignee removed from the team still sees their task.
	project.TeamMembers = nil
	task := &Task{ProjectID: project.ID, AssignedTo: &member.ID}
	if !CanViewTask(member, task, project) {
		t.Error("assignee should keep access to the task")
	}
	if HasProjectAccess(member, project) {
		t.Error("removed member should no longer have project access")
	}
}

func TestCanOnboard(t *testing.T) {
	tests := []struct {
		creator Role
		target  Role
		want    bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleProjectManager, true},
		{RoleAdmin, RoleTeamMember, true},
		{RoleAdmin, RoleClient, true},
		{RoleProjectManager, RoleTeamMember, true},
		{RoleProjectManager, RoleClient, true},
		{RoleProjectManager, RoleProjectManager, false},
		{RoleProjectManager, RoleAdmin, false},
		{RoleTeamMember, RoleTeamMember, false},
		{RoleClient, RoleClient, false},
	}
	for _, tt := range tests {
		if got := CanOnboard(tt.creator, tt.target); got != tt.want {
			t.Errorf("CanOnboard(%s, %s) = %v, want %v", tt.creator, tt.target, got, tt.want)
		}
	}
}

func TestParticipantIDs(t *testing.T) {
	project, pm, member, client, _ := buildProject()

	ids := project.ParticipantIDs()
	if len(ids) != 3 {
		t.Fatalf("ParticipantIDs() returned %d ids, want 3", len(ids))
	}
	want := map[primitive.ObjectID]bool{pm.ID: true, member.ID: true, client.ID: true}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected participant %s", id.Hex())
		}
	}

	// A manager doubling as team member is not listed twice.
	project.TeamMembers = append(project.TeamMembers, pm.ID)
	if got := len(project.ParticipantIDs()); got != 3 {
		t.Errorf("ParticipantIDs() with duplicate manager = %d ids, want 3", got)
	}
}
