package models

// Access predicates are the single place where project-level permissions are
// decided. Every handler and service gating a project, task, file or chat
// operation goes through these instead of repeating the checks inline.

// HasProjectAccess reports whether the user may see the project at all:
// admins, the assigned manager, the attached client and team members.
func HasProjectAccess(u *User, p *Project) bool {
	if u == nil || p == nil {
		return false
	}
	if u.Role == RoleAdmin {
		return true
	}
	if p.ProjectManager == u.ID {
		return true
	}
	if p.Client != nil && *p.Client == u.ID {
		return true
	}
	return p.HasTeamMember(u.ID)
}

// IsProjectManagerOf reports whether the user may act as the project's
// manager: admins or the assigned manager.
func IsProjectManagerOf(u *User, p *Project) bool {
	if u == nil || p == nil {
		return false
	}
	return u.Role == RoleAdmin || p.ProjectManager == u.ID
}

// CanSubmitTask reports whether the user may submit work for the task:
// the assignee, the project's manager, the project's client, or an admin.
func CanSubmitTask(u *User, t *Task, p *Project) bool {
	if u == nil || t == nil || p == nil {
		return false
	}
	if t.AssignedTo != nil && *t.AssignedTo == u.ID {
		return true
	}
	if p.ProjectManager == u.ID || u.Role == RoleAdmin {
		return true
	}
	return p.Client != nil && *p.Client == u.ID
}

// CanViewTask extends HasProjectAccess with the assignee, who may see the
// task even if no longer on the project team.
func CanViewTask(u *User, t *Task, p *Project) bool {
	if t != nil && u != nil && t.AssignedTo != nil && *t.AssignedTo == u.ID {
		return true
	}
	return HasProjectAccess(u, p)
}

// CanOnboard reports whether a user with role creator may onboard a user
// with role target. Admins onboard anyone; project managers onboard team
// members and clients only.
func CanOnboard(creator, target Role) bool {
	switch creator {
	case RoleAdmin:
		return true
	case RoleProjectManager:
		return target == RoleTeamMember || target == RoleClient
	}
	return false
}
