package authz

import (
	"testing"

	"azox/internal/models"
)

var (
	owner = Actor{ID: 1, Username: "owner", Role: models.RoleOwner}
	admin = Actor{ID: 2, Username: "admin", Role: models.RoleAdmin}
	user  = Actor{ID: 3, Username: "user", Role: models.RoleUser}
)

func TestCanModerateUser(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		action  Action
		target  UserTarget
		allowed bool
	}{
		{"admin deletes user", admin, ActionDeleteUser, UserTarget{ID: 10, Role: models.RoleUser}, true},
		{"admin bans user", admin, ActionBanUser, UserTarget{ID: 10, Role: models.RoleUser}, true},
		{"admin unbans user", admin, ActionUnbanUser, UserTarget{ID: 10, Role: models.RoleUser}, true},
		{"admin deletes admin", admin, ActionDeleteUser, UserTarget{ID: 11, Role: models.RoleAdmin}, false},
		{"admin bans admin", admin, ActionBanUser, UserTarget{ID: 11, Role: models.RoleAdmin}, false},
		{"admin bans owner", admin, ActionBanUser, UserTarget{ID: 1, Role: models.RoleOwner}, false},
		{"owner deletes admin", owner, ActionDeleteUser, UserTarget{ID: 11, Role: models.RoleAdmin}, true},
		{"owner bans admin", owner, ActionBanUser, UserTarget{ID: 11, Role: models.RoleAdmin}, true},
		{"owner deletes fellow owner", owner, ActionDeleteUser, UserTarget{ID: 12, Role: models.RoleOwner}, true},
		{"owner bans fellow owner", owner, ActionBanUser, UserTarget{ID: 12, Role: models.RoleOwner}, true},
		{"user deletes user", user, ActionDeleteUser, UserTarget{ID: 10, Role: models.RoleUser}, false},
		{"self delete rejected", admin, ActionDeleteUser, UserTarget{ID: admin.ID, Role: models.RoleAdmin}, false},
		{"owner hard-deletes user", owner, ActionHardDeleteUser, UserTarget{ID: 10, Role: models.RoleUser}, true},
		{"owner hard-deletes admin", owner, ActionHardDeleteUser, UserTarget{ID: 11, Role: models.RoleAdmin}, true},
		{"owner hard-deletes fellow owner", owner, ActionHardDeleteUser, UserTarget{ID: 12, Role: models.RoleOwner}, true},
		{"owner hard-deletes self rejected", owner, ActionHardDeleteUser, UserTarget{ID: owner.ID, Role: models.RoleOwner}, false},
		{"admin hard-deletes user", admin, ActionHardDeleteUser, UserTarget{ID: 10, Role: models.RoleUser}, false},
		{"unknown action", owner, Action("explode_user"), UserTarget{ID: 10, Role: models.RoleUser}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanModerateUser(tt.actor, tt.action, tt.target)
			if tt.allowed && err != nil {
				t.Errorf("expected allowed, got %v", err)
			}
			if !tt.allowed && err == nil {
				t.Error("expected refusal, got nil")
			}
		})
	}
}

func TestCanSetRole(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		target  UserTarget
		newRole models.Role
		allowed bool
	}{
		{"owner promotes user to admin", owner, UserTarget{ID: 10, Role: models.RoleUser}, models.RoleAdmin, true},
		{"owner demotes admin to user", owner, UserTarget{ID: 11, Role: models.RoleAdmin}, models.RoleUser, true},
		{"owner promotes user to owner", owner, UserTarget{ID: 10, Role: models.RoleUser}, models.RoleOwner, true},
		{"owner promotes admin to owner", owner, UserTarget{ID: 11, Role: models.RoleAdmin}, models.RoleOwner, true},
		{"owner demotes fellow owner", owner, UserTarget{ID: 12, Role: models.RoleOwner}, models.RoleUser, true},
		{"admin assigns owner role", admin, UserTarget{ID: 10, Role: models.RoleUser}, models.RoleOwner, false},
		{"admin promotes user to admin", admin, UserTarget{ID: 10, Role: models.RoleUser}, models.RoleAdmin, false},
		{"admin sets user to user", admin, UserTarget{ID: 10, Role: models.RoleUser}, models.RoleUser, false},
		{"admin demotes admin", admin, UserTarget{ID: 11, Role: models.RoleAdmin}, models.RoleUser, false},
		{"user changes roles", user, UserTarget{ID: 10, Role: models.RoleUser}, models.RoleAdmin, false},
		{"self role change", owner, UserTarget{ID: owner.ID, Role: models.RoleOwner}, models.RoleAdmin, false},
		{"unknown role", owner, UserTarget{ID: 10, Role: models.RoleUser}, models.Role("wizard"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanSetRole(tt.actor, tt.target, tt.newRole)
			if tt.allowed && err != nil {
				t.Errorf("expected allowed, got %v", err)
			}
			if !tt.allowed && err == nil {
				t.Error("expected refusal, got nil")
			}
		})
	}
}

func TestCanDeleteContent(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		target  ContentTarget
		allowed bool
	}{
		{"author deletes own", user, ContentTarget{OwnerID: user.ID, OwnerRole: models.RoleUser}, true},
		{"admin deletes user content", admin, ContentTarget{OwnerID: 10, OwnerRole: models.RoleUser}, true},
		{"admin deletes admin content", admin, ContentTarget{OwnerID: 11, OwnerRole: models.RoleAdmin}, false},
		{"owner deletes admin content", owner, ContentTarget{OwnerID: 11, OwnerRole: models.RoleAdmin}, true},
		{"owner deletes fellow owner content", owner, ContentTarget{OwnerID: 12, OwnerRole: models.RoleOwner}, true},
		{"user deletes other user content", user, ContentTarget{OwnerID: 10, OwnerRole: models.RoleUser}, false},
		{"user deletes admin content", user, ContentTarget{OwnerID: 11, OwnerRole: models.RoleAdmin}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanDeleteContent(tt.actor, tt.target)
			if tt.allowed && err != nil {
				t.Errorf("expected allowed, got %v", err)
			}
			if !tt.allowed && err == nil {
				t.Error("expected refusal, got nil")
			}
		})
	}
}

func TestBannedAuthorStillDeletesOwnContent(t *testing.T) {
	banned := Actor{ID: 20, Username: "banned", Role: models.RoleUser}
	if err := CanDeleteContent(banned, ContentTarget{OwnerID: 20, OwnerRole: models.RoleUser}); err != nil {
		t.Errorf("banned author should keep delete rights on own content, got %v", err)
	}
}

func TestCanViewDM(t *testing.T) {
	if err := CanViewDM(user, user.ID, 10); err != nil {
		t.Errorf("participant should read own DMs, got %v", err)
	}
	if err := CanViewDM(user, 10, 11); err == nil {
		t.Error("non-participant user should be refused")
	}
	if err := CanViewDM(admin, 10, 11); err != nil {
		t.Errorf("admin override should be allowed, got %v", err)
	}
	if err := CanViewDM(owner, 10, 11); err != nil {
		t.Errorf("owner override should be allowed, got %v", err)
	}

	if IsDMOverride(user, user.ID, 10) {
		t.Error("participant read is not an override")
	}
	if !IsDMOverride(admin, 10, 11) {
		t.Error("admin reading a thread they are not part of is an override")
	}
	if IsDMOverride(admin, admin.ID, 11) {
		t.Error("admin reading their own thread is not an override")
	}
}

func TestOwnerGates(t *testing.T) {
	if err := CanPurge(owner); err != nil {
		t.Errorf("owner purge should be allowed, got %v", err)
	}
	if err := CanPurge(admin); err == nil {
		t.Error("admin purge should be refused")
	}
	if err := CanBulkModerate(admin); err != nil {
		t.Errorf("admin bulk moderation should be allowed, got %v", err)
	}
	if err := CanBulkModerate(user); err == nil {
		t.Error("user bulk moderation should be refused")
	}
}
