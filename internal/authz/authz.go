// Package authz decides whether an actor may perform a moderation or
// ownership action. Decisions are pure functions of the actor, the action
// and the target; callers resolve records and check existence first, then
// ask here before touching the database.
package authz

import (
	"azox/internal/models"
)

// Actor identifies who is performing an action. Handlers build it from the
// authenticated user's row, never from ambient request state.
type Actor struct {
	ID       uint
	Username string
	Role     models.Role
}

// Action is a moderation or account capability.
type Action string

const (
	// Actions against another user account.
	ActionDeleteUser     Action = "delete_user"
	ActionBanUser        Action = "ban_user"
	ActionUnbanUser      Action = "unban_user"
	ActionHardDeleteUser Action = "hard_delete_user"
	ActionSetRole        Action = "set_role"

	// Actions against content (threads, posts, chat messages).
	ActionDeleteContent Action = "delete_content"

	// Actions with no single target user.
	ActionBulkModerate Action = "bulk_moderate"
	ActionPurgeInactive Action = "purge_inactive"
	ActionViewDM        Action = "view_dm"
)

// UserTarget is the account an action is aimed at.
type UserTarget struct {
	ID   uint
	Role models.Role
}

// ContentTarget is a piece of content and its author.
type ContentTarget struct {
	OwnerID   uint
	OwnerRole models.Role
}

// CanModerateUser reports whether actor may apply action to target.
// Returns nil when allowed, a *models.AppError explaining the refusal
// otherwise.
func CanModerateUser(actor Actor, action Action, target UserTarget) error {
	if actor.ID == target.ID {
		return models.NewValidationError("You cannot perform this action on your own account")
	}
	switch action {
	case ActionDeleteUser, ActionBanUser, ActionUnbanUser:
		if !actor.Role.Moderator() {
			return models.NewForbiddenError("Moderator access required")
		}
		// Admins only outrank regular users. Owners outrank everyone,
		// including other owners.
		if actor.Role != models.RoleOwner && actor.Role.Rank() <= target.Role.Rank() {
			return models.NewForbiddenError("You cannot moderate a user of equal or higher role")
		}
		return nil
	case ActionHardDeleteUser:
		// Owners may hard-delete any account but their own, admins and
		// fellow owners included.
		if actor.Role != models.RoleOwner {
			return models.NewForbiddenError("Owner access required")
		}
		return nil
	default:
		return models.NewForbiddenError("Unknown moderation action")
	}
}

// CanSetRole reports whether actor may change target's role to newRole.
// Below the owner tier the rule is strict subordination: the resulting role
// must rank below the actor's own, and so must the target's current role,
// so an admin can never mint another admin. Owners sit above the ladder and
// may move anyone to any role, including promoting to owner.
func CanSetRole(actor Actor, target UserTarget, newRole models.Role) error {
	if actor.ID == target.ID {
		return models.NewValidationError("You cannot change your own role")
	}
	if !actor.Role.Moderator() {
		return models.NewForbiddenError("Moderator access required")
	}
	if newRole.Rank() == 0 {
		return models.NewValidationError("Unknown role")
	}
	if actor.Role == models.RoleOwner {
		return nil
	}
	if actor.Role.Rank() <= target.Role.Rank() {
		return models.NewForbiddenError("You cannot change the role of a user of equal or higher role")
	}
	if newRole.Rank() >= actor.Role.Rank() {
		return models.NewForbiddenError("You cannot assign a role equal to or above your own")
	}
	return nil
}

// CanDeleteContent reports whether actor may soft-delete target content.
// Authors may always remove their own content, banned or not. Moderators
// may remove content authored by anyone they outrank.
func CanDeleteContent(actor Actor, target ContentTarget) error {
	if actor.ID == target.OwnerID {
		return nil
	}
	if !actor.Role.Moderator() {
		return models.NewForbiddenError("You can only delete your own content")
	}
	if actor.Role != models.RoleOwner && actor.Role.Rank() <= target.OwnerRole.Rank() {
		return models.NewForbiddenError("You cannot delete content of a user of equal or higher role")
	}
	return nil
}

// CanViewDM reports whether actor may read the DM thread between a and b.
// Participants always can; moderators can for anyone, and callers must
// audit-log the override when the actor is not a participant.
func CanViewDM(actor Actor, participantA, participantB uint) error {
	if actor.ID == participantA || actor.ID == participantB {
		return nil
	}
	if actor.Role.Moderator() {
		return nil
	}
	return models.NewForbiddenError("You are not a participant in this conversation")
}

// IsDMOverride reports whether reading the thread between a and b is a
// moderator override for actor, i.e. allowed but requiring an audit entry.
func IsDMOverride(actor Actor, participantA, participantB uint) bool {
	return actor.ID != participantA && actor.ID != participantB && actor.Role.Moderator()
}

// CanBulkModerate gates the bulk planner endpoints.
func CanBulkModerate(actor Actor) error {
	if !actor.Role.Moderator() {
		return models.NewForbiddenError("Moderator access required")
	}
	return nil
}

// CanPurge gates the destructive owner-tier operations.
func CanPurge(actor Actor) error {
	if actor.Role != models.RoleOwner {
		return models.NewForbiddenError("Owner access required")
	}
	return nil
}
