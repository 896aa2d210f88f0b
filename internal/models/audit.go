package models

import "time"

// Audit actions worth keeping a trail for. Moderation actions that touch
// other people's data always land here; routine reads do not, with the one
// exception of a moderator opening a DM thread they are not part of.
const (
	AuditDMOverride     = "dm_override"
	AuditUserBanned     = "user_banned"
	AuditUserUnbanned   = "user_unbanned"
	AuditUserDeleted    = "user_deleted"
	AuditUserPurged     = "user_purged"
	AuditBulkThreads    = "bulk_delete_threads"
	AuditBulkChat       = "bulk_clear_chat"
	AuditBulkUsers      = "bulk_users"
	AuditInactivePurge  = "purge_inactive"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActorID   uint      `gorm:"not null;index" json:"actor_id"`
	Action    string    `gorm:"size:32;not null;index" json:"action"`
	Detail    string    `gorm:"type:text" json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
