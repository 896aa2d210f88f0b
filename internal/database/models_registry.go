package database

import "azox/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Thread{},
		&models.Post{},
		&models.Message{},
		&models.Notification{},
		&models.UserSession{},
		&models.AuditLog{},
	}
}
