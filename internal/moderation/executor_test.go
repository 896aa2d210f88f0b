package moderation

import (
	"context"
	"testing"
	"time"

	"azox/internal/authz"
	"azox/internal/database"
	"azox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
		LastActive:   time.Now(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, IsActive: true}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedThread(t *testing.T, db *gorm.DB, categoryID, authorID uint, title string, createdAt time.Time) *models.Thread {
	t.Helper()
	thread := &models.Thread{CategoryID: categoryID, AuthorID: authorID, Title: title, CreatedAt: createdAt}
	require.NoError(t, db.Create(thread).Error)
	// GORM autoCreateTime overrides the zero check on some drivers; force it.
	require.NoError(t, db.Model(thread).UpdateColumn("created_at", createdAt).Error)
	return thread
}

func actorFor(u *models.User) authz.Actor {
	return authz.Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

func TestDeleteUser_SoftCascade(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin", models.RoleAdmin)
	target := seedUser(t, db, "target", models.RoleUser)

	cat := seedCategory(t, db, "General")
	thread := seedThread(t, db, cat.ID, target.ID, "hello", time.Now())
	require.NoError(t, db.Create(&models.Post{ThreadID: thread.ID, AuthorID: target.ID, Content: "body"}).Error)
	require.NoError(t, db.Create(&models.Message{SenderID: target.ID, Channel: models.ChannelGeneral, Content: "hi", MessageType: models.MessageTypeText}).Error)
	require.NoError(t, db.Create(&models.Notification{UserID: target.ID, Type: models.NotificationForumReply, Title: "reply"}).Error)

	res, err := e.DeleteUser(ctx, actorFor(admin), target.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)

	var fresh models.User
	require.NoError(t, db.First(&fresh, target.ID).Error)
	assert.False(t, fresh.IsActive)

	var threadCount, postCount, msgCount, notifCount int64
	db.Model(&models.Thread{}).Where("author_id = ? AND is_deleted = ?", target.ID, true).Count(&threadCount)
	db.Model(&models.Post{}).Where("author_id = ? AND is_deleted = ?", target.ID, true).Count(&postCount)
	db.Model(&models.Message{}).Where("sender_id = ? AND is_deleted = ?", target.ID, true).Count(&msgCount)
	db.Model(&models.Notification{}).Where("user_id = ?", target.ID).Count(&notifCount)

	assert.Equal(t, int64(1), threadCount)
	assert.Equal(t, int64(1), postCount)
	assert.Equal(t, int64(1), msgCount)
	assert.Equal(t, int64(1), notifCount, "soft delete must not touch notifications")

	t.Run("idempotent", func(t *testing.T) {
		res, err := e.DeleteUser(ctx, actorFor(admin), target.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Affected)
	})
}

func TestDeleteUser_AdminCannotDeleteAdmin(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)

	admin := seedUser(t, db, "admin", models.RoleAdmin)
	peer := seedUser(t, db, "peer", models.RoleAdmin)

	_, err := e.DeleteUser(context.Background(), actorFor(admin), peer.ID)
	require.Error(t, err)

	var fresh models.User
	require.NoError(t, db.First(&fresh, peer.ID).Error)
	assert.True(t, fresh.IsActive)
}

func TestHardDeleteUser_Cascade(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	owner := seedUser(t, db, "theowner", models.RoleOwner)
	target := seedUser(t, db, "target", models.RoleUser)
	other := seedUser(t, db, "bystander", models.RoleUser)

	cat := seedCategory(t, db, "General")
	thread := seedThread(t, db, cat.ID, target.ID, "doomed", time.Now())
	require.NoError(t, db.Create(&models.Post{ThreadID: thread.ID, AuthorID: target.ID, Content: "own post"}).Error)
	require.NoError(t, db.Create(&models.Post{ThreadID: thread.ID, AuthorID: other.ID, Content: "reply in doomed thread"}).Error)
	require.NoError(t, db.Create(&models.Message{SenderID: target.ID, ReceiverID: &other.ID, Content: "dm out", MessageType: models.MessageTypeText}).Error)
	require.NoError(t, db.Create(&models.Message{SenderID: other.ID, ReceiverID: &target.ID, Content: "dm in", MessageType: models.MessageTypeText}).Error)
	require.NoError(t, db.Create(&models.Notification{UserID: target.ID, Type: models.NotificationForumReply, Title: "x"}).Error)
	require.NoError(t, db.Create(&models.UserSession{UserID: target.ID, SessionToken: "tok", ExpiresAt: time.Now().Add(time.Hour)}).Error)

	res, err := e.HardDeleteUser(ctx, actorFor(owner), "target")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)

	var n int64
	db.Model(&models.User{}).Where("id = ?", target.ID).Count(&n)
	assert.Zero(t, n, "user row gone")
	db.Model(&models.Thread{}).Where("author_id = ?", target.ID).Count(&n)
	assert.Zero(t, n, "threads gone")
	db.Model(&models.Post{}).Where("thread_id = ?", thread.ID).Count(&n)
	assert.Zero(t, n, "posts in the thread gone, including other authors'")
	db.Model(&models.Message{}).Where("sender_id = ? OR receiver_id = ?", target.ID, target.ID).Count(&n)
	assert.Zero(t, n, "messages gone in both directions")
	db.Model(&models.Notification{}).Where("user_id = ?", target.ID).Count(&n)
	assert.Zero(t, n, "notifications gone")
	db.Model(&models.UserSession{}).Where("user_id = ?", target.ID).Count(&n)
	assert.Zero(t, n, "sessions gone")

	// Bystander's own account and unrelated data survive.
	db.Model(&models.User{}).Where("id = ?", other.ID).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestHardDeleteUser_RollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	owner := seedUser(t, db, "theowner", models.RoleOwner)
	target := seedUser(t, db, "target", models.RoleUser)
	require.NoError(t, db.Create(&models.Notification{UserID: target.ID, Type: models.NotificationForumReply, Title: "x"}).Error)

	// Break the audit table so the final write inside the transaction fails.
	require.NoError(t, db.Migrator().DropTable(&models.AuditLog{}))

	_, err := e.HardDeleteUser(ctx, actorFor(owner), "target")
	require.Error(t, err)

	var n int64
	db.Model(&models.User{}).Where("id = ?", target.ID).Count(&n)
	assert.Equal(t, int64(1), n, "user must survive a failed cascade")
	db.Model(&models.Notification{}).Where("user_id = ?", target.ID).Count(&n)
	assert.Equal(t, int64(1), n, "notifications must survive a failed cascade")
}

func TestOwnerOutranksFellowOwner(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	actor := seedUser(t, db, "theowner", models.RoleOwner)
	peer := seedUser(t, db, "cofounder", models.RoleOwner)

	res, err := e.BanUser(ctx, actorFor(actor), peer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)

	var fresh models.User
	require.NoError(t, db.First(&fresh, peer.ID).Error)
	assert.True(t, fresh.IsBanned)

	t.Run("promote to owner", func(t *testing.T) {
		target := seedUser(t, db, "heir", models.RoleAdmin)
		res, err := e.SetRole(ctx, actorFor(actor), target.ID, models.RoleOwner)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)

		var fresh models.User
		require.NoError(t, db.First(&fresh, target.ID).Error)
		assert.Equal(t, models.RoleOwner, fresh.Role)
	})

	t.Run("hard delete fellow owner", func(t *testing.T) {
		res, err := e.HardDeleteUser(ctx, actorFor(actor), "cofounder")
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)

		var n int64
		db.Model(&models.User{}).Where("id = ?", peer.ID).Count(&n)
		assert.Zero(t, n)
	})
}

func TestHardDeleteUser_AdminRefused(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)

	admin := seedUser(t, db, "admin", models.RoleAdmin)
	seedUser(t, db, "target", models.RoleUser)

	_, err := e.HardDeleteUser(context.Background(), actorFor(admin), "target")
	assert.Error(t, err)
}

func TestBanUnban(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin", models.RoleAdmin)
	target := seedUser(t, db, "target", models.RoleUser)

	cat := seedCategory(t, db, "General")
	seedThread(t, db, cat.ID, target.ID, "stays visible", time.Now())

	res, err := e.BanUser(ctx, actorFor(admin), target.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)

	var fresh models.User
	require.NoError(t, db.First(&fresh, target.ID).Error)
	assert.True(t, fresh.IsBanned)
	require.NotNil(t, fresh.BannedAt)

	var visible int64
	db.Model(&models.Thread{}).Where("author_id = ? AND is_deleted = ?", target.ID, false).Count(&visible)
	assert.Equal(t, int64(1), visible, "ban leaves content untouched")

	t.Run("ban again is a no-op", func(t *testing.T) {
		res, err := e.BanUser(ctx, actorFor(admin), target.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Affected)
	})

	t.Run("unban clears the timestamp", func(t *testing.T) {
		res, err := e.UnbanUser(ctx, actorFor(admin), target.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)

		require.NoError(t, db.First(&fresh, target.ID).Error)
		assert.False(t, fresh.IsBanned)
		assert.Nil(t, fresh.BannedAt)
	})
}

func TestDeleteThread_CascadesPosts(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin", models.RoleAdmin)
	author := seedUser(t, db, "author", models.RoleUser)
	cat := seedCategory(t, db, "General")
	thread := seedThread(t, db, cat.ID, author.ID, "topic", time.Now())
	require.NoError(t, db.Create(&models.Post{ThreadID: thread.ID, AuthorID: author.ID, Content: "a"}).Error)
	require.NoError(t, db.Create(&models.Post{ThreadID: thread.ID, AuthorID: admin.ID, Content: "b"}).Error)

	res, err := e.DeleteThread(ctx, actorFor(admin), thread.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)

	var hidden int64
	db.Model(&models.Post{}).Where("thread_id = ? AND is_deleted = ?", thread.ID, true).Count(&hidden)
	assert.Equal(t, int64(2), hidden)

	var fresh models.Thread
	require.NoError(t, db.First(&fresh, thread.ID).Error)
	assert.True(t, fresh.IsDeleted)
}

func TestDeletePost_SingleRowOnly(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	author := seedUser(t, db, "author", models.RoleUser)
	cat := seedCategory(t, db, "General")
	thread := seedThread(t, db, cat.ID, author.ID, "topic", time.Now())
	post := &models.Post{ThreadID: thread.ID, AuthorID: author.ID, Content: "mine"}
	require.NoError(t, db.Create(post).Error)
	sibling := &models.Post{ThreadID: thread.ID, AuthorID: author.ID, Content: "sibling"}
	require.NoError(t, db.Create(sibling).Error)

	res, err := e.DeletePost(ctx, actorFor(author), post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected)

	var freshThread models.Thread
	require.NoError(t, db.First(&freshThread, thread.ID).Error)
	assert.False(t, freshThread.IsDeleted, "deleting a post never deletes the thread")

	var freshSibling models.Post
	require.NoError(t, db.First(&freshSibling, sibling.ID).Error)
	assert.False(t, freshSibling.IsDeleted)
}

func TestDeleteContent_BannedAuthorStillAllowed(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	author := seedUser(t, db, "author", models.RoleUser)
	now := time.Now()
	require.NoError(t, db.Model(author).Updates(map[string]interface{}{"is_banned": true, "banned_at": now}).Error)

	cat := seedCategory(t, db, "General")
	thread := seedThread(t, db, cat.ID, author.ID, "topic", time.Now())
	post := &models.Post{ThreadID: thread.ID, AuthorID: author.ID, Content: "mine"}
	require.NoError(t, db.Create(post).Error)

	_, err := e.DeletePost(ctx, actorFor(author), post.ID)
	assert.NoError(t, err)
}

func TestBulkDeleteThreads(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin", models.RoleAdmin)
	author := seedUser(t, db, "author", models.RoleUser)
	news := seedCategory(t, db, "News")
	offtopic := seedCategory(t, db, "Offtopic")

	old := time.Now().AddDate(0, -2, 0)
	recent := time.Now()

	oldNews := seedThread(t, db, news.ID, author.ID, "old news", old)
	seedThread(t, db, news.ID, author.ID, "fresh news", recent)
	seedThread(t, db, offtopic.ID, author.ID, "old offtopic", old)

	require.NoError(t, db.Create(&models.Post{ThreadID: oldNews.ID, AuthorID: author.ID, Content: "body"}).Error)

	t.Run("category and date combined", func(t *testing.T) {
		cutoff := time.Now().AddDate(0, -1, 0)
		res, err := e.BulkDeleteThreads(ctx, actorFor(admin), ThreadFilter{CategoryID: &news.ID, OlderThan: &cutoff})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)

		var fresh models.Thread
		require.NoError(t, db.First(&fresh, oldNews.ID).Error)
		assert.True(t, fresh.IsDeleted)

		var hiddenPosts int64
		db.Model(&models.Post{}).Where("thread_id = ? AND is_deleted = ?", oldNews.ID, true).Count(&hiddenPosts)
		assert.Equal(t, int64(1), hiddenPosts)
	})

	t.Run("zero matches is success", func(t *testing.T) {
		cutoff := time.Now().AddDate(-1, 0, 0)
		res, err := e.BulkDeleteThreads(ctx, actorFor(admin), ThreadFilter{CategoryID: &news.ID, OlderThan: &cutoff})
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Affected)
	})

	t.Run("match-all takes the rest", func(t *testing.T) {
		res, err := e.BulkDeleteThreads(ctx, actorFor(admin), MatchAllThreads())
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Affected)
	})

	t.Run("regular user refused", func(t *testing.T) {
		_, err := e.BulkDeleteThreads(ctx, actorFor(author), MatchAllThreads())
		assert.Error(t, err)
	})
}

func TestClearChat(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin", models.RoleAdmin)
	alice := seedUser(t, db, "alice", models.RoleUser)
	bob := seedUser(t, db, "bob", models.RoleUser)

	require.NoError(t, db.Create(&models.Message{SenderID: alice.ID, Channel: models.ChannelGeneral, Content: "g1", MessageType: models.MessageTypeText}).Error)
	require.NoError(t, db.Create(&models.Message{SenderID: alice.ID, Channel: models.ChannelPvP, Content: "p1", MessageType: models.MessageTypeText}).Error)
	require.NoError(t, db.Create(&models.Message{SenderID: alice.ID, ReceiverID: &bob.ID, Content: "dm", MessageType: models.MessageTypeText}).Error)

	t.Run("single channel", func(t *testing.T) {
		res, err := e.ClearChat(ctx, actorFor(admin), ChatFilter{Channel: models.ChannelGeneral})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)
	})

	t.Run("all channels leaves DMs alone", func(t *testing.T) {
		res, err := e.ClearChat(ctx, actorFor(admin), ChatFilter{Channel: AllChannels})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)

		var dms int64
		db.Model(&models.Message{}).Where("receiver_id IS NOT NULL AND is_deleted = ?", false).Count(&dms)
		assert.Equal(t, int64(1), dms)
	})

	t.Run("unknown channel rejected", func(t *testing.T) {
		_, err := e.ClearChat(ctx, actorFor(admin), ChatFilter{Channel: "lobby"})
		assert.Error(t, err)
	})
}

func TestBulkBanUsers_InactivityWindow(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin", models.RoleAdmin)

	dormant := seedUser(t, db, "dormant", models.RoleUser)
	require.NoError(t, db.Model(dormant).UpdateColumn("last_active", time.Now().AddDate(0, 0, -90)).Error)

	dormantAdmin := seedUser(t, db, "sleepy_admin", models.RoleAdmin)
	require.NoError(t, db.Model(dormantAdmin).UpdateColumn("last_active", time.Now().AddDate(0, 0, -90)).Error)

	alreadyBanned := seedUser(t, db, "banned_already", models.RoleUser)
	now := time.Now()
	require.NoError(t, db.Model(alreadyBanned).Updates(map[string]interface{}{
		"last_active": time.Now().AddDate(0, 0, -90),
		"is_banned":   true,
		"banned_at":   now,
	}).Error)

	seedUser(t, db, "fresh", models.RoleUser)

	window, err := InactiveWindow(30)
	require.NoError(t, err)

	res, err := e.BulkBanUsers(ctx, actorFor(admin), window)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Affected, "only the dormant plain user is newly banned")

	var fresh models.User
	require.NoError(t, db.First(&fresh, dormantAdmin.ID).Error)
	assert.False(t, fresh.IsBanned, "admins are never matched by bulk windows")
}

func TestBulkDeleteUsers_RegistrationWindow(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin", models.RoleAdmin)

	inside := seedUser(t, db, "inside", models.RoleUser)
	require.NoError(t, db.Model(inside).UpdateColumn("created_at", time.Date(2026, 1, 15, 10, 0, 0, 0, time.Local)).Error)

	lastDay := seedUser(t, db, "last_day", models.RoleUser)
	require.NoError(t, db.Model(lastDay).UpdateColumn("created_at", time.Date(2026, 1, 31, 22, 0, 0, 0, time.Local)).Error)

	outside := seedUser(t, db, "outside", models.RoleUser)
	require.NoError(t, db.Model(outside).UpdateColumn("created_at", time.Date(2026, 2, 1, 0, 30, 0, 0, time.Local)).Error)

	window, err := RegistrationWindow("2026-01-01", "2026-01-31")
	require.NoError(t, err)

	res, err := e.BulkDeleteUsers(ctx, actorFor(admin), window)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Affected, "the end date is inclusive through its last second")

	var fresh models.User
	require.NoError(t, db.First(&fresh, outside.ID).Error)
	assert.True(t, fresh.IsActive)
}

func TestPurgeAllInactive(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	owner := seedUser(t, db, "theowner", models.RoleOwner)
	admin := seedUser(t, db, "admin", models.RoleAdmin)

	ghost := seedUser(t, db, "ghost", models.RoleUser)
	require.NoError(t, db.Model(ghost).UpdateColumn("is_active", false).Error)
	require.NoError(t, db.Create(&models.Notification{UserID: ghost.ID, Type: models.NotificationForumReply, Title: "x"}).Error)

	living := seedUser(t, db, "living", models.RoleUser)

	t.Run("admin refused", func(t *testing.T) {
		_, err := e.PurgeAllInactive(ctx, actorFor(admin))
		assert.Error(t, err)
	})

	t.Run("owner purges", func(t *testing.T) {
		res, err := e.PurgeAllInactive(ctx, actorFor(owner))
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)

		var n int64
		db.Model(&models.User{}).Where("id = ?", ghost.ID).Count(&n)
		assert.Zero(t, n)
		db.Model(&models.Notification{}).Where("user_id = ?", ghost.ID).Count(&n)
		assert.Zero(t, n)
		db.Model(&models.User{}).Where("id = ?", living.ID).Count(&n)
		assert.Equal(t, int64(1), n)
	})

	t.Run("purge with nothing to do succeeds", func(t *testing.T) {
		res, err := e.PurgeAllInactive(ctx, actorFor(owner))
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Affected)
	})
}

func TestSetRole(t *testing.T) {
	db := newTestDB(t)
	e := NewExecutor(db)
	ctx := context.Background()

	owner := seedUser(t, db, "theowner", models.RoleOwner)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	user := seedUser(t, db, "pleb", models.RoleUser)

	t.Run("owner promotes", func(t *testing.T) {
		res, err := e.SetRole(ctx, actorFor(owner), user.ID, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)

		var fresh models.User
		require.NoError(t, db.First(&fresh, user.ID).Error)
		assert.Equal(t, models.RoleAdmin, fresh.Role)
	})

	t.Run("owner demotes", func(t *testing.T) {
		res, err := e.SetRole(ctx, actorFor(owner), user.ID, models.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Affected)
	})

	t.Run("admin cannot promote to admin", func(t *testing.T) {
		_, err := e.SetRole(ctx, actorFor(admin), user.ID, models.RoleAdmin)
		assert.Error(t, err)
	})
}
