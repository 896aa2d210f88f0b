// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"azox/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers   int
	NumThreads int
	// MaxDays is how far back created_at timestamps are spread.
	MaxDays int
}

// Seeder populates the database with demo data.
type Seeder struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 50
	}
	if opts.NumThreads <= 0 {
		opts.NumThreads = 100
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll wipes every domain table. Order matters for foreign keys.
func (s *Seeder) ClearAll() error {
	tables := []any{
		&models.AuditLog{},
		&models.UserSession{},
		&models.Notification{},
		&models.Message{},
		&models.Post{},
		&models.Thread{},
		&models.Category{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Where("1 = 1").Delete(table).Error; err != nil {
			return fmt.Errorf("clear %T: %w", table, err)
		}
	}
	log.Println("database cleared")
	return nil
}

// Categories creates the default forum structure if it does not exist.
func Categories(db *gorm.DB) error {
	defaults := []models.Category{
		{Name: "Announcements", Description: "Server news and updates", SortOrder: 1, IsActive: true},
		{Name: "Survival", Description: "Survival mode discussion", SortOrder: 2, IsActive: true},
		{Name: "PvP Arena", Description: "Duels, tournaments and arena talk", SortOrder: 3, IsActive: true},
		{Name: "Trading Post", Description: "Buy, sell and trade items", SortOrder: 4, IsActive: true},
		{Name: "Builds", Description: "Show off your builds", SortOrder: 5, IsActive: true},
		{Name: "Support", Description: "Help with the server and launcher", SortOrder: 6, IsActive: true},
	}
	for _, category := range defaults {
		var count int64
		if err := db.Model(&models.Category{}).Where("name = ?", category.Name).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&category).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// Run populates users, forum content and chat history.
func (s *Seeder) Run() error {
	if err := Categories(s.db); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}

	users, err := s.seedUsers()
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	log.Printf("created %d users", len(users))

	threads, err := s.seedForum(users)
	if err != nil {
		return fmt.Errorf("seed forum: %w", err)
	}
	log.Printf("created %d threads", threads)

	messages, err := s.seedChat(users)
	if err != nil {
		return fmt.Errorf("seed chat: %w", err)
	}
	log.Printf("created %d chat messages", messages)

	return nil
}

// seedUsers creates the owner, a couple of admins and regular members.
func (s *Seeder) seedUsers() ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := []models.User{
		s.buildUser("server_owner", models.RoleOwner, string(hash)),
		s.buildUser("head_mod", models.RoleAdmin, string(hash)),
		s.buildUser("night_mod", models.RoleAdmin, string(hash)),
	}
	for i := 0; i < s.opts.NumUsers; i++ {
		username := fmt.Sprintf("%s_%s%d", gofakeit.Adjective(), gofakeit.NounConcrete(), s.rng.Intn(1000))
		users = append(users, s.buildUser(username, models.RoleUser, string(hash)))
	}

	if err := s.db.CreateInBatches(users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Seeder) buildUser(username string, role models.Role, hash string) models.User {
	created := s.pastTime()
	return models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		LastActive:   s.between(created, time.Now()),
		CreatedAt:    created,
	}
}

func (s *Seeder) seedForum(users []models.User) (int, error) {
	var categories []models.Category
	if err := s.db.Find(&categories).Error; err != nil {
		return 0, err
	}
	if len(categories) == 0 || len(users) == 0 {
		return 0, nil
	}

	count := 0
	for i := 0; i < s.opts.NumThreads; i++ {
		author := users[s.rng.Intn(len(users))]
		category := categories[s.rng.Intn(len(categories))]
		created := s.pastTime()

		thread := models.Thread{
			CategoryID: category.ID,
			AuthorID:   author.ID,
			Title:      gofakeit.Sentence(s.rng.Intn(6) + 3),
			IsPinned:   s.rng.Intn(20) == 0,
			CreatedAt:  created,
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&thread).Error; err != nil {
				return err
			}
			first := models.Post{
				ThreadID:  thread.ID,
				AuthorID:  author.ID,
				Content:   gofakeit.Paragraph(1, 3, 8, "\n"),
				CreatedAt: created,
			}
			if err := tx.Create(&first).Error; err != nil {
				return err
			}

			replies := s.rng.Intn(8)
			last := created
			for r := 0; r < replies; r++ {
				replier := users[s.rng.Intn(len(users))]
				last = s.between(last, time.Now())
				reply := models.Post{
					ThreadID:  thread.ID,
					AuthorID:  replier.ID,
					Content:   gofakeit.Paragraph(1, 2, 6, "\n"),
					CreatedAt: last,
				}
				if err := tx.Create(&reply).Error; err != nil {
					return err
				}
			}
			return tx.Model(&models.Thread{}).Where("id = ?", thread.ID).
				Updates(map[string]interface{}{
					"reply_count":  replies,
					"view_count":   s.rng.Intn(500),
					"last_post_at": last,
				}).Error
		})
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *Seeder) seedChat(users []models.User) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}

	count := 0
	for _, channel := range models.ChatChannels {
		n := s.rng.Intn(40) + 10
		batch := make([]models.Message, 0, n)
		for i := 0; i < n; i++ {
			sender := users[s.rng.Intn(len(users))]
			batch = append(batch, models.Message{
				SenderID:    sender.ID,
				Channel:     channel,
				Content:     gofakeit.HipsterSentence(s.rng.Intn(10) + 2),
				MessageType: models.MessageTypeText,
				CreatedAt:   s.pastTime(),
			})
		}
		if err := s.db.CreateInBatches(batch, 100).Error; err != nil {
			return count, err
		}
		count += n
	}

	// A few DM conversations
	for i := 0; i < len(users)/4; i++ {
		a := users[s.rng.Intn(len(users))]
		b := users[s.rng.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}
		exchanges := s.rng.Intn(6) + 1
		for m := 0; m < exchanges; m++ {
			sender, receiver := a, b
			if m%2 == 1 {
				sender, receiver = b, a
			}
			msg := models.Message{
				SenderID:    sender.ID,
				ReceiverID:  &receiver.ID,
				Content:     gofakeit.HipsterSentence(s.rng.Intn(8) + 2),
				MessageType: models.MessageTypeText,
				CreatedAt:   s.pastTime(),
			}
			if err := s.db.Create(&msg).Error; err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

// pastTime returns a random timestamp within the configured spread.
func (s *Seeder) pastTime() time.Time {
	daysBack := s.rng.Intn(s.opts.MaxDays)
	return time.Now().
		Add(-time.Duration(daysBack) * 24 * time.Hour).
		Add(-time.Duration(s.rng.Intn(24)) * time.Hour).
		Add(-time.Duration(s.rng.Intn(60)) * time.Minute)
}

// between returns a random timestamp in (from, to).
func (s *Seeder) between(from, to time.Time) time.Time {
	if !to.After(from) {
		return from
	}
	span := to.Sub(from)
	return from.Add(time.Duration(s.rng.Int63n(int64(span))))
}
