package database

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/examvault/api/model"
	"github.com/examvault/api/utils/auth"
)

// Seeder handles database seeding operations
type Seeder struct {
	store Storage
}

// NewSeeder creates a new seeder instance
func NewSeeder(store Storage) *Seeder {
	return &Seeder{store: store}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedLevels(); err != nil {
		return fmt.Errorf("failed to seed levels: %w", err)
	}

	if err := s.SeedBoards(); err != nil {
		return fmt.Errorf("failed to seed boards: %w", err)
	}

	if err := s.SeedSubjects(); err != nil {
		return fmt.Errorf("failed to seed subjects: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user from environment credentials
func (s *Seeder) SeedAdminUser() error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	if _, err := s.store.GetAdminUserByEmail(adminEmail); err == nil {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return err
	}

	admin := model.AdminUser{
		Email:        adminEmail,
		PasswordHash: passwordHash,
	}
	if err := s.store.CreateAdminUser(&admin); err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", adminEmail)
	return nil
}

// SeedLevels creates the qualification levels
func (s *Seeder) SeedLevels() error {
	levels := []string{"GCSE", "A-Level"}

	created := 0
	for _, name := range levels {
		if _, err := s.store.GetLevelByName(name); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.store.CreateLevel(&model.Level{Name: name}); err != nil {
			return err
		}
		created++
	}

	log.Printf("✅ Seeded levels (%d created)\n", created)
	return nil
}

// SeedBoards creates the UK exam boards
func (s *Seeder) SeedBoards() error {
	boards := []model.Board{
		{Name: "AQA", Slug: "aqa"},
		{Name: "Edexcel", Slug: "edexcel"},
		{Name: "OCR", Slug: "ocr"},
		{Name: "WJEC", Slug: "wjec"},
		{Name: "CCEA", Slug: "ccea"},
	}

	created := 0
	for i := range boards {
		if _, err := s.store.GetBoardByName(boards[i].Name); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.store.CreateBoard(&boards[i]); err != nil {
			return err
		}
		created++
	}

	log.Printf("✅ Seeded boards (%d created)\n", created)
	return nil
}

// SeedSubjects creates the common subjects per level
func (s *Seeder) SeedSubjects() error {
	byLevel := map[string][]string{
		"GCSE": {
			"Mathematics",
			"English Language",
			"English Literature",
			"Biology",
			"Chemistry",
			"Physics",
			"Combined Science",
		},
		"A-Level": {
			"Mathematics",
			"Biology",
			"Chemistry",
			"Physics",
			"English Language",
			"English Literature",
			"Psychology",
			"Business",
		},
	}

	created := 0
	for levelName, subjectNames := range byLevel {
		level, err := s.store.GetLevelByName(levelName)
		if err != nil {
			return fmt.Errorf("level %q missing: %w", levelName, err)
		}
		for _, name := range subjectNames {
			if _, err := s.store.GetSubjectByName(name, level.ID); err == nil {
				continue
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
			if err := s.store.CreateSubject(&model.Subject{Name: name, LevelID: level.ID}); err != nil {
				return err
			}
			created++
		}
	}

	log.Printf("✅ Seeded subjects (%d created)\n", created)
	return nil
}
