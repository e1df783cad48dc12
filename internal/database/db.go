package database

import (
	"fmt"
	"log"

	"arxiv_pulse_go_backend/internal/config"
	"arxiv_pulse_go_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(cfg *config.Config) {

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to auto migrate:", err)
	}
}

// Migrate runs the declarative schema migration. Also reachable through the
// admin migrate endpoint.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Paper{},
		&models.PaperAuthor{},
		&models.PaperReference{},
		&models.Author{},
		&models.SocialMention{},
		&models.NewsMention{},
		&models.PaperCardAnalysis{},
		&models.PaperAnalysisV3{},
		&models.AnalysisBatch{},
		&models.AnalysisBatchJob{},
		&models.UserSavedPaper{},
		&models.UserFollowedAuthor{},
		&models.UserPreferences{},
		&models.IngestionRun{},
		&models.LLMSpend{},
		&models.Setting{},
	)
}
