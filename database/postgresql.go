package database

import (
	"RetinaCare/models"
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance.
var DB *gorm.DB

// InitDB initializes the database connection and configures it.
func InitDB(ctx context.Context, dsn string) (*gorm.DB, error) {
	var err error

	// Configure logging level based on environment
	logMode := logger.Silent
	if os.Getenv("ENV") == "development" {
		logMode = logger.Info
	}

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: false,
		PrepareStmt:                              true,
		Logger:                                   logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	if err := configureConnectionPool(); err != nil {
		return nil, err
	}

	if err := testDatabaseConnection(ctx); err != nil {
		return nil, err
	}

	if err := runMigrations(); err != nil {
		return nil, err
	}

	if err := seedInitialData(); err != nil {
		return nil, err
	}

	log.Println("Database initialized successfully.")
	return DB, nil
}

// configureConnectionPool sets up the connection pool settings for the database.
func configureConnectionPool() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	sqlDB.SetMaxOpenConns(40)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	return nil
}

// testDatabaseConnection verifies that the database connection is functional.
func testDatabaseConnection(ctx context.Context) error {
	sqlDB, err := DB.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(err, "failed to ping database")
	}
	return nil
}

// runMigrations performs database schema migrations.
func runMigrations() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.Medicine{},
		&models.AnalysisRecord{},
		&models.MedicalRecord{},
		&models.PrescriptionItem{},
		&models.Invoice{},
	)
}

// seedInitialData populates the database with the bootstrap accounts. The
// demo doctor/manager/patient credentials only belong in local environments;
// the admin password comes from ADMIN_PASSWORD when set.
func seedInitialData() error {
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "ChangeMe@123"
	}

	users, err := bootstrapUsers(adminPassword)
	if err != nil {
		return err
	}

	if err := models.SeedUsers(DB, users); err != nil {
		return errors.Wrap(err, "failed to seed users")
	}
	return nil
}

// bootstrapUsers builds the seed accounts with hashed passwords. bcrypt is
// called directly here; this package must stay import-free of the helper
// packages that sit above it.
func bootstrapUsers(adminPassword string) ([]models.User, error) {
	seeds := []struct {
		fullName string
		email    string
		password string
		role     models.Role
	}{
		{"Clinic Admin", "admin@retinacare.local", adminPassword, models.RoleAdmin},
		{"Dr. Seed", "doctor@gm.com", "123", models.RoleDoctor},
		{"Cashier Seed", "manager@gm.com", "123", models.RoleClinicManager},
		{"Patient Seed", "user@gm.com", "123", models.RolePatient},
	}

	users := make([]models.User, 0, len(seeds))
	for _, s := range seeds {
		hashed, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "failed to hash seed password")
		}
		users = append(users, models.User{
			ID:       uuid.New().String(),
			FullName: s.fullName,
			Email:    s.email,
			Password: string(hashed),
			Role:     s.role,
			IsActive: true,
		})
	}
	return users, nil
}
