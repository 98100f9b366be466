package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"aacsb-sync/apperrors"
	"aacsb-sync/models"
)

// Open verbindet sich mit PostgreSQL. Treiberfehler werden von gorm in
// gorm.ErrDuplicatedKey bzw. gorm.ErrForeignKeyViolated übersetzt.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	log.Info("Successfully connected to database.")
	return db, nil
}

// Migrate legt alle Tabellen an bzw. aktualisiert sie.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.FacultyRecord{},
		&models.ResearchOutput{},
		&models.Classification{},
		&models.FacultyProfile{},
		&models.Teaching{},
		&models.Discipline{},
		&models.SyncRun{},
	)
}

// Ping prüft, ob die Datenbank erreichbar ist.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translate bildet gorm-Fehler auf die Fehler der Anwendung ab.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", apperrors.ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", apperrors.ErrUnknownFaculty, err)
	}
	return err
}
