package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/liamashdown/wardai/internal/config"
	"github.com/liamashdown/wardai/internal/metrics"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps the GORM database connection
type DB struct {
	conn *gorm.DB
	log  *logrus.Logger
}

// New creates a new database connection with GORM
func New(cfg *config.Config, log *logrus.Logger) (*DB, error) {
	gormLogger := logger.New(
		&gormLogAdapter{log: log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(mysql.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DatabaseMaxConns)
	sqlDB.SetMaxIdleConns(cfg.DatabaseMaxConns / 2)
	sqlDB.SetConnMaxIdleTime(cfg.DatabaseMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("Database connection established")

	return &DB{conn: conn, log: log}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the connection is alive
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// AutoMigrate creates or updates the history tables
func (db *DB) AutoMigrate() error {
	return db.conn.AutoMigrate(
		&Assessment{},
		&Alert{},
	)
}

// InsertAssessment stores a risk evaluation
func (db *DB) InsertAssessment(ctx context.Context, a *Assessment) error {
	start := time.Now()
	err := db.conn.WithContext(ctx).Create(a).Error
	metrics.RecordDatabaseQuery("insert_assessment", time.Since(start), err)
	return err
}

// InsertAlert stores an alert and returns its row ID
func (db *DB) InsertAlert(ctx context.Context, alert *Alert) (int64, error) {
	start := time.Now()
	err := db.conn.WithContext(ctx).Create(alert).Error
	metrics.RecordDatabaseQuery("insert_alert", time.Since(start), err)
	if err != nil {
		return 0, err
	}
	return alert.ID, nil
}

// RecentAlerts returns the newest alerts first
func (db *DB) RecentAlerts(ctx context.Context, limit int) ([]Alert, error) {
	start := time.Now()
	var out []Alert
	err := db.conn.WithContext(ctx).
		Order("created_ts DESC").
		Limit(limit).
		Find(&out).Error
	metrics.RecordDatabaseQuery("recent_alerts", time.Since(start), err)
	return out, err
}

// LatestAssessment returns the most recent assessment for a token, or nil
func (db *DB) LatestAssessment(ctx context.Context, tokenAddress string) (*Assessment, error) {
	start := time.Now()
	var a Assessment
	result := db.conn.WithContext(ctx).
		Where("token_address = ?", tokenAddress).
		Order("created_ts DESC").
		Limit(1).
		Find(&a)
	metrics.RecordDatabaseQuery("latest_assessment", time.Since(start), result.Error)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &a, nil
}

// gormLogAdapter adapts logrus to GORM's logger interface
type gormLogAdapter struct {
	log *logrus.Logger
}

func (l *gormLogAdapter) Printf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
