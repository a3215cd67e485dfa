package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dex-alert-bot/internal/config"
)

// DB wraps the GORM database connection. Persistence is optional for the
// bot; callers hold a nil *DB when no DSN is configured and every method
// treats that as a no-op.
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
	if db == nil {
		return nil
	}
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate runs GORM auto-migration
func (db *DB) AutoMigrate() error {
	if db == nil {
		return nil
	}
	return db.conn.AutoMigrate(
		&SeenPair{},
		&AlertRecord{},
		&PositionJournal{},
	)
}

// LoadSeenPairs returns all journaled pair addresses seen after the cutoff.
// Used at startup to rebuild the first-sight dedupe set.
func (db *DB) LoadSeenPairs(ctx context.Context, since time.Time) ([]string, error) {
	if db == nil {
		return nil, nil
	}
	var pairs []SeenPair
	result := db.conn.WithContext(ctx).
		Where("seen_ts >= ?", since.Unix()).
		Find(&pairs)
	if result.Error != nil {
		return nil, result.Error
	}
	addrs := make([]string, 0, len(pairs))
	for _, p := range pairs {
		addrs = append(addrs, p.PairAddress)
	}
	return addrs, nil
}

// InsertSeenPair journals a newly seen pair. Duplicate pairs are ignored.
func (db *DB) InsertSeenPair(ctx context.Context, pair *SeenPair) error {
	if db == nil {
		return nil
	}
	result := db.conn.WithContext(ctx).
		Where(SeenPair{PairAddress: pair.PairAddress}).
		FirstOrCreate(pair)
	return result.Error
}

// DeleteSeenPair removes a pair from the seen journal, mirroring in-memory
// eviction.
func (db *DB) DeleteSeenPair(ctx context.Context, pairAddress string) error {
	if db == nil {
		return nil
	}
	result := db.conn.WithContext(ctx).
		Where("pair_address = ?", pairAddress).
		Delete(&SeenPair{})
	return result.Error
}

// InsertAlert stores an emitted alert
func (db *DB) InsertAlert(ctx context.Context, alert *AlertRecord) error {
	if db == nil {
		return nil
	}
	result := db.conn.WithContext(ctx).Create(alert)
	return result.Error
}

// InsertPositionJournal records a position lifecycle transition
func (db *DB) InsertPositionJournal(ctx context.Context, entry *PositionJournal) error {
	if db == nil {
		return nil
	}
	result := db.conn.WithContext(ctx).Create(entry)
	return result.Error
}

// gormLogAdapter adapts logrus to GORM's logger interface
type gormLogAdapter struct {
	log *logrus.Logger
}

func (l *gormLogAdapter) Printf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
