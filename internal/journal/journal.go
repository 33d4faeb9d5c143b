// Package journal persists a record of every order run that failed, so
// operators can audit partial fulfillments without digging through logs.
// Backed by an embedded SQLite database; journaling is best-effort and
// never fails the caller.
package journal

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// FailedOrderRecord is one journaled failure.
type FailedOrderRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	OrderID  string    `gorm:"size:64;not null;index"`
	Stage    string    `gorm:"size:32;not null"`
	Kind     string    `gorm:"size:32;not null"`
	Error    string    `gorm:"type:text"`
	FailedAt time.Time `gorm:"autoCreateTime"`
}

func (FailedOrderRecord) TableName() string { return "failed_orders" }

// Journal writes failure records.
type Journal struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open creates (or migrates) the journal database at path.
func Open(path string, log *slog.Logger) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&FailedOrderRecord{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return &Journal{db: db, log: log}, nil
}

// Record journals one failed run. Errors are logged, never returned: a full
// journal disk must not mask the root failure.
func (j *Journal) Record(orderID, stage, kind string, runErr error) {
	rec := FailedOrderRecord{
		OrderID:  orderID,
		Stage:    stage,
		Kind:     kind,
		Error:    runErr.Error(),
		FailedAt: time.Now(),
	}
	if err := j.db.Create(&rec).Error; err != nil {
		j.log.Error("journal write failed", "order", orderID, "error", err)
	}
}

// Recent returns the latest n failure records, newest first.
func (j *Journal) Recent(n int) ([]FailedOrderRecord, error) {
	var recs []FailedOrderRecord
	err := j.db.Order("failed_at DESC").Limit(n).Find(&recs).Error
	return recs, err
}
