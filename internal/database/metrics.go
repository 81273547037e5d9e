package database

import (
	"errors"
	"time"

	"github.com/unsaid-app/backend/internal/metrics"
	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// InstrumentMetrics registers GORM callbacks that record query latency and
// outcome per operation and table.
func InstrumentMetrics(db *gorm.DB) error {
	if err := db.Callback().Create().Before("gorm:create").Register("metrics:before_create", startTimer); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("metrics:after_create", observe("create")); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("metrics:before_query", startTimer); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("metrics:after_query", observe("query")); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("metrics:before_update", startTimer); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("metrics:after_update", observe("update")); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("metrics:before_delete", startTimer); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("metrics:after_delete", observe("delete")); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("metrics:before_row", startTimer); err != nil {
		return err
	}
	return db.Callback().Row().After("gorm:row").Register("metrics:after_row", observe("row"))
}

func startTimer(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func observe(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		raw, ok := db.InstanceGet(startTimeKey)
		if !ok {
			return
		}
		started, ok := raw.(time.Time)
		if !ok {
			return
		}

		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		// ErrRecordNotFound is an expected outcome, not a failure
		status := "success"
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			status = "error"
		}

		m := metrics.Get()
		m.DatabaseQueryDuration.WithLabelValues(op, table).Observe(time.Since(started).Seconds())
		m.DatabaseQueriesTotal.WithLabelValues(op, table, status).Inc()
	}
}
