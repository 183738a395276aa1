package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"garden-alert-service/internal/models"
)

// HistoryFilters narrows GetAlertHistory. Zero values are treated as
// "unset" and excluded from the query.
type HistoryFilters struct {
	GardenID  string
	UserID    int
	AlertType models.AlertType
	StartDate time.Time
	EndDate   time.Time
}

// HistoryStore persists alerts to an append-only Postgres table. It
// degrades to a silent no-op whenever the database is unreachable: the
// alert pipeline must keep running even with history unavailable.
type HistoryStore struct {
	pool   *pgxpool.Pool
	ready  bool
	logger *zap.Logger
}

// NewHistoryStore builds a HistoryStore; call Initialize before use.
func NewHistoryStore(logger *zap.Logger) *HistoryStore {
	return &HistoryStore{logger: logger}
}

// Initialize connects to databaseURL and ensures the schema and indexes
// exist. Connection failure is logged and leaves the store not-ready;
// table- or index-creation failure is logged and the store stays ready. It
// never returns an error to the caller.
func (h *HistoryStore) Initialize(ctx context.Context, databaseURL string) {
	if databaseURL == "" {
		if h.logger != nil {
			h.logger.Warn("history store disabled: no database URL configured")
		}
		return
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("history store connect failed", zap.Error(err))
		}
		return
	}
	if err := pool.Ping(ctx); err != nil {
		if h.logger != nil {
			h.logger.Warn("history store ping failed", zap.Error(err))
		}
		pool.Close()
		return
	}

	h.pool = pool
	h.ready = true

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		if h.logger != nil {
			h.logger.Warn("history store table creation failed", zap.Error(err))
		}
	}
	for _, stmt := range createIndexSQL {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			if h.logger != nil {
				h.logger.Warn("history store index creation failed", zap.String("statement", stmt), zap.Error(err))
			}
		}
	}
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS weather_alerts (
	alert_id   TEXT PRIMARY KEY,
	garden_id  TEXT NOT NULL,
	user_id    INTEGER NOT NULL,
	alert_type TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	document   JSONB NOT NULL
)`

var createIndexSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_weather_alerts_garden_timestamp ON weather_alerts (garden_id, timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_weather_alerts_user_timestamp ON weather_alerts (user_id, timestamp DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_weather_alerts_timestamp ON weather_alerts (timestamp DESC)`,
}

// IsReady reports whether the store is connected and usable.
func (h *HistoryStore) IsReady() bool {
	return h.ready
}

// SaveAlert persists alert with a server-assigned createdAt. Returns false
// (and logs) when the store is not ready or the insert fails; never
// panics or returns an error.
func (h *HistoryStore) SaveAlert(ctx context.Context, alert models.Alert) bool {
	if !h.ready {
		if h.logger != nil {
			h.logger.Warn("history store not ready, dropping alert", zap.String("alertId", alert.AlertID))
		}
		return false
	}

	doc, err := json.Marshal(alert)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal alert document", zap.Error(err))
		}
		return false
	}

	_, err = h.pool.Exec(ctx, `
		INSERT INTO weather_alerts (alert_id, garden_id, user_id, alert_type, timestamp, created_at, document)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (alert_id) DO NOTHING
	`, alert.AlertID, alert.GardenID, alert.UserID, string(alert.AlertType), alert.Timestamp, time.Now(), doc)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("history store insert failed", zap.String("alertId", alert.AlertID), zap.Error(err))
		}
		return false
	}
	return true
}

// GetAlertHistory queries persisted alerts matching filters, newest first,
// capped at limit. Returns an empty slice (never nil, never an error) when
// the store is not ready or the query fails.
func (h *HistoryStore) GetAlertHistory(ctx context.Context, filters HistoryFilters, limit int) []models.Alert {
	if !h.ready {
		return []models.Alert{}
	}
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT document FROM weather_alerts WHERE 1=1`
	var args []interface{}
	argN := 1

	if filters.GardenID != "" {
		query += fmt.Sprintf(" AND garden_id = $%d", argN)
		args = append(args, filters.GardenID)
		argN++
	}
	if filters.UserID != 0 {
		query += fmt.Sprintf(" AND user_id = $%d", argN)
		args = append(args, filters.UserID)
		argN++
	}
	if filters.AlertType != "" {
		query += fmt.Sprintf(" AND alert_type = $%d", argN)
		args = append(args, string(filters.AlertType))
		argN++
	}
	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND timestamp >= $%d", argN)
		args = append(args, filters.StartDate)
		argN++
	}
	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND timestamp <= $%d", argN)
		args = append(args, filters.EndDate)
		argN++
	}
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d", argN)
	args = append(args, limit)

	rows, err := h.pool.Query(ctx, query, args...)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("history store query failed", zap.Error(err))
		}
		return []models.Alert{}
	}
	defer rows.Close()

	alerts := make([]models.Alert, 0, limit)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			continue
		}
		var a models.Alert
		if err := json.Unmarshal(doc, &a); err != nil {
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts
}

// Close releases the underlying connection pool, if any.
func (h *HistoryStore) Close() {
	if h.pool != nil {
		h.pool.Close()
	}
}
