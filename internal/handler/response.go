package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/scalpi-pos/api/internal/database"
)

// Broadcaster pushes change events to live dashboard tabs. Satisfied by
// *ws.Hub.
type Broadcaster interface {
	Publish(channel, eventType string, payload any)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Publish(string, string, any) {}

func orNop(b Broadcaster) Broadcaster {
	if b == nil {
		return nopBroadcaster{}
	}
	return b
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode JSON response", zap.Error(err))
	}
}

// writeStoreError answers an unexpected store failure. A missing table
// means migrations have not run and is reported as 503.
func writeStoreError(w http.ResponseWriter, logger *zap.Logger, msg string, err error) {
	if database.IsUndefinedTable(err) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store not initialized"})
		return
	}
	logger.Error(msg, zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// money formats a NUMERIC as a two-decimal string.
func money(n pgtype.Numeric) string {
	return database.NumericToDecimal(n).StringFixed(2)
}

func dateString(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format("2006-01-02")
}
