package http

import (
	"context"
	"net/http"
	"time"

	"github.com/mind-engage/mindengage-examsim/internal/bank"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func HealthzHandler(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// ReadyzHandler reports ready once the database answers and the bank holds
// at least one question.
func ReadyzHandler(db Pinger, lib *bank.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "db: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		if lib.Current().Total() == 0 {
			http.Error(w, "question bank empty", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ready"))
	}
}
