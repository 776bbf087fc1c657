package http

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-examsim/internal/bank"
	"github.com/mind-engage/mindengage-examsim/internal/metrics"
	"github.com/mind-engage/mindengage-examsim/internal/storage"
)

const maxCollectionBytes = 32 << 20

// ObservePools publishes pool sizes to the metrics gauge.
func ObservePools(p *bank.Pools) {
	for t, n := range p.Sizes() {
		metrics.PoolSize.WithLabelValues(string(t)).Set(float64(n))
	}
}

// GET /bank/stats
func BankStatsHandler(lib *bank.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := lib.Current()
		writeJSON(w, http.StatusOK, map[string]any{
			"total": p.Total(),
			"pools": p.Sizes(),
		})
	}
}

// PUT /bank/collections/{file}
// Replaces one collection named in the manifest, then reloads the bank.
func UploadCollectionHandler(lib *bank.Library, bs storage.BlobStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		typ, ok := lib.Manifest().TypeOf(file)
		if !ok {
			http.Error(w, "file not in manifest", http.StatusNotFound)
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCollectionBytes))
		if err != nil {
			http.Error(w, "read body: "+err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		raws, err := bank.DecodeCollection(bytes.NewReader(body))
		if err != nil {
			http.Error(w, "collection must be a JSON array of questions", http.StatusBadRequest)
			return
		}
		if _, err := bs.Put(r.Context(), file, bytes.NewReader(body)); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		p := lib.Reload(r.Context())
		ObservePools(p)
		log.Info("collection uploaded", zap.String("file", file), zap.String("type", string(typ)), zap.Int("records", len(raws)))
		writeJSON(w, http.StatusOK, map[string]any{
			"file":    file,
			"type":    typ,
			"records": len(raws),
			"pools":   p.Sizes(),
		})
	}
}

// POST /bank/reload
func ReloadBankHandler(lib *bank.Library) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := lib.Reload(r.Context())
		ObservePools(p)
		writeJSON(w, http.StatusOK, map[string]any{"total": p.Total(), "pools": p.Sizes()})
	}
}
