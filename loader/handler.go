package loader

import (
	"encoding/json"
	"net/http"

	"tradedash/config"
	"tradedash/logger"

	"github.com/jmoiron/sqlx"
)

// OptionsFromConfig は設定から読込条件を組み立てます。
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Path:       cfg.DataPath,
		Encoding:   cfg.Encoding,
		SampleSize: cfg.SampleSize,
		SampleSeed: cfg.SampleSeed,
		Strict:     cfg.DatePolicy == config.DatePolicyStrict,
	}
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// ReloadHandler はメモ化を無視してデータセットを読み直します。
func ReloadHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSONError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		log := logger.FromContext(r.Context())
		log.Info().Msg("reloading dataset")

		opts := OptionsFromConfig(config.GetConfig())
		opts.Force = true
		d, err := LoadAndSet(r.Context(), db, opts)
		if err != nil {
			log.Error().Err(err).Str("path", opts.Path).Msg("dataset reload failed")
			writeJSONError(w, "Failed to load dataset: "+err.Error(), http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "Dataset reloaded.",
			"dataset": d,
		})
	}
}
