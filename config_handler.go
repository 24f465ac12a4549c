package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"tradedash/config"
	"tradedash/loader"
	"tradedash/logger"

	"github.com/jmoiron/sqlx"
)

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// GetConfigHandler は現在の設定を返します
func GetConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := config.GetConfig()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cfg)
	}
}

// SaveConfigHandler は設定を保存します。
// 読込条件が変わった場合はデータセットを読み直します。
func SaveConfigHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		newCfg := config.GetConfig()
		if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
			writeJSONError(w, "Invalid request body.", http.StatusBadRequest)
			return
		}
		if err := validateDataPath(newCfg.DataPath); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := config.Validate(newCfg); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		prev := config.GetConfig()
		if err := config.SaveConfig(newCfg); err != nil {
			log.Error().Err(err).Msg("error saving config")
			writeJSONError(w, "Failed to save config.", http.StatusInternalServerError)
			return
		}

		resp := map[string]interface{}{"message": "Config saved."}
		if loader.OptionsFromConfig(prev) != loader.OptionsFromConfig(newCfg) {
			if _, err := loader.LoadAndSet(r.Context(), db, loader.OptionsFromConfig(config.GetConfig())); err != nil {
				log.Warn().Err(err).Msg("dataset reload after config change failed")
				resp["warning"] = err.Error()
			} else {
				resp["reloaded"] = true
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// validateDataPath はデータファイルのパスを検証します。
func validateDataPath(path string) error {
	if path == "" {
		return errors.New("data_path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New("data file not found: " + path)
		}
		return errors.New("failed to check data file: " + err.Error())
	}
	if info.IsDir() {
		return errors.New("data_path is a directory: " + path)
	}
	return nil
}
