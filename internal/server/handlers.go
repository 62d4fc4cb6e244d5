package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/automailhq/automail/internal/config"
	apperrors "github.com/automailhq/automail/internal/errors"
)

// defaultLogLines matches the original control panel's tail size.
const defaultLogLines = 50

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "idle"
	if s.opts.Runner != nil && s.opts.Runner.Running() {
		status = "running"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "job": status})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.opts.Version})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.opts.Store.Load(r.Context())
	if err != nil {
		apperrors.WriteJSON(w, http.StatusInternalServerError, apperrors.CodeInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg.Redacted())
}

// handleSaveConfig persists a new configuration document and recomputes the
// schedule. Blank secret fields keep their previously stored values so the
// redacted GET payload can be round-tripped by the control panel.
func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	current, err := s.opts.Store.Load(r.Context())
	if err != nil {
		apperrors.WriteJSON(w, http.StatusInternalServerError, apperrors.CodeInternal, err.Error())
		return
	}

	var next config.Config
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		apperrors.WriteJSON(w, http.StatusBadRequest, apperrors.CodeBadRequest, "invalid configuration document: "+err.Error())
		return
	}

	if next.FTP.Password == "" {
		next.FTP.Password = current.FTP.Password
	}
	if next.Mail.SenderPassword == "" {
		next.Mail.SenderPassword = current.Mail.SenderPassword
	}

	if err := s.opts.Store.Save(&next); err != nil {
		apperrors.WriteJSON(w, http.StatusBadRequest, apperrors.CodeBadRequest, err.Error())
		return
	}

	if s.opts.Scheduler != nil {
		if err := s.opts.Scheduler.SetDaily(next.Schedule.RunTime); err != nil {
			apperrors.WriteJSON(w, http.StatusBadRequest, apperrors.CodeBadRequest, err.Error())
			return
		}
		if s.opts.Log != nil {
			s.opts.Log.Printf("Schedule updated. Will run daily at %s", next.Schedule.RunTime)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "configuration saved"})
}

// handleRun triggers a job on its own goroutine so the control surface stays
// responsive; the run guard downstream drops the trigger if a job is active.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		apperrors.WriteJSON(w, http.StatusTooManyRequests, apperrors.CodeTooManyRequests, "trigger rate exceeded")
		return
	}

	// Detached from the request context: the job must outlive the response.
	go s.opts.Runner.Trigger(context.Background())

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "success", "message": "job triggered manually"})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	n := defaultLogLines
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			apperrors.WriteJSON(w, http.StatusBadRequest, apperrors.CodeBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	lines, err := s.opts.Log.Tail(n)
	if err != nil {
		apperrors.WriteJSON(w, http.StatusInternalServerError, apperrors.CodeInternal, err.Error())
		return
	}
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"logs": lines})
}
