package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/voxhire/gateway/internal/archive"
	"github.com/voxhire/gateway/internal/interview"
	"github.com/voxhire/gateway/internal/templates"
)

// defaultArchiveLimit is how many archived interviews are returned when
// the caller omits the ?limit= query parameter.
const defaultArchiveLimit = 20

type deps struct {
	engine       *interview.Engine
	templates    *templates.Registry
	archiveStore *archive.Store
	wsHandler    http.Handler
	log          *zap.Logger
}

// registerRoutes wires all HTTP endpoints to the shared mux.
func registerRoutes(mux *http.ServeMux, d deps) {
	mux.Handle("/ws/interview", d.wsHandler)
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/templates", d.handleTemplates)
	mux.HandleFunc("POST /api/interviews", d.handleCreateInterview)
	mux.HandleFunc("GET /api/interviews/{id}", d.handleGetInterview)
	mux.HandleFunc("POST /api/interviews/{id}/interactions", d.handleInteraction)
	registerArchiveRoutes(mux, d.archiveStore)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (d deps) handleTemplates(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		ID        string `json:"id"`
		Role      string `json:"role"`
		Questions int    `json:"questions"`
	}
	list := d.templates.List()
	out := make([]entry, 0, len(list))
	for _, tpl := range list {
		out = append(out, entry{ID: tpl.ID, Role: tpl.Role, Questions: len(tpl.Questions)})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"templates": out})
}

func (d deps) handleCreateInterview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TemplateID     string `json:"template_id"`
		CandidateName  string `json:"candidate_name"`
		CandidateEmail string `json:"candidate_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	tpl, ok := d.templates.Get(req.TemplateID)
	if !ok {
		http.Error(w, "unknown template", http.StatusNotFound)
		return
	}

	id := uuid.NewString()
	data := tpl.StartData(interview.Candidate{Name: req.CandidateName, Email: req.CandidateEmail})
	s, err := d.engine.StartInterview(id, data)
	if err != nil {
		d.log.Error("create interview", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":    s.ID,
		"role":  s.Role,
		"phase": s.Phase,
	})
}

func (d deps) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	s, err := d.engine.Session(r.PathValue("id"))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

// handleInteraction is the text-only alternative to the ws channel: one
// candidate utterance in, one interviewer response out.
func (d deps) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Utterance string `json:"utterance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	resp, err := d.engine.HandleInteraction(r.Context(), r.PathValue("id"), req.Utterance)
	if err != nil {
		if errors.Is(err, interview.ErrSessionNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		d.log.Error("interaction", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func registerArchiveRoutes(mux *http.ServeMux, store *archive.Store) {
	mux.HandleFunc("GET /api/archive/interviews", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "archive disabled", http.StatusNotFound)
			return
		}
		limit := queryInt(r, "limit", defaultArchiveLimit)
		offset := queryInt(r, "offset", 0)
		interviews, total, err := store.ListInterviews(limit, offset)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"interviews": interviews, "total": total})
	})

	mux.HandleFunc("GET /api/archive/interviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "archive disabled", http.StatusNotFound)
			return
		}
		iv, turns, responses, err := store.GetInterview(r.PathValue("id"))
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"interview": iv,
			"turns":     turns,
			"responses": responses,
		})
	})

	mux.HandleFunc("GET /api/archive/interviews/{id}/report", func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "archive disabled", http.StatusNotFound)
			return
		}
		report, err := store.GetReport(r.PathValue("id"))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "no report", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
