package httpadapter

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"
    "github.com/rs/zerolog"

    "rankypulse/internal/domain"
    "rankypulse/internal/fetch"
    "rankypulse/internal/ports"
    "rankypulse/internal/services/auditor"
    "rankypulse/internal/workers/auditrunner"
)

// Server fronts the audit engine over HTTP. Thin by design: it maps wire
// envelopes onto the engine's operations and typed errors onto statuses.
type Server struct {
    auditor   *auditor.Service
    store     ports.AuditStore
    jobs      ports.AuditJobs // nil when the queue is not wired
    processor auditrunner.Processor
    log       zerolog.Logger
}

func New(auditorSvc *auditor.Service, store ports.AuditStore, jobs ports.AuditJobs, log zerolog.Logger) *Server {
    return &Server{
        auditor:   auditorSvc,
        store:     store,
        jobs:      jobs,
        processor: auditrunner.AuditProcessor{Auditor: auditorSvc},
        log:       log,
    }
}

func (s *Server) Routes() chi.Router {
    r := chi.NewRouter()
    r.Get("/healthz", s.getHealthz)
    r.Post("/audit", s.postAudit)
    r.Get("/audits", s.listAudits)
    r.Get("/audits/compare", s.compareAudits)
    r.Get("/audits/requests/{id}", s.getRequest)
    r.Get("/audits/{id}", s.getAudit)
    r.Post("/audits/save", s.saveAudit)
    return r
}

func userID(r *http.Request) string {
    if h := r.Header.Get("X-User-Id"); h != "" {
        return h
    }
    return "anon"
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
    writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": "ok"})
}

type auditRequest struct {
    URL     string  `json:"url"`
    Label   *string `json:"label"`
    Persist bool    `json:"persist"`
    Queue   bool    `json:"queue"`
    Wait    bool    `json:"wait"`
}

func (s *Server) postAudit(w http.ResponseWriter, r *http.Request) {
    var req auditRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeError(w, http.StatusBadRequest, "invalid_json")
        return
    }
    if req.URL == "" {
        writeError(w, http.StatusBadRequest, "missing_url")
        return
    }

    if req.Queue {
        if s.jobs == nil {
            writeError(w, http.StatusNotImplemented, "queue_not_configured")
            return
        }
        requestID, err := s.jobs.EnqueueRequest(r.Context(), userID(r), req.URL, req.Label)
        if err != nil {
            s.writeFailure(w, err)
            return
        }
        if req.Wait {
            // Blocking path: process the queued job with the same
            // processor the background workers use.
            auditID, err := auditrunner.ProcessInline(r.Context(), s.jobs, s.processor, requestID)
            if err != nil {
                s.writeFailure(w, err)
                return
            }
            rec, err := s.store.Get(r.Context(), userID(r), auditID)
            if err != nil {
                s.writeFailure(w, err)
                return
            }
            writeJSON(w, http.StatusOK, map[string]any{"ok": true, "request_id": requestID, "item": rec})
            return
        }
        writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "request_id": requestID})
        return
    }

    out, err := s.auditor.Run(r.Context(), auditor.RunParams{
        UserID:  userID(r),
        URL:     req.URL,
        Label:   req.Label,
        Persist: req.Persist,
    })
    if err != nil {
        s.writeFailure(w, err)
        return
    }
    resp := map[string]any{
        "ok":                  true,
        "url":                 out.Result.URL,
        "final_url":           out.Result.FinalURL,
        "status":              out.Result.Status,
        "score":               out.Result.Score,
        "issues":              issuesOrEmpty(out.Result.Issues),
        "score_delta_preview": out.Result.Preview,
    }
    if out.SavedID != "" {
        resp["audit_id"] = out.SavedID
        resp["created_at"] = out.SavedAt
    }
    writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listAudits(w http.ResponseWriter, r *http.Request) {
    limit := 0
    if v := r.URL.Query().Get("limit"); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            limit = n
        }
    }
    items, err := s.store.List(r.Context(), ports.ListParams{
        UserID: userID(r),
        URL:    r.URL.Query().Get("url"),
        Limit:  limit,
    })
    if err != nil {
        s.writeFailure(w, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"ok": true, "items": items})
}

func (s *Server) getRequest(w http.ResponseWriter, r *http.Request) {
    if s.jobs == nil {
        writeError(w, http.StatusNotImplemented, "queue_not_configured")
        return
    }
    status, auditID, err := s.jobs.RequestStatus(r.Context(), chi.URLParam(r, "id"))
    if err != nil {
        s.writeFailure(w, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": status, "audit_id": auditID})
}

func (s *Server) getAudit(w http.ResponseWriter, r *http.Request) {
    rec, err := s.store.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
    if err != nil {
        s.writeFailure(w, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": rec})
}

func (s *Server) compareAudits(w http.ResponseWriter, r *http.Request) {
    before := r.URL.Query().Get("before")
    after := r.URL.Query().Get("after")
    if before == "" || after == "" {
        writeError(w, http.StatusBadRequest, "missing_before_or_after")
        return
    }
    cmp, err := s.store.Compare(r.Context(), userID(r), before, after)
    if err != nil {
        s.writeFailure(w, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"ok": true, "compare": cmp})
}

type saveRequest struct {
    URL    string              `json:"url"`
    Label  *string             `json:"label"`
    Result *domain.AuditResult `json:"result"`
}

func (s *Server) saveAudit(w http.ResponseWriter, r *http.Request) {
    var req saveRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeError(w, http.StatusBadRequest, "invalid_json")
        return
    }
    id, createdAt, err := s.store.Save(r.Context(), ports.SaveParams{
        UserID: userID(r),
        URL:    req.URL,
        Label:  req.Label,
        Result: req.Result,
    })
    if err != nil {
        s.writeFailure(w, err)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id, "created_at": createdAt})
}

// writeFailure maps engine errors onto specific wire errors; callers never
// see a generic "something went wrong".
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
    var fe *fetch.Error
    switch {
    case errors.As(err, &fe):
        kind := "fetch_transport"
        if fe.Kind == fetch.KindTimeout {
            kind = "fetch_timeout"
        }
        writeError(w, http.StatusBadGateway, kind)
    case errors.Is(err, ports.ErrNotFound):
        writeError(w, http.StatusNotFound, "not_found")
    case errors.Is(err, ports.ErrInvalidInput):
        writeError(w, http.StatusBadRequest, "missing_url_or_result")
    default:
        s.log.Error().Err(err).Msg("request failed")
        writeError(w, http.StatusInternalServerError, "store_error")
    }
}

func issuesOrEmpty(issues []domain.Issue) []domain.Issue {
    if issues == nil {
        return []domain.Issue{}
    }
    return issues
}

func writeJSON(w http.ResponseWriter, code int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    _ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, kind string) {
    writeJSON(w, code, map[string]any{"ok": false, "error": kind})
}
