package transporthttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/commentcap/internal/automation"
	"example.com/commentcap/internal/config"
	"example.com/commentcap/internal/domain"
	spg "example.com/commentcap/internal/storage/postgres"
)

// Enqueuer accepts trigger events for asynchronous handling.
type Enqueuer interface {
	Enqueue(ev *domain.CommentSubmit) (id string, ok bool)
}

// SettingsStore reads and replaces an automation's stored settings.
type SettingsStore interface {
	GetAll(ctx context.Context, namespace string) (map[string]any, error)
	PutAll(ctx context.Context, namespace string, values map[string]any) error
}

// MetricsSource answers audit log queries.
type MetricsSource interface {
	QueryTotals(ctx context.Context, f spg.MetricsFilter) (spg.MetricsTotals, error)
	QueryBucketsDaily(ctx context.Context, f spg.MetricsFilter) ([]spg.MetricsBucket, error)
}

type ServerDeps struct {
	Cfg        config.Config
	Dispatcher Enqueuer
	Settings   SettingsStore
	Metrics    MetricsSource
	Ready      func(ctx context.Context) error
	Now        func() time.Time
	Log        *slog.Logger
}

func decodeJSONStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- Health ---

func (d *ServerDeps) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (d *ServerDeps) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if d.Ready != nil {
		if err := d.Ready(r.Context()); err != nil {
			WriteProblem(w, http.StatusServiceUnavailable, "not ready", "dependencies not reachable", nil)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// --- Triggers ---

// HandleCommentSubmit queues a comment-submit trigger. Payload completeness is
// judged by the automations themselves, so incomplete events are still accepted.
func (d *ServerDeps) HandleCommentSubmit(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	// the host sends more fields than we model; unknown ones are ignored
	var ev domain.CommentSubmit
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
		return
	}

	id, ok := d.Dispatcher.Enqueue(&ev)
	if !ok {
		WriteProblem(w, http.StatusServiceUnavailable, "overloaded", "trigger queue is full, please retry", nil)
		return
	}
	if ev.Post != nil {
		d.Log.Debug("queued trigger", "delivery", id, "post", ev.Post.ID)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "delivery_id": id})
}

// --- Automations & settings ---

type automationView struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	Schema    automation.Schema `json:"schema"`
}

func (d *ServerDeps) HandleListAutomations(w http.ResponseWriter, r *http.Request) {
	all := automation.All()
	out := make([]automationView, 0, len(all))
	for _, a := range all {
		out = append(out, automationView{Name: a.Name, Namespace: a.Namespace, Schema: a.Schema})
	}
	writeJSON(w, http.StatusOK, out)
}

func (d *ServerDeps) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	a, ok := automation.ByNamespace(r.PathValue("namespace"))
	if !ok {
		WriteProblem(w, http.StatusNotFound, "unknown automation", "no automation with that namespace", nil)
		return
	}
	vals, err := d.Settings.GetAll(r.Context(), a.Namespace)
	if err != nil {
		WriteProblem(w, http.StatusInternalServerError, "settings error", err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, vals)
}

// HandlePutSettings replaces an automation's settings after filling defaults and
// validating against its schema.
func (d *ServerDeps) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	a, ok := automation.ByNamespace(r.PathValue("namespace"))
	if !ok {
		WriteProblem(w, http.StatusNotFound, "unknown automation", "no automation with that namespace", nil)
		return
	}
	var vals map[string]any
	if err := decodeJSONStrict(r, &vals); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
		return
	}
	vals = a.Schema.Normalize(vals)
	if errs := a.Schema.Validate(vals); len(errs) > 0 {
		WriteValidationProblem(w, "one or more settings are invalid", errs)
		return
	}
	if err := d.Settings.PutAll(r.Context(), a.Namespace, vals); err != nil {
		WriteProblem(w, http.StatusInternalServerError, "settings error", err.Error(), nil)
		return
	}
	d.Log.Info("settings updated", "automation", a.Namespace)
	writeJSON(w, http.StatusOK, vals)
}

// --- Metrics ---

type metricsResp struct {
	Totals  spg.MetricsTotals   `json:"totals"`
	Buckets []spg.MetricsBucket `json:"buckets,omitempty"`
}

const defaultWindow = 7 * 24 * time.Hour // last week default
const maxWindow = 90 * 24 * time.Hour    // cap at 90 days (guardrail)

func (d *ServerDeps) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	now := d.Now()
	to := now
	if s := q.Get("to"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			WriteProblem(w, http.StatusBadRequest, "invalid parameters", "to must be epoch seconds", nil)
			return
		}
		to = time.Unix(n, 0).UTC()
	}
	from := to.Add(-defaultWindow)
	if s := q.Get("from"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			WriteProblem(w, http.StatusBadRequest, "invalid parameters", "from must be epoch seconds", nil)
			return
		}
		from = time.Unix(n, 0).UTC()
	}
	if from.After(to) {
		WriteProblem(w, http.StatusBadRequest, "invalid parameters", "from must not be after to", nil)
		return
	}
	// guardrail: cap excessively large ranges
	if to.Sub(from) > maxWindow {
		from = to.Add(-maxWindow)
	}

	f := spg.MetricsFilter{
		Automation: strings.TrimSpace(q.Get("automation")),
		Subreddit:  strings.TrimSpace(q.Get("subreddit")),
		From:       from,
		To:         to,
	}

	ctx := r.Context()
	var resp metricsResp
	var err error
	resp.Totals, err = d.Metrics.QueryTotals(ctx, f)
	if err != nil {
		WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
		return
	}
	if q.Get("group_by") == "day" {
		resp.Buckets, err = d.Metrics.QueryBucketsDaily(ctx, f)
		if err != nil {
			WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Router ---

func (d *ServerDeps) Router() http.Handler {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", d.HandleHealthz)
	mux.HandleFunc("/readyz", d.HandleReadyz)

	var trigger http.Handler = http.HandlerFunc(d.HandleCommentSubmit)
	trigger = BodyLimit(d.Cfg.MaxBodyBytes)(trigger)
	trigger = RequireJSON(trigger)
	trigger = APIKeyAuth(d.Cfg.APIKeys)(trigger)
	mux.Handle("/triggers/comment-submit", trigger)

	auth := APIKeyAuth(d.Cfg.APIKeys)
	mux.Handle("GET /automations", auth(http.HandlerFunc(d.HandleListAutomations)))
	mux.Handle("GET /automations/{namespace}/settings", auth(http.HandlerFunc(d.HandleGetSettings)))

	var putSettings http.Handler = http.HandlerFunc(d.HandlePutSettings)
	putSettings = BodyLimit(d.Cfg.MaxBodyBytes)(putSettings)
	putSettings = RequireJSON(putSettings)
	putSettings = auth(putSettings)
	mux.Handle("PUT /automations/{namespace}/settings", putSettings)

	var getMetrics http.Handler = http.HandlerFunc(d.HandleGetMetrics)
	getMetrics = RateLimitPerMinute(d.Cfg.RateLimitMetricsPerMin, d.Now)(getMetrics)
	getMetrics = auth(getMetrics)
	mux.Handle("/metrics", getMetrics)

	return RequestLog(d.Log, d.Now)(mux)
}
