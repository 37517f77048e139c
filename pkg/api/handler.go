package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"creotrail/validator/pkg/store"
)

// DomainRecorder receives classification, signup, login and history
// observations. *metrics.Collector satisfies it.
type DomainRecorder interface {
	RecordClassification(classification string)
	RecordSignup(role string)
	RecordLogin(result string)
	RecordHistoryQuery(layout, format string, rows int)
}

// Options configures a Handler.
type Options struct {
	// Layout labels history metrics with the decision log layout.
	Layout string

	// CSVHeader includes the header row in CSV history exports.
	CSVHeader bool

	// RecentLimit is the number of validators /recent_active returns.
	RecentLimit int

	Metrics DomainRecorder
	Logger  *slog.Logger
}

// Handler serves the validator API on top of a store.
type Handler struct {
	store store.Store
	opts  Options

	metrics DomainRecorder
	logger  *slog.Logger
}

// NewHandler creates a handler. Missing metrics and logger fall back to a
// no-op recorder and slog.Default.
func NewHandler(s store.Store, opts Options) *Handler {
	if opts.Metrics == nil {
		opts.Metrics = noopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 10
	}
	return &Handler{
		store:   s,
		opts:    opts,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
}

// Register adds every API route to r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/", h.root).Methods(http.MethodGet)

	r.HandleFunc("/signup", h.signup).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)

	r.HandleFunc("/commands", h.commands).Methods(http.MethodGet)
	r.HandleFunc("/contexts/{command_id}", h.contexts).Methods(http.MethodGet)

	r.HandleFunc("/mark_dynamic", h.mark(store.Dynamic)).Methods(http.MethodPost)
	r.HandleFunc("/mark_static", h.mark(store.Static)).Methods(http.MethodPost)
	r.HandleFunc("/last_cmd/{user_id}", h.lastCmd).Methods(http.MethodGet)
	r.HandleFunc("/update_last_cmd", h.updateLastCmd).Methods(http.MethodPost)

	r.HandleFunc("/validators", h.validators).Methods(http.MethodGet)
	r.HandleFunc("/validator_stats/{user_id}", h.validatorStats).Methods(http.MethodGet)
	r.HandleFunc("/user_counts", h.userCounts).Methods(http.MethodGet)
	r.HandleFunc("/recent_active", h.recentActive).Methods(http.MethodGet)
	r.HandleFunc("/history/{user_id}", h.history).Methods(http.MethodGet)
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Backend is running!"})
}

type noopRecorder struct{}

func (noopRecorder) RecordClassification(string) {}
func (noopRecorder) RecordSignup(string) {}
func (noopRecorder) RecordLogin(string) {}
func (noopRecorder) RecordHistoryQuery(string, string, int) {}
