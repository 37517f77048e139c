package api

import (
	"net/http"

	"creotrail/validator/pkg/store"
)

func (h *Handler) validators(w http.ResponseWriter, r *http.Request) {
	refs, err := h.store.Validators(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "validators", err)
		return
	}
	if refs == nil {
		refs = []store.ValidatorRef{}
	}
	writeJSON(w, http.StatusOK, refs)
}

func (h *Handler) validatorStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	stats, err := h.store.ValidatorStats(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, r, "validator_stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) userCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.UserCountsByRole(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "user_counts", err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *Handler) recentActive(w http.ResponseWriter, r *http.Request) {
	active, err := h.store.RecentlyActiveValidators(r.Context(), h.opts.RecentLimit)
	if err != nil {
		h.writeStoreError(w, r, "recent_active", err)
		return
	}
	if active == nil {
		active = []store.ActiveValidator{}
	}
	writeJSON(w, http.StatusOK, active)
}
