// Package api exposes the engine's operations over HTTP: allocation
// and lifecycle calls for orchestration callers, the admission check
// for channel senders, and capacity reads for resource selection.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/lead-engine/internal/domain"
	"github.com/ignite/lead-engine/internal/service/admission"
	"github.com/ignite/lead-engine/internal/service/allocation"
	"github.com/ignite/lead-engine/internal/service/pool"
	"github.com/ignite/lead-engine/internal/service/resource"
	"github.com/ignite/lead-engine/internal/service/suppression"
)

// Handlers holds the service dependencies for all HTTP endpoints.
type Handlers struct {
	pool         *pool.Service
	allocations  *allocation.Service
	gate         *admission.Gate
	resources    *resource.Service
	suppressions *suppression.Service
}

// NewHandlers creates a Handlers instance.
func NewHandlers(p *pool.Service, a *allocation.Service, g *admission.Gate, r *resource.Service, s *suppression.Service) *Handlers {
	return &Handlers{
		pool:         p,
		allocations:  a,
		gate:         g,
		resources:    r,
		suppressions: s,
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// --- Pool ---

// UpsertPoolEntry ingests one enrichment record.
func (h *Handlers) UpsertPoolEntry(w http.ResponseWriter, r *http.Request) {
	var in pool.UpsertInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.pool.Upsert(r.Context(), in)
	if err != nil {
		if errors.Is(err, pool.ErrEmailMissing) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "upsert failed")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// GetPoolEntry returns one entry by id.
func (h *Handlers) GetPoolEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.pool.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, pool.ErrNotFound) {
			respondError(w, http.StatusNotFound, "pool entry not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// MarkPoolEntryBounced sets the platform-wide bounce flag.
func (h *Handlers) MarkPoolEntryBounced(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.MarkBounced(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, http.StatusInternalServerError, "mark bounced failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// MarkPoolEntryUnsubscribed sets the platform-wide unsubscribe flag.
func (h *Handlers) MarkPoolEntryUnsubscribed(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.MarkUnsubscribed(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, http.StatusInternalServerError, "mark unsubscribed failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// --- Allocation ---

type allocateRequest struct {
	TenantID string                    `json:"tenant_id"`
	Count    int                       `json:"count"`
	Criteria domain.AllocationCriteria `json:"criteria"`
}

// Allocate claims up to count matching leads for a tenant.
func (h *Handlers) Allocate(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TenantID == "" {
		respondError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	assignments, err := h.allocations.Allocate(r.Context(), req.TenantID, req.Criteria, req.Count)
	if err != nil {
		if errors.Is(err, allocation.ErrCountOutOfRange) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "allocation failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"requested":   req.Count,
		"allocated":   len(assignments),
		"assignments": assignments,
	})
}

type releaseRequest struct {
	Reason string `json:"reason"`
}

// ReleaseAssignment returns a lead to the pool.
func (h *Handlers) ReleaseAssignment(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	json.NewDecoder(r.Body).Decode(&req)

	err := h.allocations.Release(r.Context(), chi.URLParam(r, "id"), req.Reason)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, allocation.ErrConverted):
		respondError(w, http.StatusConflict, "converted assignments cannot be released")
	case errors.Is(err, allocation.ErrNotFound):
		respondError(w, http.StatusNotFound, "assignment not found")
	default:
		respondError(w, http.StatusInternalServerError, "release failed")
	}
}

// ReleaseAllAssignments releases every active assignment for a tenant.
func (h *Handlers) ReleaseAllAssignments(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	json.NewDecoder(r.Body).Decode(&req)

	released, err := h.allocations.ReleaseAll(r.Context(), chi.URLParam(r, "tenantID"), req.Reason)
	if err != nil {
		respondJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"released": released,
			"error":    err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"released": released})
}

// ConvertAssignment permanently retires the lead as won.
func (h *Handlers) ConvertAssignment(w http.ResponseWriter, r *http.Request) {
	err := h.allocations.MarkConverted(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, allocation.ErrNotFound):
		respondError(w, http.StatusNotFound, "assignment not found")
	case errors.Is(err, allocation.ErrNotActive):
		respondError(w, http.StatusConflict, "assignment is not active")
	default:
		respondError(w, http.StatusInternalServerError, "convert failed")
	}
}

type touchRequest struct {
	Channel domain.Channel `json:"channel"`
}

// RecordTouch registers a completed contact attempt.
func (h *Handlers) RecordTouch(w http.ResponseWriter, r *http.Request) {
	var req touchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.allocations.RecordTouch(r.Context(), chi.URLParam(r, "id"), req.Channel)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, allocation.ErrNotFound):
		respondError(w, http.StatusNotFound, "assignment not found")
	case errors.Is(err, allocation.ErrNotActive):
		respondError(w, http.StatusConflict, "assignment is not active")
	default:
		respondError(w, http.StatusBadRequest, err.Error())
	}
}

type replyRequest struct {
	Intent domain.ReplyIntent `json:"intent"`
}

// RecordReply registers a classified reply from the lead.
func (h *Handlers) RecordReply(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.allocations.RecordReply(r.Context(), chi.URLParam(r, "id"), req.Intent)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, allocation.ErrNotFound):
		respondError(w, http.StatusNotFound, "assignment not found")
	default:
		respondError(w, http.StatusInternalServerError, "record reply failed")
	}
}

// --- Admission ---

type validateRequest struct {
	PoolID   string         `json:"pool_id"`
	TenantID string         `json:"tenant_id"`
	Channel  domain.Channel `json:"channel"`
}

// Validate runs the pre-send checklist. Denials are 200s: they are
// expected outcomes the sender acts on, not faults.
func (h *Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	decision, err := h.gate.Validate(r.Context(), req.PoolID, req.TenantID, req.Channel)
	if err != nil {
		// Fail closed: the decision is already a denial, surface both.
		respondJSON(w, http.StatusServiceUnavailable, decision)
		return
	}
	respondJSON(w, http.StatusOK, decision)
}

// --- Resources ---

// GetCapacity returns today's sending budget for a resource.
func (h *Handlers) GetCapacity(w http.ResponseWriter, r *http.Request) {
	c, err := h.resources.GetCapacity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			respondError(w, http.StatusNotFound, "resource not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "capacity read failed")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// SelectBestResource picks the tenant's resource with the most
// remaining outbound capacity.
func (h *Handlers) SelectBestResource(w http.ResponseWriter, r *http.Request) {
	best, err := h.resources.SelectBestResource(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		if errors.Is(err, resource.ErrNoCapacity) {
			respondError(w, http.StatusConflict, "no resource with available capacity")
			return
		}
		respondError(w, http.StatusInternalServerError, "resource selection failed")
		return
	}
	respondJSON(w, http.StatusOK, best)
}

// UpdateHealth triggers a health recompute for one resource. Exposed
// for externally scheduled maintenance.
func (h *Handlers) UpdateHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.resources.UpdateHealth(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			respondError(w, http.StatusNotFound, "resource not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "health recompute failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"health_status": string(health)})
}

// BufferShortfall reports how many resources need provisioning.
func (h *Handlers) BufferShortfall(w http.ResponseWriter, r *http.Request) {
	shortfall, err := h.resources.BufferShortfall(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "buffer check failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"shortfall": shortfall})
}

type outcomeRequest struct {
	Outcome domain.SendOutcome `json:"outcome"`
}

// RecordSendOutcome appends a delivery fact to a resource's history.
func (h *Handlers) RecordSendOutcome(w http.ResponseWriter, r *http.Request) {
	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.resources.RecordSendOutcome(r.Context(), chi.URLParam(r, "id"), req.Outcome)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, resource.ErrNotFound):
		respondError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, resource.ErrUnknownOutcome):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "record outcome failed")
	}
}

// --- Suppression ---

type suppressRequest struct {
	Email  string                   `json:"email"`
	Reason domain.SuppressionReason `json:"reason"`
}

// Suppress adds an email to the tenant's do-not-contact list.
func (h *Handlers) Suppress(w http.ResponseWriter, r *http.Request) {
	var req suppressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.suppressions.Suppress(r.Context(), chi.URLParam(r, "tenantID"), req.Email, req.Reason)
	if err != nil {
		if errors.Is(err, suppression.ErrEmailMissing) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "suppress failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Unsuppress removes an email from the tenant's list.
func (h *Handlers) Unsuppress(w http.ResponseWriter, r *http.Request) {
	err := h.suppressions.Remove(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "email"))
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, suppression.ErrNotFound):
		respondError(w, http.StatusNotFound, "suppression entry not found")
	default:
		respondError(w, http.StatusInternalServerError, "unsuppress failed")
	}
}

// ListSuppressions returns the tenant's suppression entries.
func (h *Handlers) ListSuppressions(w http.ResponseWriter, r *http.Request) {
	filter := suppression.ListFilter{
		Reason: r.URL.Query().Get("reason"),
		Search: r.URL.Query().Get("search"),
		Limit:  100,
	}

	entries, total, err := h.suppressions.List(r.Context(), chi.URLParam(r, "tenantID"), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":   total,
		"entries": entries,
	})
}
