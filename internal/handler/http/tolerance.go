package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/tolerance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/handler/http/response"
)

type ToleranceHandler interface {
	GetMyTolerance(w http.ResponseWriter, r *http.Request)
	UpsertSetting(w http.ResponseWriter, r *http.Request)
	IssueOverride(w http.ResponseWriter, r *http.Request)
	IssueGeofenceOverride(w http.ResponseWriter, r *http.Request)
}

type toleranceHandlerImpl struct {
	resolver    tolerance.Resolver
	settingRepo tolerance.ToleranceSettingRepository
	userRepo    user.UserRepository
}

func NewToleranceHandler(resolver tolerance.Resolver, settingRepo tolerance.ToleranceSettingRepository, userRepo user.UserRepository) ToleranceHandler {
	return &toleranceHandlerImpl{
		resolver:    resolver,
		settingRepo: settingRepo,
		userRepo:    userRepo,
	}
}

// GetMyTolerance resolves today's effective check-in and check-out
// windows for the caller, including which layer produced them.
func (h *toleranceHandlerImpl) GetMyTolerance(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	u, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	now := time.Now()
	checkin, err := h.resolver.Resolve(r.Context(), u, tolerance.ActionCheckIn, now)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	checkout, err := h.resolver.Resolve(r.Context(), u, tolerance.ActionCheckOut, now)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	geofenceOverride, err := h.resolver.ActiveGeofenceOverride(r.Context(), userID, now)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"date":                     now.Format("2006-01-02"),
		"checkin":                  checkin,
		"checkout":                 checkout,
		"geofence_override_active": geofenceOverride != nil,
	})
}

// UpsertSetting creates or updates a persistent tolerance setting.
// Admin only.
func (h *toleranceHandlerImpl) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	var req tolerance.UpsertSettingRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	saved, err := h.settingRepo.Upsert(r.Context(), req.ToSetting())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Setting user-scope langsung menggugurkan cache resolusi user itu.
	if saved.Scope == tolerance.ScopeUser {
		if err := h.resolver.Invalidate(r.Context(), saved.ScopeValue); err != nil {
			response.HandleError(w, err)
			return
		}
	}

	response.SuccessWithMessage(w, "Tolerance setting saved", saved)
}

// IssueOverride stores a day-scoped tolerance exception for one user.
// Admin only; expires at end of the target day.
func (h *toleranceHandlerImpl) IssueOverride(w http.ResponseWriter, r *http.Request) {
	var req tolerance.OverrideRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	issuedBy, ok := currentUserID(r)
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	o := req.ToOverride(issuedBy, time.Now())
	if err := h.resolver.IssueOverride(r.Context(), o); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Tolerance override issued", o)
}

// IssueGeofenceOverride bypasses location validation for one user for
// one day. Admin only.
func (h *toleranceHandlerImpl) IssueGeofenceOverride(w http.ResponseWriter, r *http.Request) {
	var req tolerance.GeofenceOverrideRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	issuedBy, ok := currentUserID(r)
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	o := req.ToOverride(issuedBy, time.Now())
	if err := h.resolver.IssueGeofenceOverride(r.Context(), o); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Geofence override issued", o)
}
