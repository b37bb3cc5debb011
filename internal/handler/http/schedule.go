package http

import (
	"net/http"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/schedule"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/handler/http/response"
)

type ScheduleHandler interface {
	GetTodayShift(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	shifts schedule.ShiftResolver
}

func NewScheduleHandler(shifts schedule.ShiftResolver) ScheduleHandler {
	return &scheduleHandlerImpl{shifts: shifts}
}

// GetTodayShift runs the same resolution the check-in path uses, so the
// app can show "your next shift" with the exact window the engine will
// enforce. A rejection here is informational, not an error.
func (h *scheduleHandlerImpl) GetTodayShift(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	now := time.Now()
	resolved, rejection, err := h.shifts.FindApplicableShift(r.Context(), userID, now, now)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if rejection != nil {
		response.Success(w, map[string]any{
			"available": false,
			"rejection": map[string]any{
				"code":    rejection.Code,
				"message": rejection.Message,
				"data":    rejection.Data,
			},
		})
		return
	}

	shift := map[string]any{
		"assignment_id":   resolved.Assignment.ID,
		"date":            resolved.Assignment.Date.Format("2006-01-02"),
		"sequence_number": resolved.Assignment.SequenceNumber,
		"shift_name":      resolved.Template.Name,
		"start_time":      resolved.Start.String(),
		"end_time":        resolved.End.String(),
	}
	if resolved.WorkLocation != nil {
		shift["work_location"] = map[string]any{
			"id":            resolved.WorkLocation.ID,
			"name":          resolved.WorkLocation.Name,
			"latitude":      resolved.WorkLocation.Latitude,
			"longitude":     resolved.WorkLocation.Longitude,
			"radius_meters": resolved.WorkLocation.RadiusMeters,
		}
	}

	response.Success(w, map[string]any{
		"available": true,
		"shift":     shift,
	})
}
