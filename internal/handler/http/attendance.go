package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/klinika-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/klinika-hris/attendance-backend-go/internal/domain/user"
	"github.com/klinika-hris/attendance-backend-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	engine         attendance.ValidationEngine
	attendanceRepo attendance.AttendanceRepository
}

func NewAttendanceHandler(engine attendance.ValidationEngine, attendanceRepo attendance.AttendanceRepository) AttendanceHandler {
	return &attendanceHandlerImpl{
		engine:         engine,
		attendanceRepo: attendanceRepo,
	}
}

// CheckIn implements AttendanceHandler. Policy rejections (too early,
// outside geofence, already checked in) come back as HTTP 200 with
// validation.valid=false; clients branch on validation.code.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckInRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	// Identitas dan waktu selalu dari server, bukan dari body.
	req.UserID = userID
	req.Timestamp = time.Now()

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, record, err := h.engine.ValidateCheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"validation": result,
		"attendance": attendance.NewAttendanceResponse(record),
	})
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckOutRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	req.UserID = userID
	req.Timestamp = time.Now()

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, record, err := h.engine.ValidateCheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"validation": result,
		"attendance": attendance.NewAttendanceResponse(record),
	})
}

// GetMyAttendance returns the caller's records for one calendar date,
// default today. Multi-shift days return multiple rows ordered by
// time_in.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		response.HandleError(w, user.ErrInvalidToken)
		return
	}

	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(w, "Invalid date format, expected YYYY-MM-DD", nil)
			return
		}
		date = parsed
	}

	records, err := h.attendanceRepo.GetByUserAndDate(r.Context(), userID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	items := make([]*attendance.AttendanceResponse, 0, len(records))
	for i := range records {
		items = append(items, attendance.NewAttendanceResponse(&records[i]))
	}

	response.Success(w, map[string]any{
		"date":        date.Format("2006-01-02"),
		"attendances": items,
	})
}
