package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Waleed-coder079/clinic-receptionist/internal/schedule"
	"github.com/Waleed-coder079/clinic-receptionist/pkg/logging"
)

// Handler exposes the scheduling engine over HTTP to the conversational front
// end, which has already extracted city, day, slot, and patient name strings.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates the appointments HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("appointments: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// errorResponse carries a reported failure plus actionable remediation fields.
type errorResponse struct {
	Error           string   `json:"error"`
	AlternateBranch string   `json:"alternate_branch,omitempty"`
	ValidSlots      []string `json:"valid_slots,omitempty"`
}

// bookingResponse wraps a confirmed appointment with the doctor profile the
// front end reads back to the patient.
type bookingResponse struct {
	Appointment *Appointment `json:"appointment"`
	Doctor      Doctor       `json:"doctor"`
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ClinicNow handles GET /clinic/now.
func (h *Handler) ClinicNow(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"now": h.service.ClinicNow()})
}

// Availability handles GET /availability?city=...&day=...
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Availability(r.Context(), r.URL.Query().Get("city"), r.URL.Query().Get("day"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Book handles POST /appointments.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	appt, err := h.service.Book(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingResponse{Appointment: appt, Doctor: ClinicDoctor})
}

// CancelByID handles DELETE /appointments/{appointmentID}.
func (h *Handler) CancelByID(w http.ResponseWriter, r *http.Request) {
	appt, err := h.service.Cancel(r.Context(), CancelRequest{
		AppointmentID: chi.URLParam(r, "appointmentID"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Cancel handles DELETE /appointments?patient_name=...&day=... for callers
// that lost the appointment id.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	appt, err := h.service.Cancel(r.Context(), CancelRequest{
		PatientName: r.URL.Query().Get("patient_name"),
		Day:         r.URL.Query().Get("day"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// listResponse is the appointment directory payload.
type listResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Count        int            `json:"count"`
	Doctor       Doctor         `json:"doctor"`
}

// List handles GET /appointments.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	writeJSON(w, http.StatusOK, listResponse{Appointments: appts, Count: len(appts), Doctor: ClinicDoctor})
}

// writeError maps the engine's error taxonomy onto HTTP statuses: input
// errors 400, domain conflicts 409, not-found 404, persistence failures 502.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}

	var wrongBranch *WrongBranchError
	if errors.As(err, &wrongBranch) {
		resp.AlternateBranch = wrongBranch.Alternate.Title()
	}
	var invalidSlot *InvalidSlotError
	if errors.As(err, &invalidSlot) {
		resp.ValidSlots = schedule.CanonicalSlotStrings()
	}

	switch {
	case IsInputError(err):
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, ErrAppointmentNotFound):
		writeJSON(w, http.StatusNotFound, resp)
	case IsDomainConflict(err):
		writeJSON(w, http.StatusConflict, resp)
	default:
		h.logger.Error("scheduling operation failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "operation failed, please retry later"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
