package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-scheduling/internal/schedule"
	redisclient "github.com/clinicore/clinic-scheduling/internal/redis"
)

// actorFrom identifies the staff member behind a mutation for the audit
// trail. Authentication itself lives outside this service.
func actorFrom(r *http.Request) string {
	return r.Header.Get("X-Actor")
}

func createAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}
		professionalID, err := uuid.Parse(req.ProfessionalID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", "professional_id must be a valid UUID")
			return
		}
		date, err := schedule.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		in := schedule.CreateInput{
			PatientID:        patientID,
			ProfessionalID:   professionalID,
			Date:             date,
			StartTime:        req.StartTime,
			DurationMin:      req.DurationMin,
			ConsultationType: schedule.ConsultationType(req.ConsultationType),
			Amount:           req.Amount,
			Remarks:          req.Remarks,
			Status:           schedule.Status(req.Status),
			Actor:            actorFrom(r),
		}
		if req.SeriesID != "" {
			seriesID, err := uuid.Parse(req.SeriesID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_series_id", "series_id must be a valid UUID")
				return
			}
			in.SeriesID = &seriesID
		}

		result, err := svc.CreateAppointment(r.Context(), in, req.Confirm)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		resp := ScheduleResponse{
			Applied:   result.Applied,
			Conflicts: toAppointmentResponses(result.Conflicts),
		}
		status := http.StatusOK
		if result.Applied {
			appt := toAppointmentResponse(result.Appointment)
			resp.Appointment = &appt
			status = http.StatusCreated
		}

		writeJSON(w, status, resp)
	}
}

func listAppointmentsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		from, err := schedule.ParseDate(q.Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be YYYY-MM-DD")
			return
		}
		to, err := schedule.ParseDate(q.Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be YYYY-MM-DD")
			return
		}

		var professionalID *uuid.UUID
		if v := q.Get("professional_id"); v != "" && v != "all" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_professional_id", "professional_id must be a valid UUID")
				return
			}
			professionalID = &id
		}

		appts, err := svc.ListRange(r.Context(), from, to, professionalID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func getAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listEventsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		events, err := svc.ListEvents(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]EventResponse, 0, len(events))
		for _, ev := range events {
			out = append(out, EventResponse{
				ID:            ev.ID,
				AppointmentID: ev.AppointmentID,
				Actor:         ev.Actor,
				EventType:     ev.EventType,
				Payload:       ev.Payload,
				CreatedAt:     ev.CreatedAt,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func moveAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req MoveAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := schedule.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		var result *schedule.MoveResult
		switch req.Scope {
		case "", "one":
			result, err = svc.MoveOne(r.Context(), id, date, req.Time, req.Confirm, actorFrom(r))
		case "series":
			result, err = svc.MoveSeries(r.Context(), id, date, req.Time, req.Confirm, actorFrom(r))
		default:
			writeError(w, http.StatusBadRequest, "invalid_scope", "scope must be \"one\" or \"series\"")
			return
		}
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MoveResponse{
			Applied:   result.Applied,
			Moved:     toAppointmentResponses(result.Moved),
			Conflicts: toAppointmentResponses(result.Conflicts),
		})
	}
}

func changeStatusHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req ChangeStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.ChangeStatus(r.Context(), id, schedule.Status(req.Status), actorFrom(r))
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func createSubstitutionHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req SubstitutionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		standInID, err := uuid.Parse(req.StandInPatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_stand_in_patient_id", "stand_in_patient_id must be a valid UUID")
			return
		}

		replacement, err := svc.Substitute(r.Context(), id, standInID, req.Reason, actorFrom(r))
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(replacement))
	}
}

func editSubstitutionHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req SubstitutionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		standInID, err := uuid.Parse(req.StandInPatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_stand_in_patient_id", "stand_in_patient_id must be a valid UUID")
			return
		}

		replacement, err := svc.EditSubstitution(r.Context(), id, standInID, actorFrom(r))
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(replacement))
	}
}

func cancelSubstitutionHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		outcome, err := schedule.ParseCancelOutcome(r.URL.Query().Get("outcome"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_outcome", "outcome must be \"restore\" or \"vacate\"")
			return
		}

		original, err := svc.CancelSubstitution(r.Context(), id, outcome, actorFrom(r))
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(original))
	}
}

func ensurePaymentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req PaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		record, err := svc.EnsurePayment(r.Context(), id, schedule.PaymentStatus(req.Status), req.Amount, actorFrom(r))
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPaymentResponse(record))
	}
}

func ensureInvoiceHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		invoice, err := svc.EnsureInvoice(r.Context(), id, actorFrom(r))
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toInvoiceResponse(invoice))
	}
}

func deleteAppointmentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteAppointment(r.Context(), id); err != nil {
			handleScheduleError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, schedule.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, schedule.ErrProfessionalNotFound):
		writeError(w, http.StatusNotFound, "professional_not_found", err.Error())
	case errors.Is(err, schedule.ErrSubstitutionNotFound):
		writeError(w, http.StatusNotFound, "substitution_not_found", err.Error())
	case errors.Is(err, schedule.ErrInvalidSubstitutionTarget):
		writeError(w, http.StatusConflict, "invalid_substitution_target", err.Error())
	case errors.Is(err, schedule.ErrDuplicateInvoicePeriod):
		writeError(w, http.StatusConflict, "duplicate_invoice_period", err.Error())
	case errors.Is(err, schedule.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, schedule.ErrInvalidConsultationType):
		writeError(w, http.StatusBadRequest, "invalid_consultation_type", err.Error())
	case errors.Is(err, schedule.ErrInvalidPlacement):
		writeError(w, http.StatusBadRequest, "invalid_placement", err.Error())
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "calendar_busy", "this day is being edited by someone else, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
