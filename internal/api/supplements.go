package api

import (
	"net/http"

	"example.com/fittrack/internal/domain"
)

// CreateSupplementRequest is the payload for POST /v1/supplements.
type CreateSupplementRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	Timing      string `json:"timing"`
	TimeOfDay   string `json:"time_of_day"`
	Days        []int  `json:"days"`
}

func (h *Handler) createSupplement(w http.ResponseWriter, r *http.Request) {
	claims, ok := canWrite(w, r)
	if !ok {
		return
	}
	var req CreateSupplementRequest
	if !decodeBody(w, r, &req) {
		return
	}

	supplement, err := h.service.CreateSupplement(r.Context(), domain.CreateSupplementInput{
		UserID:      claims.Subject,
		Name:        req.Name,
		Description: req.Description,
		Frequency:   domain.SupplementFrequency(req.Frequency),
		Timing:      domain.SupplementTiming(req.Timing),
		TimeOfDay:   req.TimeOfDay,
		Days:        req.Days,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSupplementView(*supplement))
}

func (h *Handler) listSupplements(w http.ResponseWriter, r *http.Request) {
	claims, ok := canRead(w, r)
	if !ok {
		return
	}
	supplements, err := h.service.ListSupplements(r.Context(), claims.Subject)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := make([]SupplementView, 0, len(supplements))
	for _, s := range supplements {
		items = append(items, toSupplementView(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// recordSupplement serves both take and skip.
func (h *Handler) recordSupplement(taken bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := canWrite(w, r)
		if !ok {
			return
		}
		record, err := h.service.RecordSupplement(r.Context(), claims.Subject, r.PathValue("id"), taken)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, SupplementRecordView{
			ID:           record.ID,
			SupplementID: record.SupplementID,
			Timestamp:    record.Timestamp,
			Taken:        record.Taken,
		})
	}
}
