package service

import (
	"time"

	"hexagono/internal/dto"
	"hexagono/internal/model"
	"hexagono/internal/pricing"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

func formatTime(t time.Time) string { return t.Format(timeLayout) }

func estimateToResponse(est pricing.Estimate) dto.EstimateResponse {
	items := make([]dto.LineItemResponse, 0, len(est.Features))
	for _, li := range est.Features {
		items = append(items, dto.LineItemResponse{ID: string(li.ID), Name: li.Name, Cost: li.Cost})
	}
	return dto.EstimateResponse{
		ServiceType:     string(est.ServiceType),
		BasePrice:       est.BasePrice,
		Features:        items,
		FeaturesTotal:   est.FeaturesTotal,
		ComplexityBonus: est.ComplexityBonus,
		Total:           est.Total,
		Currency:        est.Currency,
		Disclaimer:      est.Disclaimer,
		Priority:        string(pricing.PriorityFor(est.Total)),
	}
}

func featuresToResponse(fs []model.QuoteFeature) []dto.LineItemResponse {
	out := make([]dto.LineItemResponse, 0, len(fs))
	for _, f := range fs {
		out = append(out, dto.LineItemResponse{ID: f.FeatureID, Name: f.Name, Cost: f.Cost})
	}
	return out
}

// historyToResponse drops ChangedBy when withActor is false (client view).
func historyToResponse(hs []model.StatusHistory, withActor bool) []dto.HistoryEntryResponse {
	out := make([]dto.HistoryEntryResponse, 0, len(hs))
	for _, h := range hs {
		e := dto.HistoryEntryResponse{
			NewStatus: string(h.NewStatus),
			Notes:     h.Notes,
			CreatedAt: formatTime(h.CreatedAt),
		}
		if h.PreviousStatus != nil {
			prev := string(*h.PreviousStatus)
			e.PreviousStatus = &prev
		}
		if withActor {
			e.ChangedBy = h.ChangedBy
		} else {
			e.Notes = nil
		}
		out = append(out, e)
	}
	return out
}

func noteToResponse(n *model.QuoteNote) dto.NoteResponse {
	return dto.NoteResponse{
		ID:        n.ID.String(),
		Author:    n.Author,
		Body:      n.Body,
		Internal:  n.Internal,
		CreatedAt: formatTime(n.CreatedAt),
	}
}

func notesToResponse(ns []model.QuoteNote) []dto.NoteResponse {
	out := make([]dto.NoteResponse, 0, len(ns))
	for i := range ns {
		out = append(out, noteToResponse(&ns[i]))
	}
	return out
}

func quoteToSummary(q *model.Quote) dto.QuoteSummary {
	return dto.QuoteSummary{
		ID:             q.ID.String(),
		QuoteNumber:    q.QuoteNumber,
		ClientName:     q.ClientName,
		ClientEmail:    q.ClientEmail,
		ServiceType:    string(q.ServiceType),
		EstimatedPrice: q.EstimatedPrice,
		Status:         string(q.Status),
		Priority:       string(q.Priority),
		AssignedTo:     q.AssignedTo,
		CreatedAt:      formatTime(q.CreatedAt),
	}
}

func quoteToResponse(q *model.Quote) dto.QuoteResponse {
	resp := dto.QuoteResponse{
		QuoteSummary:       quoteToSummary(q),
		ClientPhone:        q.ClientPhone,
		ClientCompany:      q.ClientCompany,
		CustomRequirements: q.CustomRequirements,
		BasePrice:          q.BasePrice,
		Features:           featuresToResponse(q.Features),
		FeaturesTotal:      q.FeaturesTotal,
		ComplexityBonus:    q.ComplexityBonus,
		Currency:           q.Currency,
		Disclaimer:         q.Disclaimer,
		UpdatedAt:          formatTime(q.UpdatedAt),
		History:            historyToResponse(q.StatusHistory, true),
		Notes:              notesToResponse(q.Notes),
	}
	if q.LastReminderAt != nil {
		at := formatTime(*q.LastReminderAt)
		resp.LastReminderAt = &at
	}
	return resp
}

// quoteToTracking is the client view: no operator names, no history notes,
// no internal notes.
func quoteToTracking(q *model.Quote) dto.TrackingResponse {
	notes := notesToResponse(q.ClientNotes())
	for i := range notes {
		notes[i].Author = ""
	}
	return dto.TrackingResponse{
		QuoteNumber:    q.QuoteNumber,
		ServiceType:    string(q.ServiceType),
		ServiceLabel:   q.ServiceType.Label(),
		Status:         string(q.Status),
		StatusLabel:    q.Status.Label(),
		EstimatedPrice: q.EstimatedPrice,
		Currency:       q.Currency,
		Features:       featuresToResponse(q.Features),
		History:        historyToResponse(q.StatusHistory, false),
		Notes:          notes,
		CreatedAt:      formatTime(q.CreatedAt),
		UpdatedAt:      formatTime(q.UpdatedAt),
	}
}
