package workflow

import (
	"fmt"

	"homelet/internal/models"
)

// EventStatus classifies a timeline event relative to the record's progress.
type EventStatus string

const (
	EventCompleted EventStatus = "completed"
	EventCurrent   EventStatus = "current"
	EventPending   EventStatus = "pending"
)

// Event is one human-readable step in the lifecycle timeline.
type Event struct {
	Title       string      `json:"title"`
	Status      EventStatus `json:"status"`
	Description string      `json:"description"`
}

// step is an internal row of the projection table before classification.
type step struct {
	title       string
	description string
	satisfied   bool
	prereqMet   bool
	// placeholder steps stay visible as pending when their prerequisite is
	// unmet instead of being dropped, so users can see the remaining work.
	placeholder bool
}

// Project maps an application record to its ordered lifecycle timeline.
// Deterministic and side-effect free; recomputed fresh from the record on
// every call. Exactly one event is current, the first step that is not yet
// satisfied but whose prerequisite holds, unless the record is rejected or
// the chain is complete.
func Project(app *models.Application) []Event {
	events := []Event{{
		Title:       "Submitted",
		Status:      EventCompleted,
		Description: fmt.Sprintf("Application submitted on %s", app.SubmittedAt.Format("2 Jan 2006")),
	}}

	if app.Status == models.ApplicationStatusRejected {
		desc := "Application was rejected"
		if app.Feedback != "" {
			desc = fmt.Sprintf("Application was rejected: %s", app.Feedback)
		}
		// Rejection ends the timeline; nothing downstream is shown and there
		// is no current event.
		return append(events, Event{Title: "Landlord Review", Status: EventCompleted, Description: desc})
	}

	accepted := app.Status == models.ApplicationStatusAccepted
	steps := []step{
		{
			title:       "Landlord Review",
			description: reviewDescription(app),
			satisfied:   accepted,
			prereqMet:   true,
		},
		{
			title:       "Contract Upload",
			description: "Landlord uploads the rental contract",
			satisfied:   app.HasContract(),
			prereqMet:   accepted,
		},
		{
			title:       "Tenant Signature",
			description: "Tenant signs the contract",
			satisfied:   app.ContractSignedTenant,
			prereqMet:   app.HasContract(),
			placeholder: true,
		},
		{
			title:       "Landlord Signature",
			description: "Landlord signs the contract",
			satisfied:   app.ContractSignedLandlord,
			prereqMet:   app.HasContract(),
			placeholder: true,
		},
		{
			title:       "Rent Payment",
			description: "Tenant pays the deposit",
			satisfied:   app.IsPaid(),
			prereqMet:   app.BothSigned(),
			placeholder: true,
		},
		{
			title:       "Finalization",
			description: "Rental agreement is finalized",
			satisfied:   app.Stage == models.StageCompleted,
			prereqMet:   app.BothSigned() && app.IsPaid(),
		},
	}

	haveCurrent := false
	for _, s := range steps {
		switch {
		case s.satisfied:
			events = append(events, Event{Title: s.title, Status: EventCompleted, Description: s.description})
		case s.prereqMet && !haveCurrent:
			haveCurrent = true
			events = append(events, Event{Title: s.title, Status: EventCurrent, Description: s.description})
		case s.placeholder:
			events = append(events, Event{Title: s.title, Status: EventPending, Description: s.description})
		default:
			// A non-placeholder step behind an unmet prerequisite is omitted
			// entirely rather than shown as pending.
		}
	}
	return events
}

func reviewDescription(app *models.Application) string {
	switch app.Status {
	case models.ApplicationStatusAccepted:
		if app.Feedback != "" {
			return fmt.Sprintf("Application accepted: %s", app.Feedback)
		}
		return "Application accepted"
	default:
		return "Awaiting landlord review"
	}
}
