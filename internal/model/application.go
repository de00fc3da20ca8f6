package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// ApplicationStatus tracks the outcome of an application once a posting is
// marked applied.
type ApplicationStatus string

const (
	AppAwaitingResponse ApplicationStatus = "awaiting response"
	AppGotInterview     ApplicationStatus = "got interview"
	AppNoInterview      ApplicationStatus = "no interview"
	AppGotFlyout        ApplicationStatus = "got flyout"
	AppNoFlyout         ApplicationStatus = "no flyout"
	AppGotOffer         ApplicationStatus = "got offer"
	AppNoOffer          ApplicationStatus = "no offer"
	AppOfferAccepted    ApplicationStatus = "offer accepted"
	AppOfferRejected    ApplicationStatus = "offer rejected"
)

// ApplicationAction is a user action on an application.
type ApplicationAction string

const (
	ActionProgress  ApplicationAction = "progress"
	ActionInterrupt ApplicationAction = "interrupt"
	ActionRegress   ApplicationAction = "regress"
)

// ErrNoTransition is returned when an action has no target from the current state.
var ErrNoTransition = errors.New("no application transition")

type appTransitions struct {
	progress, interrupt, regress ApplicationStatus
}

var applicationTable = map[ApplicationStatus]appTransitions{
	AppAwaitingResponse: {progress: AppGotInterview, interrupt: AppNoInterview},
	AppGotInterview:     {progress: AppGotFlyout, interrupt: AppNoFlyout, regress: AppAwaitingResponse},
	AppGotFlyout:        {progress: AppGotOffer, interrupt: AppNoOffer, regress: AppGotInterview},
	AppGotOffer:         {progress: AppOfferAccepted, interrupt: AppOfferRejected, regress: AppGotFlyout},
	AppNoInterview:      {progress: AppGotInterview},
	AppNoFlyout:         {progress: AppGotFlyout},
	AppNoOffer:          {progress: AppGotOffer},
	AppOfferRejected:    {progress: AppOfferAccepted},
	AppOfferAccepted:    {regress: AppGotOffer},
}

// ResolvedApplicationStatuses are terminal outcomes hidden from the
// unresolved applications view.
var ResolvedApplicationStatuses = []ApplicationStatus{
	AppNoInterview, AppNoFlyout, AppNoOffer, AppOfferAccepted, AppOfferRejected,
}

// Resolved reports whether the application has reached an outcome.
func (s ApplicationStatus) Resolved() bool {
	return slices.Contains(ResolvedApplicationStatuses, s)
}

// Progress advances the application to the next positive state.
func (s ApplicationStatus) Progress() (ApplicationStatus, error) {
	return s.apply(ActionProgress)
}

// Interrupt moves the application to the negative counterpart of its state.
func (s ApplicationStatus) Interrupt() (ApplicationStatus, error) {
	return s.apply(ActionInterrupt)
}

// Regress moves the application back one positive state.
func (s ApplicationStatus) Regress() (ApplicationStatus, error) {
	return s.apply(ActionRegress)
}

// Apply runs the named action.
func (s ApplicationStatus) Apply(action ApplicationAction) (ApplicationStatus, error) {
	return s.apply(action)
}

func (s ApplicationStatus) apply(action ApplicationAction) (ApplicationStatus, error) {
	row, ok := applicationTable[s]
	if !ok {
		return "", eris.Errorf("unknown application status %q", s)
	}
	var next ApplicationStatus
	switch action {
	case ActionProgress:
		next = row.progress
	case ActionInterrupt:
		next = row.interrupt
	case ActionRegress:
		next = row.regress
	default:
		return "", eris.Errorf("unknown application action %q", action)
	}
	if next == "" {
		return "", eris.Wrapf(ErrNoTransition, "%s from %q", action, s)
	}
	return next, nil
}

// ParseApplicationAction validates an action name.
func ParseApplicationAction(s string) (ApplicationAction, error) {
	a := ApplicationAction(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionProgress, ActionInterrupt, ActionRegress:
		return a, nil
	}
	return "", eris.Errorf("unknown application action %q", s)
}

// LettersStatus formats the "k/n" letters summary.
func LettersStatus(received, writers int) string {
	return fmt.Sprintf("%d/%d", received, writers)
}
