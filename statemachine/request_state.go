package statemachine

import (
	"errors"
	"strings"

	"bloodlink/models"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.RequestStatus
	To    models.RequestStatus
	Actor models.UserRole
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// A donor takes on a pending request
	{From: models.StatusPending, To: models.StatusAccepted, Actor: models.RoleDonor},
	// The recipient or an admin withdraws a pending request
	{From: models.StatusPending, To: models.StatusCancelled, Actor: models.RoleRecipient},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: models.RoleAdmin},
	// The donation happened
	{From: models.StatusAccepted, To: models.StatusCompleted, Actor: models.RoleDonor},
	{From: models.StatusAccepted, To: models.StatusCompleted, Actor: models.RoleAdmin},
	// Accepted requests can still fall through
	{From: models.StatusAccepted, To: models.StatusCancelled, Actor: models.RoleRecipient},
	{From: models.StatusAccepted, To: models.StatusCancelled, Actor: models.RoleAdmin},
}

type transitionKey struct {
	From  models.RequestStatus
	To    models.RequestStatus
	Actor models.UserRole
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.RequestStatus) []models.RequestStatus {
	var nexts []models.RequestStatus
	seen := map[models.RequestStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status models.RequestStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

// IsForward reports whether any actor may move a request from one state to
// the other. A status never moves backwards, so this is false for from == to.
func IsForward(from, to models.RequestStatus) bool {
	for _, t := range validTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.RequestStatus, actor models.UserRole) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " → " + string(to) +
			" is not allowed for " + string(actor) + ". " +
			"Valid transitions from " + string(from) + " are: " + describeValidFrom(from),
	)
}

func describeValidFrom(status models.RequestStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}
