package statemachine

import (
	"fmt"
	"strings"

	"github.com/juju/errors"

	"movers-api/models"
)

// Actor classes used by the transition table.
const (
	ActorClient = "client"
	ActorAdmin  = "admin"
	ActorSystem = "system" // payment gateway callbacks
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.RequestStatus `json:"from"`
	To    models.RequestStatus `json:"to"`
	Actor string               `json:"actor"`
}

// validTransitions is the authoritative state machine definition.
// pending -> claimed normally happens through Claim, which records the claimant.
var validTransitions = []Transition{
	// Clients may only cancel, and only before completion
	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorClient},
	{From: models.StatusClaimed, To: models.StatusCancelled, Actor: ActorClient},
	{From: models.StatusAccepted, To: models.StatusCancelled, Actor: ActorClient},

	// Admins may move a live request to any other state
	{From: models.StatusPending, To: models.StatusClaimed, Actor: ActorAdmin},
	{From: models.StatusPending, To: models.StatusAccepted, Actor: ActorAdmin},
	{From: models.StatusPending, To: models.StatusCompleted, Actor: ActorAdmin},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorAdmin},
	{From: models.StatusClaimed, To: models.StatusPending, Actor: ActorAdmin},
	{From: models.StatusClaimed, To: models.StatusAccepted, Actor: ActorAdmin},
	{From: models.StatusClaimed, To: models.StatusCompleted, Actor: ActorAdmin},
	{From: models.StatusClaimed, To: models.StatusCancelled, Actor: ActorAdmin},
	{From: models.StatusAccepted, To: models.StatusPending, Actor: ActorAdmin},
	{From: models.StatusAccepted, To: models.StatusClaimed, Actor: ActorAdmin},
	{From: models.StatusAccepted, To: models.StatusCompleted, Actor: ActorAdmin},
	{From: models.StatusAccepted, To: models.StatusCancelled, Actor: ActorAdmin},

	// A verified payment accepts the request
	{From: models.StatusPending, To: models.StatusAccepted, Actor: ActorSystem},
	{From: models.StatusClaimed, To: models.StatusAccepted, Actor: ActorSystem},
}

type transitionKey struct {
	From  models.RequestStatus
	To    models.RequestStatus
	Actor string
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

// CanTransition checks if a given actor class can move from one state to another
func CanTransition(from, to models.RequestStatus, actor string) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return errors.NewNotValid(nil, fmt.Sprintf(
		"invalid transition: %s -> %s is not allowed for %s. Valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from),
	))
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
	return validTransitions
}
