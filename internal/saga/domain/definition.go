package domain

import (
	"github.com/allisson/ordersaga/internal/messaging"
)

// Action applies a transition's data mutations to the instance and computes
// the outgoing messages. Outgoing envelopes carry fresh message ids but the
// triggering event's correlation id.
type Action func(instance *Instance, env messaging.Envelope) ([]messaging.Envelope, error)

// Transition is one entry of the transition table.
type Transition struct {
	Action    Action
	NextState State
}

// transitionKey identifies a transition table entry by (current state, event type).
type transitionKey struct {
	state       State
	messageType string
}

// Definition is a declarative saga description: the event type that creates an
// instance and the table of legal transitions.
type Definition struct {
	// InitiatingType is the only event type allowed to create an instance.
	InitiatingType string

	transitions map[transitionKey]Transition
}

// NewDefinition creates an empty Definition for the given initiating event type.
func NewDefinition(initiatingType string) *Definition {
	return &Definition{
		InitiatingType: initiatingType,
		transitions:    make(map[transitionKey]Transition),
	}
}

// AddTransition registers a transition for (state, messageType). Later
// registrations for the same pair overwrite earlier ones.
func (d *Definition) AddTransition(state State, messageType string, transition Transition) {
	d.transitions[transitionKey{state: state, messageType: messageType}] = transition
}

// Resolve looks up the transition for (state, messageType).
func (d *Definition) Resolve(state State, messageType string) (Transition, bool) {
	transition, ok := d.transitions[transitionKey{state: state, messageType: messageType}]
	return transition, ok
}
