package domain

import (
	"context"
	"time"
)

// EventType defines the category of a transition event.
type EventType string

const (
	EventTransitionStart      EventType = "transition_start"
	EventTransitionCommit     EventType = "transition_commit"
	EventTransitionReject     EventType = "transition_reject"
	EventTransitionSuperseded EventType = "transition_superseded"
	EventRewind               EventType = "rewind"
)

// TransitionEvent describes one step in the life of a transition request.
type TransitionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Action    Action    `json:"action"`

	// From is the location that was current when the event fired (nil before the first commit).
	From *Location `json:"from,omitempty"`
	To   Location  `json:"to"`

	// Message is the value a before hook vetoed with, if any.
	Message any `json:"message,omitempty"`

	// Delta is the adapter move requested by a rewind.
	Delta int `json:"delta,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Nil fields are skipped.
type LifecycleHooks struct {
	OnTransitionStart      func(context.Context, *TransitionEvent)
	OnTransitionCommit     func(context.Context, *TransitionEvent)
	OnTransitionReject     func(context.Context, *TransitionEvent)
	OnTransitionSuperseded func(context.Context, *TransitionEvent)
	OnRewind               func(context.Context, *TransitionEvent)
}

// Merge returns hooks that call h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransitionStart:      chain(h.OnTransitionStart, other.OnTransitionStart),
		OnTransitionCommit:     chain(h.OnTransitionCommit, other.OnTransitionCommit),
		OnTransitionReject:     chain(h.OnTransitionReject, other.OnTransitionReject),
		OnTransitionSuperseded: chain(h.OnTransitionSuperseded, other.OnTransitionSuperseded),
		OnRewind:               chain(h.OnRewind, other.OnRewind),
	}
}

func chain(a, b func(context.Context, *TransitionEvent)) func(context.Context, *TransitionEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *TransitionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
