package events

import (
	"github.com/worldboard/server/internal/utils/metrics"
)

var membershipTransitions = map[string]string{
	TypeMemberInvited:  "invited",
	TypeInviteAccepted: "accepted",
	TypeInviteDeclined: "declined",
	TypeMemberKicked:   "kicked",
	TypeMemberLeft:     "left",
}

var taskMutations = map[string]string{
	TypeTaskCreated:    "created",
	TypeTaskToggled:    "toggled",
	TypeTaskNoteEdited: "noted",
	TypeTaskDeleted:    "deleted",
	TypeTasksReordered: "reordered",
}

// MetricsHandler turns board events into Prometheus counters.
type MetricsHandler struct {
	metrics *metrics.Metrics
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(m *metrics.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: m}
}

// Handles returns every membership and task event type.
func (h *MetricsHandler) Handles() []string {
	types := make([]string, 0, len(membershipTransitions)+len(taskMutations))
	for t := range membershipTransitions {
		types = append(types, t)
	}
	for t := range taskMutations {
		types = append(types, t)
	}
	return types
}

// Handle records the event.
func (h *MetricsHandler) Handle(event Event) error {
	if transition, ok := membershipTransitions[event.EventType()]; ok {
		h.metrics.RecordMembershipTransition(transition)
		return nil
	}
	if kind, ok := taskMutations[event.EventType()]; ok {
		h.metrics.RecordTaskMutation(kind)
		if e, ok := event.(*TasksReorderedEvent); ok {
			h.metrics.RecordReorder(e.Count)
		}
	}
	return nil
}
