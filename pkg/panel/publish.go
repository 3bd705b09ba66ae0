package panel

import "github.com/wisbric/ai-shell/pkg/eventbus"

// Publish emits a layout.update event at priority 2 (high), so UI redraws
// preempt enrichment (spec.md §4.8).
func Publish(bus *eventbus.Bus, layout PanelLayout) error {
	return bus.Publish(eventbus.Event{
		Topic:    "layout.update",
		Priority: eventbus.PriorityHigh,
		Payload:  layout,
	})
}
