// Package events defines the search events emitted on the event bus.
//
// Available event types:
//   - GenerationEvent: a generation has been scored
//   - ImprovementEvent: the best fitness of the run decreased
//   - RunFinishedEvent: the search loop stopped
package events
