// Package view derives the grouped, ordered presentation of a ticket
// snapshot.
//
// The derivation is pure: [Build] takes tickets, users and the two view
// selectors and returns a fresh [GroupedView]. Nothing is cached between
// calls and nothing in the input is modified. [Board] wraps the derivation
// with the state a long-running host needs (the latest snapshot and the
// current selectors) and re-derives from scratch whenever either changes.
//
// Data flow:
//
//	[source.Source] --snapshot--> [Board] <--selectors-- [prefs / user]
//	                                 |
//	                           Build (pure)
//	                                 |
//	                  [GroupedView] --> listeners (prefs saver, events, SSE)
package view
