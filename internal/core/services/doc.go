// Package services implements the driving port interfaces.
// Services contain the sync agent's business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. Time is always read through driven.Clock.
package services
