// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - CredentialSource: Reads and removes session credentials
//   - LivenessSource: Enumerates active client surfaces
//   - KVStore: Persisted key/value state (outcomes, last clear)
//   - Backend: Credential transfer and status reports
//   - SessionProber: Connectivity test transport
//   - Clock: Time and timers
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - HistoryStore: Attempt history. Without it, only the last outcome is kept.
//   - Indicator: Presence indicator. Without it, presence changes are only tracked.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
