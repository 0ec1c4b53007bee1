// Package domain defines the core business entities for sessync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - CredentialRecord: A session credential read from the host
//   - AttemptContext: One execution of the sync pipeline
//   - OutcomeRecord: The persisted result of a terminal attempt
//   - DiagnosticResult: The result of a connectivity test
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
