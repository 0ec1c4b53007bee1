package driving

// EventSink receives host environment events.
// Calls never block on I/O.
type EventSink interface {
	// CredentialChanged reports that a credential was set or removed.
	CredentialChanged(name, domainScope string)

	// NavigationCompleted reports that a page finished loading.
	NavigationCompleted(address string)

	// SurfaceClosed reports that a client surface was closed.
	SurfaceClosed()

	// FocusChanged reports that the focused surface changed.
	FocusChanged()
}
