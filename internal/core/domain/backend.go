package domain

// SourceBrowserExtension is the "source" value the backend expects on sync requests.
const SourceBrowserExtension = "browser_extension"

// SyncPayload is the body of a credential transfer.
type SyncPayload struct {
	Cookies          string `json:"cookies"`
	Timestamp        int64  `json:"timestamp"`
	Source           string `json:"source"`
	Trigger          string `json:"trigger"`
	CookieCount      int    `json:"cookie_count"`
	ExtensionVersion string `json:"extension_version"`
}

// SyncResponse is the backend answer to a successful transfer.
type SyncResponse struct {
	Message     string `json:"message"`
	CookieCount int    `json:"cookie_count"`
}

// StatusPayload is the body of a status report.
type StatusPayload struct {
	CookieCount      int    `json:"cookie_count"`
	RequiredCount    int    `json:"required_count"`
	Status           string `json:"status"`
	Timestamp        int64  `json:"timestamp"`
	Trigger          string `json:"trigger"`
	ExtensionVersion string `json:"extension_version"`
}
