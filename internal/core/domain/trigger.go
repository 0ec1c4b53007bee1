package domain

// Trigger identifies what caused a sync attempt.
type Trigger string

// Triggers that can start an attempt chain.
const (
	TriggerManualPopup      Trigger = "manual_popup"
	TriggerManualAPI        Trigger = "manual_api"
	TriggerCredentialChange Trigger = "cookie_change"
	TriggerPageLoad         Trigger = "page_load"
	TriggerHeartbeat        Trigger = "heartbeat"
)

// IsValid returns true if the trigger is recognised.
func (t Trigger) IsValid() bool {
	switch t {
	case TriggerManualPopup, TriggerManualAPI, TriggerCredentialChange, TriggerPageLoad, TriggerHeartbeat:
		return true
	default:
		return false
	}
}

// IsManual returns true for triggers issued directly by a user.
func (t Trigger) IsManual() bool {
	return t == TriggerManualPopup || t == TriggerManualAPI
}

// String returns the wire representation.
func (t Trigger) String() string {
	return string(t)
}
