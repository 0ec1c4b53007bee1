package domain

// PresenceState reflects whether a companion surface is open.
type PresenceState string

// Presence states.
const (
	PresenceUnknown PresenceState = ""
	PresencePresent PresenceState = "present"
	PresenceAbsent  PresenceState = "absent"
)

// IndicatorState is what the external indicator shows. Icon and label are
// always delivered together.
type IndicatorState struct {
	Presence PresenceState `json:"presence"`
	Icon     string        `json:"icon"`
	Label    string        `json:"label"`
}

// IndicatorFor returns the indicator state for a presence state.
func IndicatorFor(p PresenceState) IndicatorState {
	if p == PresencePresent {
		return IndicatorState{
			Presence: p,
			Icon:     "active",
			Label:    "Companion app open - sync enabled",
		}
	}
	return IndicatorState{
		Presence: PresenceAbsent,
		Icon:     "inactive",
		Label:    "Companion app not open - sync paused",
	}
}
