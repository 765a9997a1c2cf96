package session

// State is a voice session's position in the booking dialogue.
type State int

const (
	// Idle is the initial state and the state after Close.
	Idle State = iota

	// Listening means a speech capture is in flight.
	Listening

	// Processing means a transcript is being parsed or matched.
	Processing

	// AskingTeam means the team prompt was spoken and the session waits to
	// re-listen for a team-only answer.
	AskingTeam

	// Success means a command was produced. The session returns to Idle
	// after the close delay.
	Success

	// Error means capture failed or the team could not be resolved. The
	// session stays here until Close.
	Error
)

var stateNames = [...]string{
	Idle:       "IDLE",
	Listening:  "LISTENING",
	Processing: "PROCESSING",
	AskingTeam: "ASKING_TEAM",
	Success:    "SUCCESS",
	Error:      "ERROR",
}

// String returns the upper-case state name, e.g. "ASKING_TEAM".
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
