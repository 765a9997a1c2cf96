package voicews

import "github.com/MrWong99/voxbook/pkg/types"

// Client → server message types. Binary frames carry one recorded
// utterance instead.
const (
	msgTranscript = "transcript"
	msgError      = "error"
	msgClose      = "close"
)

// Client error codes reported by the browser speech engine.
const (
	codeUnsupported      = "unsupported"
	codeRecognitionError = "recognition-error"
)

// Server → client message types.
const (
	msgListen = "listen"
	msgSpeak  = "speak"
	msgState  = "state"
	msgResult = "result"
)

// inbound is a decoded client text frame.
type inbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Code string `json:"code,omitempty"`
}

// outbound is every server frame. Unused fields are omitted.
type outbound struct {
	Type       string               `json:"type"`
	SessionID  string               `json:"session_id,omitempty"`
	Language   string               `json:"language,omitempty"`
	Text       string               `json:"text,omitempty"`
	State      string               `json:"state,omitempty"`
	Message    string               `json:"message,omitempty"`
	Transcript string               `json:"transcript,omitempty"`
	Suggestion string               `json:"suggestion,omitempty"`
	Command    *types.ParsedCommand `json:"command,omitempty"`
}

// turn is one client answer delivered to a pending capture.
type turn struct {
	text  string
	audio []byte
	code  string
}
