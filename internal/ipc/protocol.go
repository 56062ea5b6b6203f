package ipc

// Request is one newline-delimited JSON command sent to the running daemon.
type Request struct {
	Command  string `json:"command"`
	Shortcut string `json:"shortcut,omitempty"`
}

type Response struct {
	OK        bool   `json:"ok"`
	State     string `json:"state,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Shortcut  string `json:"shortcut,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}
