package ws

const (
	// server - client
	MsgReady  = "ready"
	MsgChange = "change"
	MsgError  = "error"
)

// Envelope wraps every server-to-client message.
type Envelope struct {
	Type       string `json:"type"`
	Collection string `json:"collection,omitempty"`
	Event      any    `json:"event,omitempty"`
	Error      string `json:"error,omitempty"`
}
