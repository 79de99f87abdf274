package ws

const (
	// Inbound frame types.
	SessionJoin    = "session.join"
	SessionLeave   = "session.leave"
	EventPost      = "event.post"
	SessionMessage = "session.message"
	SessionRoll    = "session.roll"

	// Outbound frame types.
	EventCreated  = "event.created"
	SessionJoined = "session.joined"
	SessionLeft   = "session.left"

	ErrorEvent          = "error"
	AuthenticationError = "error.auth"
	JoinFailed          = "error.join"
)
