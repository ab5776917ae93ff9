package models

// EventKind discriminates inbound messaging-channel events.
type EventKind string

const (
	// EventText is free text or a tapped reply-keyboard button.
	EventText EventKind = "text"
	// EventCommand is a slash command; Event.Text carries the bare name.
	EventCommand EventKind = "command"
	// EventCallback is an inline-button press; Event.Text carries the data.
	EventCallback EventKind = "callback"
	// EventDocument is a file upload; Event.Document describes it.
	EventDocument EventKind = "document"
)

// Event is a structured inbound event tagged with a stable user identity.
type Event struct {
	Kind     EventKind
	UserID   string
	Text     string
	Document *DocumentRef
}

// DocumentRef identifies an uploaded file on the messaging channel.
type DocumentRef struct {
	FileID   string
	FileName string
}

// Button is a single keyboard button. Data is set for inline buttons only.
type Button struct {
	Label string
	Data  string
}

// Keyboard is a reply or inline keyboard attached to an outbound message.
type Keyboard struct {
	Rows   [][]Button
	Inline bool
}

// Reply is an outbound message produced by the session engine. When
// DocumentPath is set the channel sends the file instead of plain text.
type Reply struct {
	Text         string
	Keyboard     *Keyboard
	DocumentPath string
}

// TextReply builds a plain text reply.
func TextReply(text string) Reply {
	return Reply{Text: text}
}

// KeyboardReply builds a text reply with an attached keyboard.
func KeyboardReply(text string, kb *Keyboard) Reply {
	return Reply{Text: text, Keyboard: kb}
}
