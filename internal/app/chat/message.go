/*
Package chat contains the client side of the live chat room: the session
state machine, the WebSocket lifecycle, and the append-only message log.

This file defines the Message frame and the deduplication key. The backend
assigns no message identifier, so identity is the (timestamp, senderID)
pair; two frames sharing both are treated as duplicate delivery of one
message. Genuine distinct messages from one sender within the same
millisecond are therefore indistinguishable, a limitation of the wire
contract, not of this client.
*/
package chat

// Message type tags carried in the frame's discriminator field.
const (
	// TypeMessage marks an ordinary user-composed chat message.
	TypeMessage = "message"

	// TypeSystem marks a server-generated announcement.
	TypeSystem = "system"
)

// Message is one chat frame as exchanged over the socket. Frames are UTF-8
// JSON objects; inbound instances are append-only and never mutated once
// received.
type Message struct {
	// Type discriminates user messages from system announcements.
	Type string `json:"type"`

	// Content is the message text.
	Content string `json:"content"`

	// SenderID identifies the sending principal.
	SenderID string `json:"sender_id"`

	// Username is the sender's display name at send time.
	Username string `json:"username"`

	// Timestamp is the server-assigned ISO timestamp, kept verbatim as a
	// string because it doubles as half of the dedup key.
	Timestamp string `json:"timestamp"`

	// ImageURL optionally references the sender's avatar.
	ImageURL string `json:"imageUrl,omitempty"`
}

// messageKey builds the deduplication identity for a frame.
func messageKey(m Message) string {
	return m.Timestamp + "\x00" + m.SenderID
}

// outboundFrame is the only shape this client transmits.
type outboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}
