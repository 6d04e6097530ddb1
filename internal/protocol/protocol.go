// Package protocol defines the JSON room protocol spoken over a room's
// websocket connection. Every payload carries a "type" discriminant;
// messages decode into a closed set of event types so handling can switch
// exhaustively. Unrecognized inbound types decode to Unknown and are
// skipped by consumers, keeping the protocol forward-compatible.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rapidkeys/rapidkeys/internal/model"
)

// Message type discriminants.
const (
	TypeChatMessage    = "chat_message"
	TypeStartRace      = "start_race"
	TypeTypingProgress = "typing_progress"
	TypeNotification   = "notification"
	TypeRoomJoined     = "room_joined"
	TypeUserJoined     = "user_joined"
	TypeUserLeft       = "user_left"
	TypeRaceStarted    = "race_started"
	TypeUserProgress   = "user_progress"
)

// Close reasons sent with the policy-violation close code on rejected
// joins. Clients match these strings exactly.
const (
	ReasonRaceInProgress = "Race already in progress"
	ReasonRoomNotFound   = "Room not found"
	ReasonInvalidToken   = "Invalid token"
	ReasonAlreadyInRoom  = "User already in room"
)

type envelope struct {
	Type string `json:"type"`
}

// ServerEvent is an inbound message from the server, one of the concrete
// event types below.
type ServerEvent interface {
	serverEvent()
}

// RoomJoined is the full room snapshot sent to a joining client. It is
// the only event that replaces local state wholesale.
type RoomJoined struct {
	Type   string     `json:"type"`
	Room   model.Room `json:"room"`
	YourID string     `json:"your_id"`
}

// UserJoined announces a join along with the authoritative roster.
type UserJoined struct {
	Type  string           `json:"type"`
	User  model.RoomUser   `json:"user"`
	Users []model.RoomUser `json:"room_users"`
}

// UserLeft announces a departure along with the authoritative roster.
type UserLeft struct {
	Type     string           `json:"type"`
	UserID   string           `json:"user_id"`
	Username string           `json:"username"`
	Users    []model.RoomUser `json:"room_users"`
}

// ChatBroadcast relays one chat message to the room.
type ChatBroadcast struct {
	Type    string            `json:"type"`
	Message model.ChatMessage `json:"message"`
}

// RaceStarted carries the shared word sequence, the seed for time-mode
// extensions, and the start instant. The server is the sole authority
// on all three.
type RaceStarted struct {
	Type      string    `json:"type"`
	Words     []string  `json:"words"`
	Seed      int64     `json:"seed"`
	StartTime time.Time `json:"start_time"`
}

// ProgressUpdate relays one participant's live race metrics.
type ProgressUpdate struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	Progress int    `json:"progress"`
	WPM      int    `json:"wpm"`
	Accuracy int    `json:"accuracy"`
}

// NotificationEvent relays an opaque participant notification.
type NotificationEvent struct {
	Type    string       `json:"type"`
	UserID  string       `json:"user_id,omitempty"`
	Payload Notification `json:"payload"`
}

// Unknown is any inbound type outside the enumerated set.
type Unknown struct {
	Type string
}

func (RoomJoined) serverEvent()        {}
func (UserJoined) serverEvent()        {}
func (UserLeft) serverEvent()          {}
func (ChatBroadcast) serverEvent()     {}
func (RaceStarted) serverEvent()       {}
func (ProgressUpdate) serverEvent()    {}
func (NotificationEvent) serverEvent() {}
func (Unknown) serverEvent()           {}

// DecodeServerEvent parses one inbound frame. Malformed JSON is an error;
// an unrecognized type is not.
func DecodeServerEvent(data []byte) (ServerEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode message envelope: %w", err)
	}
	switch env.Type {
	case TypeRoomJoined:
		var ev RoomJoined
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		return ev, nil
	case TypeUserJoined:
		var ev UserJoined
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		return ev, nil
	case TypeUserLeft:
		var ev UserLeft
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		return ev, nil
	case TypeChatMessage:
		var ev ChatBroadcast
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		return ev, nil
	case TypeRaceStarted:
		var ev RaceStarted
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		return ev, nil
	case TypeUserProgress, TypeTypingProgress:
		// Some server revisions relay progress under the outbound name.
		var ev ProgressUpdate
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		return ev, nil
	case TypeNotification:
		var ev NotificationEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		return ev, nil
	default:
		return Unknown{Type: env.Type}, nil
	}
}

// ClientCommand is an outbound message from a client, one of the concrete
// command types below.
type ClientCommand interface {
	clientCommand()
}

// ChatCommand sends a chat line to the room.
type ChatCommand struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// StartRaceCommand asks the server to start the race. Only honored when
// the sender is the room's creator.
type StartRaceCommand struct {
	Type string `json:"type"`
}

// ProgressCommand reports the sender's live race metrics.
type ProgressCommand struct {
	Type     string `json:"type"`
	Progress int    `json:"progress"`
	WPM      int    `json:"wpm"`
	Accuracy int    `json:"accuracy"`
}

// Notification is an arbitrary payload forwarded to other participants,
// such as a race-completion announcement. No acknowledgment is expected.
type Notification struct {
	Kind string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NotificationCommand wraps a Notification for sending.
type NotificationCommand struct {
	Type    string       `json:"type"`
	Payload Notification `json:"payload"`
}

// UnknownCommand is any client type outside the enumerated set.
type UnknownCommand struct {
	Type string
}

func (ChatCommand) clientCommand()         {}
func (StartRaceCommand) clientCommand()    {}
func (ProgressCommand) clientCommand()     {}
func (NotificationCommand) clientCommand() {}
func (UnknownCommand) clientCommand()      {}

// NewChat builds an outbound chat command stamped with the current time.
func NewChat(text string, at time.Time) ChatCommand {
	return ChatCommand{Type: TypeChatMessage, Message: text, Timestamp: at}
}

// NewStartRace builds the host's start command.
func NewStartRace() StartRaceCommand {
	return StartRaceCommand{Type: TypeStartRace}
}

// NewProgress builds an outbound progress report.
func NewProgress(p model.Progress) ProgressCommand {
	return ProgressCommand{
		Type:     TypeTypingProgress,
		Progress: p.Progress,
		WPM:      p.WPM,
		Accuracy: p.Accuracy,
	}
}

// NewNotification builds an outbound notification.
func NewNotification(kind string, data json.RawMessage) NotificationCommand {
	return NotificationCommand{
		Type:    TypeNotification,
		Payload: Notification{Kind: kind, Data: data},
	}
}

// DecodeClientCommand parses one frame received from a client.
func DecodeClientCommand(data []byte) (ClientCommand, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode message envelope: %w", err)
	}
	switch env.Type {
	case TypeChatMessage:
		var cmd ChatCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		return cmd, nil
	case TypeStartRace:
		return NewStartRace(), nil
	case TypeTypingProgress:
		var cmd ProgressCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		return cmd, nil
	case TypeNotification:
		var cmd NotificationCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", env.Type, err)
		}
		return cmd, nil
	default:
		return UnknownCommand{Type: env.Type}, nil
	}
}
