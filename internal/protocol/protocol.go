// Package protocol defines the JSON frames exchanged with chat clients.
//
// Inbound:
//
//	{"type":"chat_message","message":"..."}
//	{"type":"typing","is_typing":true}
//
// Outbound:
//
//	{"type":"ack","status":"Message saved","message":"..."}
//	{"type":"chat_message","message":"...","username":"..."}
//	{"type":"typing","username":"...","is_typing":true}
//	{"type":"error","reason":"..."}
package protocol

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

const (
	TypeChatMessage = "chat_message"
	TypeTyping      = "typing"
	TypeAck         = "ack"
	TypeError       = "error"

	AckStatusSaved = "Message saved"
)

var ErrMalformed = errors.New("malformed frame")

// Inbound is a decoded client frame: ChatMessage, Typing or Unknown.
type Inbound interface {
	inbound()
}

type ChatMessage struct {
	Text string
}

type Typing struct {
	IsTyping bool
}

// Unknown is a well-formed frame whose type this server does not handle.
type Unknown struct {
	Type string
}

func (ChatMessage) inbound() {}
func (Typing) inbound()      {}
func (Unknown) inbound()     {}

type envelope struct {
	Type     string  `json:"type"`
	Message  *string `json:"message"`
	IsTyping *bool   `json:"is_typing"`
}

// Decode parses one text frame. It returns ErrMalformed for invalid JSON,
// a missing type, or a chat_message without a string message field.
// A typing frame without is_typing means the user is typing.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch env.Type {
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	case TypeChatMessage:
		if env.Message == nil {
			return nil, fmt.Errorf("%w: chat_message without message", ErrMalformed)
		}
		return ChatMessage{Text: *env.Message}, nil
	case TypeTyping:
		typing := true
		if env.IsTyping != nil {
			typing = *env.IsTyping
		}
		return Typing{IsTyping: typing}, nil
	default:
		return Unknown{Type: env.Type}, nil
	}
}

type Ack struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ChatBroadcast struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

type TypingBroadcast struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

type Error struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func NewAck(text string) Ack {
	return Ack{Type: TypeAck, Status: AckStatusSaved, Message: text}
}

func NewChatBroadcast(text, username string) ChatBroadcast {
	return ChatBroadcast{Type: TypeChatMessage, Message: text, Username: username}
}

func NewTypingBroadcast(username string, typing bool) TypingBroadcast {
	return TypingBroadcast{Type: TypeTyping, Username: username, IsTyping: typing}
}

func NewError(reason string) Error {
	return Error{Type: TypeError, Reason: reason}
}

func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
