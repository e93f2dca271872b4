package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Inbound
	}{
		{"chat", `{"type":"chat_message","message":"hi"}`, ChatMessage{Text: "hi"}},
		{"chat empty text", `{"type":"chat_message","message":""}`, ChatMessage{Text: ""}},
		{"typing true", `{"type":"typing","is_typing":true}`, Typing{IsTyping: true}},
		{"typing false", `{"type":"typing","is_typing":false}`, Typing{IsTyping: false}},
		{"typing default", `{"type":"typing"}`, Typing{IsTyping: true}},
		{"unknown", `{"type":"rename","name":"x"}`, Unknown{Type: "rename"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode([]byte(tc.in))
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	for name, in := range map[string]string{
		"not json":         `hello`,
		"no type":          `{"message":"hi"}`,
		"chat no message":  `{"type":"chat_message"}`,
		"chat number":      `{"type":"chat_message","message":5}`,
		"truncated object": `{"type":"chat_message",`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(in))
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestEncode(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"ack", NewAck("hello"), `{"type":"ack","status":"Message saved","message":"hello"}`},
		{"chat", NewChatBroadcast("hello", "alice"), `{"type":"chat_message","message":"hello","username":"alice"}`},
		{"typing", NewTypingBroadcast("alice", false), `{"type":"typing","username":"alice","is_typing":false}`},
		{"error", NewError("Message not saved"), `{"type":"error","reason":"Message not saved"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Encode(tc.in)
			require.NoError(t, err)
			require.JSONEq(t, tc.want, string(b))
		})
	}
}
