package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateRoomName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		err  error
	}{
		{"lobby", "lobby", nil},
		{"dash and underscore", "team-a_1", nil},
		{"empty", "", ErrRoomNameEmpty},
		{"space", "my room", ErrRoomNameInvalid},
		{"slash", "a/b", ErrRoomNameInvalid},
		{"too long", strings.Repeat("x", MaxRoomNameLen+1), ErrRoomNameInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, ValidateRoomName(tc.in), tc.err)
		})
	}
}

func TestNewUser(t *testing.T) {
	req := require.New(t)

	u, err := NewUser("alice", time.Now())
	req.NoError(err)
	req.Equal(Identity("alice"), u.Username)
	req.NotEmpty(u.ID)

	_, err = NewUser("", time.Now())
	req.ErrorIs(err, ErrUsernameEmpty)

	_, err = NewUser(strings.Repeat("a", MaxUsernameLen+1), time.Now())
	req.ErrorIs(err, ErrUsernameTooLong)
}
