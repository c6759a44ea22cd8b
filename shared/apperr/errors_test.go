package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsAreClassifiedWithErrorsIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"invalid argument", InvalidArgument("principal email is blank"), ErrInvalidArgument},
		{"not found", NotFound("account %d not found", 7), ErrNotFound},
		{"forbidden", Forbidden("not yours"), ErrForbidden},
		{"conflict", Conflict("user with email %s already exists", "a@b.c"), ErrConflict},
		{"insufficient funds", InsufficientFunds("balance too low"), ErrInsufficientFunds},
		{"persistence", Persistence("save account", errors.New("connection reset")), ErrPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
		})
	}
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Persistence("save account", cause)

	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Persistence("noop", nil))
}

func TestMessageStripsKindPrefix(t *testing.T) {
	assert.Equal(t, "account 7 not found", Message(NotFound("account %d not found", 7)))
	assert.Equal(t, "plain", Message(errors.New("plain")))
	assert.Equal(t, "", Message(nil))
}
