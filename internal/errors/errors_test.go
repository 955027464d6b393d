package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"gojsm/domain/core"
)

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"app error", InvalidInput("bad cell"), CodeInvalidInput},
		{"wrapped app error", fmt.Errorf("reading: %w", NotFound("run")), CodeNotFound},
		{"schema mismatch", core.NewSchemaMismatchError(3, 2), CodeInvalidInput},
		{"unknown method", fmt.Errorf("%w: lattice", core.ErrUnknownMethod), CodeConfigInvalid},
		{"run not found", core.NewNotFoundError("run", "x"), CodeNotFound},
		{"not fitted", core.ErrNotFitted, CodeValidationError},
		{"plain", stderrors.New("boom"), CodeInternalError},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
		})
	}
}

func TestWrapKeepsDomainCode(t *testing.T) {
	err := Wrap(core.NewDuplicateExampleError(4), "loading dataset")

	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.True(t, stderrors.Is(err, core.ErrDuplicateExample))
	assert.Equal(t, "loading dataset: duplicate example identifier: 4", err.Error())
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeDatabaseError, stderrors.New("connection refused"))
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.True(t, IsAppError(err))

	recoded := WithCode(CodeUnavailable, err)
	assert.Equal(t, CodeUnavailable, GetCode(recoded))
	assert.Equal(t, "connection refused", recoded.(*AppError).Message)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(core.ErrInvalidThreshold))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidInput("x")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(core.ErrRunNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(Unavailable("no database")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("boom")))
}
