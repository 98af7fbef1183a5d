package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("send: %w", ErrConversationBusy.WithDetail("conv-1"))

	assert.True(t, stderrors.Is(wrapped, ErrConversationBusy))
	assert.False(t, stderrors.Is(wrapped, ErrConversationNotFound))
	assert.Equal(t, http.StatusConflict, AsAppError(wrapped).HTTPStatus)
}

func TestWithDetail_DoesNotMutateShared(t *testing.T) {
	_ = ErrNotFound.WithDetail("x")
	assert.Empty(t, ErrNotFound.Detail)
}

func TestAsAppError_WrapsUnknown(t *testing.T) {
	appErr := AsAppError(stderrors.New("plain"))
	assert.Equal(t, CodeUnknown, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
}

func TestCodeToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, codeToHTTPStatus(CodeEmptyMessage))
	assert.Equal(t, http.StatusBadGateway, codeToHTTPStatus(CodeChatProviderError))
	assert.Equal(t, http.StatusNotFound, codeToHTTPStatus(CodeConversationNotFound))
}
