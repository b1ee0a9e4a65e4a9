package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewValidationError("bad"), fiber.StatusBadRequest},
		{NewConflictError("dup"), fiber.StatusConflict},
		{NewNotFoundError("Post", 7), fiber.StatusNotFound},
		{NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{NewExternalServiceError("rakuten", errors.New("timeout")), fiber.StatusBadGateway},
		{NewPersistenceError(errors.New("disk full")), fiber.StatusInternalServerError},
		{NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{errors.New("plain"), fiber.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NewConflictError("dup")), fiber.StatusConflict},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusCode(tt.err), tt.err.Error())
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NewNotFoundError("User", 1))
	assert.True(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(err, CodeConflict))
	assert.False(t, IsCode(nil, CodeNotFound))
}

func TestNewNotFoundError_Message(t *testing.T) {
	assert.Equal(t, "Post with ID 42 not found", NewNotFoundError("Post", 42).Error())
}

func respond(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return RespondWithAppError(c, err)
	})
	resp, rerr := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, rerr)
	body, _ := io.ReadAll(resp.Body)

	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return resp.StatusCode, out
}

func TestRespondWithError_HidesInternalCause(t *testing.T) {
	status, body := respond(t, NewPersistenceError(errors.New("open /data/shelves.json: permission denied")))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, CodePersist, body.Code)
	assert.Empty(t, body.Details)

	status, body = respond(t, errors.New("sql: connection refused"))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body.Error)
}

func TestRespondWithError_ValidationMessage(t *testing.T) {
	status, body := respond(t, NewValidationError("Comment content is required"))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Comment content is required", body.Error)
	assert.Equal(t, CodeValidation, body.Code)
}

func TestUserOTPValid(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	code := "123456"
	exp := now.Add(10 * time.Minute)
	u := &User{OTPCode: &code, OTPExpiration: &exp}

	assert.True(t, u.OTPValid("123456", now))
	assert.False(t, u.OTPValid("654321", now))
	assert.False(t, u.OTPValid("123456", exp))
	assert.False(t, (&User{}).OTPValid("123456", now))
}

func TestShelves(t *testing.T) {
	s := NewShelves()
	assert.Len(t, s, 9)
	for _, name := range FixedShelves {
		assert.NotNil(t, s[name], name)
		assert.True(t, IsShelf(name))
	}
	assert.False(t, IsShelf("unknown"))
}
