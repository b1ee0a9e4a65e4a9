package mailer

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeOTP(t *testing.T) {
	msg := ComposeOTP("no-reply@example.com", "taro@example.com", "123456")
	assert.Equal(t, "パスワードリセットコード", msg.Subject)
	assert.Equal(t, "あなたの確認コードは 123456 です。", msg.Body)
	assert.Equal(t, "taro@example.com", msg.To)
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	dev := NewLogSender("no-reply@example.com", logger, "development")
	require.NoError(t, dev.SendOTP(context.Background(), "taro@example.com", "654321"))
	assert.Contains(t, buf.String(), "654321")

	buf.Reset()
	prod := NewLogSender("no-reply@example.com", logger, "production")
	require.NoError(t, prod.SendOTP(context.Background(), "taro@example.com", "654321"))
	assert.NotContains(t, buf.String(), "654321")
	assert.Contains(t, buf.String(), "taro@example.com")

	assert.Error(t, prod.SendOTP(context.Background(), " ", "1"))
}
