// Package mailer delivers one-time password codes out of band.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const otpSubject = "パスワードリセットコード"

// Message is a plain-text email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// OTPSender delivers a reset code to an email address.
type OTPSender interface {
	SendOTP(ctx context.Context, to, code string) error
}

// ComposeOTP builds the reset-code email.
func ComposeOTP(from, to, code string) Message {
	return Message{
		From:    from,
		To:      to,
		Subject: otpSubject,
		Body:    fmt.Sprintf("あなたの確認コードは %s です。", code),
	}
}

// LogSender writes the message to a structured logger instead of sending it.
// The code itself is logged only when ShowCode is set.
type LogSender struct {
	From     string
	Logger   *slog.Logger
	ShowCode bool
}

// NewLogSender returns a LogSender. Codes are shown outside production.
func NewLogSender(from string, logger *slog.Logger, env string) *LogSender {
	return &LogSender{From: from, Logger: logger, ShowCode: env != "production"}
}

func (s *LogSender) SendOTP(ctx context.Context, to, code string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient address is empty")
	}
	msg := ComposeOTP(s.From, to, code)
	attrs := []any{
		slog.String("from", msg.From),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	}
	if s.ShowCode {
		attrs = append(attrs, slog.String("body", msg.Body))
	}
	s.Logger.InfoContext(ctx, "otp email queued", attrs...)
	return nil
}
