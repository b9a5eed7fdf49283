package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studentreg/pkg/config"
)

func TestMailServiceConsoleMode(t *testing.T) {
	// No SMTP host configured: the message is logged, never transported.
	svc := NewMailService(config.SMTPConfig{From: "noreply@edtech.example"}, zap.NewNop())

	err := svc.SendConfirmation(context.Background(), ConfirmationEmail{
		To:             "john@example.com",
		StudentName:    "John Doe",
		StudentClass:   "Grade 10",
		RegistrationID: "reg-1",
	})
	require.NoError(t, err)
}

func TestRenderConfirmationBody(t *testing.T) {
	body := renderConfirmationBody(ConfirmationEmail{
		StudentName:    "John Doe",
		StudentClass:   "Grade 10",
		RegistrationID: "reg-1",
	})
	assert.Contains(t, body, "Dear John Doe")
	assert.Contains(t, body, "Registration ID: reg-1")
	assert.Contains(t, body, "Class: Grade 10")

	withoutClass := renderConfirmationBody(ConfirmationEmail{StudentName: "Jane", RegistrationID: "reg-2"})
	assert.NotContains(t, withoutClass, "Class:")
}
