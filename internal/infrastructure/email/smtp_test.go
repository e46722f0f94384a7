package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/licensegate/licensegate/internal/domain/notification"
	sharedConfig "github.com/licensegate/licensegate/internal/shared/config"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func enabledConfig() sharedConfig.EmailConfig {
	return sharedConfig.EmailConfig{
		SMTPHost:    "smtp.example.com",
		SMTPPort:    587,
		FromAddress: "noreply@example.com",
		FromName:    "LicenseGate",
	}
}

func TestSMTPEmailService_Send(t *testing.T) {
	dialer := &fakeDialer{}
	s := &SMTPEmailService{config: enabledConfig(), dialer: dialer}

	err := s.Send(context.Background(), notification.Message{
		To:      "buyer@example.com",
		Subject: "Your license expires soon",
		Body:    "Key LG-ABC\nExpires in 3 days",
	})
	require.NoError(t, err)
	require.Len(t, dialer.sent, 1)

	m := dialer.sent[0]
	assert.Equal(t, []string{"buyer@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Your license expires soon"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Expires in 3 days")
}

func TestSMTPEmailService_Guards(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		dialer := &fakeDialer{}
		s := &SMTPEmailService{config: sharedConfig.EmailConfig{}, dialer: dialer}
		assert.False(t, s.Enabled())
		assert.NoError(t, s.Send(context.Background(), notification.Message{To: "a@b.c"}))
		assert.Empty(t, dialer.sent)
	})

	t.Run("recipient required", func(t *testing.T) {
		s := &SMTPEmailService{config: enabledConfig(), dialer: &fakeDialer{}}
		assert.ErrorIs(t, s.Send(context.Background(), notification.Message{}), ErrNoRecipient)
	})

	t.Run("dial failure is wrapped", func(t *testing.T) {
		s := &SMTPEmailService{config: enabledConfig(), dialer: &fakeDialer{err: errors.New("refused")}}
		err := s.Send(context.Background(), notification.Message{To: "a@b.c", Subject: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "refused")
	})
}

func TestRenderHTML(t *testing.T) {
	out, err := renderHTML(notification.Message{Subject: "<x>", Body: "a\n**b**<script>c</script>"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<html><body><h2>&lt;x&gt;</h2><p>a<br/>"))
	assert.Contains(t, out, "<strong>b</strong>")
	assert.NotContains(t, out, "<script>")
}
