package distribute

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"path/filepath"

	"posterbot/config"
	"posterbot/types"
)

// Mailer delivers the video as a mail attachment. One blocking attempt,
// no retry — a transport failure is terminal for this run's distribution.
type Mailer struct {
	settings config.EmailSettings
}

// NewMailer creates a Mailer from the mail settings
func NewMailer(settings config.EmailSettings) *Mailer {
	return &Mailer{settings: settings}
}

func (m *Mailer) Publish(_ context.Context, video *types.VideoArtifact, meta types.PublishMetadata) (*types.PublishReceipt, error) {
	data, err := os.ReadFile(video.Path)
	if err != nil {
		return &types.PublishReceipt{}, fmt.Errorf("read video: %w", err)
	}

	log.Printf("[distribute] Sending mail to %s...", m.settings.Receiver)

	msg := m.buildMessage(meta, filepath.Base(video.Path), data)
	addr := fmt.Sprintf("%s:%d", m.settings.SMTPHost, m.settings.SMTPPort)
	auth := smtp.PlainAuth("", m.settings.Sender, m.settings.AppPassword, m.settings.SMTPHost)

	if err := smtp.SendMail(addr, auth, m.settings.Sender, []string{m.settings.Receiver}, msg); err != nil {
		return &types.PublishReceipt{}, fmt.Errorf("send mail: %w", err)
	}

	log.Println("[distribute] Mail sent")
	return &types.PublishReceipt{Success: true}, nil
}

// buildMessage assembles a multipart MIME message with the video attached
func (m *Mailer) buildMessage(meta types.PublishMetadata, filename string, attachment []byte) []byte {
	const boundary = "posterbot-mime-boundary"

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.settings.Sender)
	fmt.Fprintf(&buf, "To: %s\r\n", m.settings.Receiver)
	fmt.Fprintf(&buf, "Subject: %s\r\n", meta.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(meta.Body + "\r\n\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: video/mp4\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", filename)

	encoded := base64.StdEncoding.EncodeToString(attachment)
	// RFC 2045 line length limit
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76] + "\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded + "\r\n")
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes()
}
