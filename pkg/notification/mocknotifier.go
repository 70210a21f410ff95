package notification

import (
	"log/slog"
	"sync"
)

// MockNotifier records notices instead of delivering them. It renders the
// templates so template errors still surface.
type MockNotifier struct {
	mu                sync.Mutex
	SentNotifications []SentNotice
}

// SentNotice is a rendered notice captured by MockNotifier.
type SentNotice struct {
	To      string
	Subject string
	Text    string
	Html    string
}

func (m *MockNotifier) Send(notification NotificationData, tmpl NoticeTemplate) error {
	text, html, err := renderBodies(tmpl, notification.Data)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.SentNotifications = append(m.SentNotifications, SentNotice{
		To:      notification.To,
		Subject: tmpl.Subject,
		Text:    text,
		Html:    html,
	})
	m.mu.Unlock()
	slog.Info("Notice captured", "to", notification.To, "subject", tmpl.Subject)
	return nil
}

// Sent returns a copy of the captured notices.
func (m *MockNotifier) Sent() []SentNotice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentNotice(nil), m.SentNotifications...)
}
