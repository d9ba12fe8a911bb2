package notify

import "sync"

// Mailer delivers one HTML email.
type Mailer interface {
	Send(to, subject, html string) error
}

// Message is an email captured by MemoryMailer.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// MemoryMailer keeps sent messages in memory for tests and local runs.
type MemoryMailer struct {
	mu   sync.Mutex
	sent []Message
}

// Send implements Mailer.
func (m *MemoryMailer) Send(to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Message{To: to, Subject: subject, HTML: html})
	return nil
}

// Sent returns a copy of the messages sent so far.
func (m *MemoryMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
