package notification

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"
)

// NotificationData is one message to one recipient.
type NotificationData struct {
	To   string            // Recipient email address
	Data map[string]string // Values substituted into the template
}

// NoticeTemplate holds the subject and the text and HTML bodies of a notice.
// Bodies are Go templates executed against NotificationData.Data.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// Notifier delivers a notice.
type Notifier interface {
	Send(notification NotificationData, tmpl NoticeTemplate) error
}

// renderBodies executes the text and HTML templates of tmpl.
func renderBodies(tmpl NoticeTemplate, data map[string]string) (text string, html string, err error) {
	if tmpl.Text != "" {
		t, err := template.New("text").Parse(tmpl.Text)
		if err != nil {
			return "", "", err
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return "", "", err
		}
		text = buf.String()
	}

	if tmpl.Html != "" {
		t, err := htmltemplate.New("html").Parse(tmpl.Html)
		if err != nil {
			return "", "", err
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return "", "", err
		}
		html = buf.String()
	}

	return text, html, nil
}
