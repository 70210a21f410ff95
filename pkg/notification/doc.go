// Package notification delivers confirmation notices.
//
// EmailNotifier sends through SMTP with go-mail. MockNotifier captures the
// rendered notices in memory, for tests and for running without a mail server.
//
//	notifier, err := notification.NewEmailNotifier(notification.SMTPConfig{
//		Host: "localhost",
//		Port: 1025,
//		From: "noreply@example.com",
//	})
//	err = notifier.Send(notification.NotificationData{
//		To:   "matti@example.com",
//		Data: map[string]string{"Firstname": "Matti", "Link": link},
//	}, notification.ConfirmationTemplate)
package notification
