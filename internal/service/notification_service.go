package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/osa911/contactform/internal/api/dto/v1/contact"
	"github.com/osa911/contactform/internal/logging"
	"github.com/osa911/contactform/internal/metrics"
)

const defaultSubject = "General Inquiry"

// Notification is a composed outbound message
type Notification struct {
	Subject string
	Body    string
}

// Notifier hands a notification to a transport
type Notifier interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// SubmissionMeta describes where a submission came from
type SubmissionMeta struct {
	Time      time.Time
	IPAddress string
	UserAgent string
}

// Dispatcher composes and delivers the notification for a submission
type Dispatcher interface {
	Send(ctx context.Context, sub contact.Submission, meta SubmissionMeta) bool
}

type displayField struct {
	key   string
	label string
}

// Order and labels of the fields listed in the notification body
var displayFields = []displayField{
	{contact.FieldName, "Name"},
	{contact.FieldEmail, "Email"},
	{contact.FieldPhone, "Phone"},
	{contact.FieldSubject, "Project Type"},
	{contact.FieldBudget, "Budget"},
	{contact.FieldTimeline, "Timeline"},
	{contact.FieldMessage, "Message"},
	{contact.FieldNewsletter, "Newsletter Subscription"},
}

// NotificationService composes contact notifications and sends them
// through a Notifier
type NotificationService struct {
	notifier      Notifier
	subjectPrefix string
	siteName      string
	logger        *logging.Logger
}

// NewNotificationService creates a dispatcher on top of notifier
func NewNotificationService(notifier Notifier, subjectPrefix, siteName string, logger *logging.Logger) *NotificationService {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &NotificationService{
		notifier:      notifier,
		subjectPrefix: subjectPrefix,
		siteName:      siteName,
		logger:        logger,
	}
}

// Send reports whether the transport accepted the notification.
// Transport errors are logged here; callers only choose the wording.
func (s *NotificationService) Send(ctx context.Context, sub contact.Submission, meta SubmissionMeta) bool {
	n := Notification{
		Subject: s.subjectPrefix + ComposeSubject(sub),
		Body:    ComposeBody(sub, meta, s.siteName),
	}

	start := time.Now()
	err := s.notifier.Send(ctx, n)

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.DispatchDuration.WithLabelValues(s.notifier.Name(), result).Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Warn("Failed to deliver contact notification via %s: %v", s.notifier.Name(), err)
		return false
	}
	return true
}

// ComposeSubject builds the subject line from the project type
func ComposeSubject(sub contact.Submission) string {
	projectType := sub.String(contact.FieldSubject)
	if projectType == "" {
		projectType = defaultSubject
	}
	return "New Contact Form: " + projectType
}

// ComposeBody lists the non-empty fields in display order followed by
// submission metadata
func ComposeBody(sub contact.Submission, meta SubmissionMeta, siteName string) string {
	var b strings.Builder
	if siteName != "" {
		fmt.Fprintf(&b, "New contact form submission from %s:\n\n", siteName)
	} else {
		b.WriteString("New contact form submission:\n\n")
	}

	for _, f := range displayFields {
		if !sub.Has(f.key) {
			continue
		}
		value := sub.String(f.key)
		if f.key == contact.FieldNewsletter {
			value = newsletterLabel(sub[f.key])
		}
		fmt.Fprintf(&b, "%s: %s\n", f.label, value)
	}

	userAgent := meta.UserAgent
	if userAgent == "" {
		userAgent = "Unknown"
	}

	b.WriteString("\n---\n")
	fmt.Fprintf(&b, "Submitted: %s\n", meta.Time.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "IP Address: %s\n", meta.IPAddress)
	fmt.Fprintf(&b, "User Agent: %s\n", userAgent)

	return b.String()
}

func newsletterLabel(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "Yes"
		}
	case string:
		if val == "yes" {
			return "Yes"
		}
	}
	return "No"
}

// LogNotifier writes notifications to the logger instead of sending them
type LogNotifier struct {
	logger *logging.Logger
}

// NewLogNotifier creates a development transport
func NewLogNotifier(logger *logging.Logger) *LogNotifier {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Send(ctx context.Context, msg Notification) error {
	n.logger.Info("Contact notification: %s\n%s", msg.Subject, msg.Body)
	return nil
}
