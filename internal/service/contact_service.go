package service

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/osa911/contactform/internal/api/dto/v1/contact"
	"github.com/osa911/contactform/internal/api/intake"
	"github.com/osa911/contactform/internal/api/sanitization"
	"github.com/osa911/contactform/internal/api/validation"
	"github.com/osa911/contactform/internal/logging"
	"github.com/osa911/contactform/internal/metrics"
	"github.com/osa911/contactform/internal/utils"
)

// OutcomeKind classifies the result of processing a submission
type OutcomeKind string

const (
	OutcomeAccepted         OutcomeKind = "accepted"
	OutcomeRateLimited      OutcomeKind = "rate_limited"
	OutcomeMalformedRequest OutcomeKind = "malformed_request"
	OutcomeSpamRejected     OutcomeKind = "spam_rejected"
	OutcomeValidationFailed OutcomeKind = "validation_failed"
	OutcomeDispatchFailed   OutcomeKind = "dispatch_failed"
	OutcomeInternalFault    OutcomeKind = "internal_fault"
)

// User-facing messages; none of them reveal which check fired
const (
	MsgAccepted         = "Message sent successfully!"
	MsgRateLimited      = "Too many requests. Please try again later."
	MsgNoData           = "No data received"
	MsgSpamRejected     = "Request blocked by spam protection"
	MsgValidationFailed = "Validation failed"
	MsgDispatchFailed   = "Failed to send email. Please try again."
	MsgInternalFault    = "An error occurred. Please try again."
)

// Outcome is the terminal state of one submission: accepted, or rejected
// with a kind, a status code and, for validation failures, field errors.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Status  int
	Errors  validation.Errors
}

// Accepted reports whether the submission went through
func (o Outcome) Accepted() bool {
	return o.Kind == OutcomeAccepted
}

func accepted(message string) Outcome {
	return Outcome{Kind: OutcomeAccepted, Message: message, Status: http.StatusOK}
}

func rejected(kind OutcomeKind, message string, status int) Outcome {
	return Outcome{Kind: kind, Message: message, Status: status}
}

// ContactRequest carries what the processor needs from one HTTP request
type ContactRequest struct {
	Header      http.Header
	RemoteAddr  string
	UserAgent   string
	ContentType string
	Body        []byte
}

// ContactServiceDeps wires the collaborators of ContactService.
// Limiter may be nil when rate limiting is disabled.
type ContactServiceDeps struct {
	Limiter    RateLimiter
	Spam       *SpamService
	Dispatcher Dispatcher
	Audit      AuditLogger
	Parsers    []intake.Parser
	Logger     *logging.Logger
	Now        func() time.Time
}

// ContactService runs a submission through throttling, parsing,
// sanitizing, spam checks, validation, dispatch and auditing
type ContactService struct {
	limiter    RateLimiter
	spam       *SpamService
	dispatcher Dispatcher
	audit      AuditLogger
	parsers    []intake.Parser
	logger     *logging.Logger
	now        func() time.Time
	tracer     trace.Tracer
}

// NewContactService creates the submission processor
func NewContactService(deps ContactServiceDeps) *ContactService {
	s := &ContactService{
		limiter:    deps.Limiter,
		spam:       deps.Spam,
		dispatcher: deps.Dispatcher,
		audit:      deps.Audit,
		parsers:    deps.Parsers,
		logger:     deps.Logger,
		now:        deps.Now,
		tracer:     otel.Tracer("github.com/osa911/contactform/internal/service"),
	}
	if s.parsers == nil {
		s.parsers = intake.DefaultParsers()
	}
	if s.logger == nil {
		s.logger = logging.GetGlobalLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Process handles one submission and always returns an outcome.
// Panics in any stage become an InternalFault.
func (s *ContactService) Process(ctx context.Context, req *ContactRequest) (out Outcome) {
	ctx, span := s.tracer.Start(ctx, "contact.Process")
	defer func() {
		if r := recover(); r != nil {
			out = s.fault(fmt.Errorf("%w: panic: %v\n%s", ErrInternal, r, debug.Stack()))
		}
		metrics.SubmissionOutcomes.WithLabelValues(string(out.Kind)).Inc()
		span.SetAttributes(
			attribute.String("contact.outcome", string(out.Kind)),
			attribute.Int("http.status_code", out.Status),
		)
		if out.Kind == OutcomeInternalFault {
			span.SetStatus(codes.Error, out.Message)
		}
		span.End()
	}()

	if req == nil {
		return s.fault(fmt.Errorf("%w: nil request", ErrInternal))
	}

	now := s.now()
	identity := utils.ResolveClientIP(req.Header.Get, req.RemoteAddr)
	span.SetAttributes(attribute.String("contact.identity", identity))

	if s.limiter != nil && !s.limiter.IsAllowed(ctx, identity, now) {
		return rejected(OutcomeRateLimited, MsgRateLimited, http.StatusTooManyRequests)
	}

	raw, source, ok := intake.Resolve(req.ContentType, req.Body, s.parsers...)
	if !ok {
		return rejected(OutcomeMalformedRequest, MsgNoData, http.StatusBadRequest)
	}
	span.SetAttributes(attribute.String("contact.source", source))

	sub := sanitization.Submission(raw)

	if s.spam != nil && !s.spam.Passes(sub, now) {
		s.logger.Debug("Contact submission from %s blocked by spam protection", identity)
		return rejected(OutcomeSpamRejected, MsgSpamRejected, http.StatusBadRequest)
	}

	if errs := validation.ValidateSubmission(sub); len(errs) > 0 {
		result := rejected(OutcomeValidationFailed, MsgValidationFailed, http.StatusBadRequest)
		result.Errors = errs
		return result
	}

	meta := SubmissionMeta{Time: now, IPAddress: identity, UserAgent: req.UserAgent}
	if !s.dispatcher.Send(ctx, sub, meta) {
		return rejected(OutcomeDispatchFailed, MsgDispatchFailed, http.StatusBadRequest)
	}

	if s.audit != nil {
		record := NewAuditRecord(now, identity,
			sub.String(contact.FieldName),
			sub.String(contact.FieldEmail),
			sub.String(contact.FieldSubject),
			req.UserAgent,
		)
		if err := s.audit.LogSubmission(ctx, record); err != nil {
			s.logger.Warn("Failed to write audit record: %v", err)
		}
	}

	return accepted(MsgAccepted)
}

// fault records cause to the diagnostic sink and hides it from the caller
func (s *ContactService) fault(cause error) Outcome {
	s.logger.Error("Contact form error: %v", cause)
	return rejected(OutcomeInternalFault, MsgInternalFault, http.StatusInternalServerError)
}
