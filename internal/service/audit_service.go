package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/osa911/contactform/internal/logging"
)

// AuditRecord is one accepted submission in the audit log
type AuditRecord struct {
	Timestamp   string `json:"timestamp"`
	IPAddress   string `json:"ip"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	ProjectType string `json:"project_type"`
	UserAgent   string `json:"user_agent"`
}

// NewAuditRecord stamps a record with at
func NewAuditRecord(at time.Time, ip, name, email, projectType, userAgent string) AuditRecord {
	return AuditRecord{
		Timestamp:   at.Format("2006-01-02 15:04:05"),
		IPAddress:   ip,
		Name:        name,
		Email:       email,
		ProjectType: projectType,
		UserAgent:   userAgent,
	}
}

// AuditLogger appends accepted submissions to a durable log
type AuditLogger interface {
	LogSubmission(ctx context.Context, record AuditRecord) error
}

// AuditService writes one JSON document per line to an append-only sink
type AuditService struct {
	mu     sync.Mutex
	sink   io.WriteCloser
	logger *logging.Logger
}

// NewAuditService creates an audit log on top of sink
func NewAuditService(sink io.WriteCloser, logger *logging.Logger) *AuditService {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &AuditService{sink: sink, logger: logger}
}

// NewFileAuditService opens a rotated audit log at path
func NewFileAuditService(path string, logger *logging.Logger) (*AuditService, error) {
	writer, err := logging.NewRotatingWriter(path, 50, 10, 365)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return NewAuditService(writer, logger), nil
}

// LogSubmission appends record as a single line
func (s *AuditService) LogSubmission(ctx context.Context, record AuditRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode audit record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.sink.Write(line); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	s.logger.Info("[AUDIT] CONTACT_SUBMITTED | IP: %s | Email: %s | Project: %s",
		record.IPAddress, record.Email, record.ProjectType)
	return nil
}

// Close closes the underlying sink
func (s *AuditService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Close()
}
