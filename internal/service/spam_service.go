package service

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/osa911/contactform/internal/api/dto/v1/contact"
)

// DefaultSpamKeywords is used when no keyword list is configured
var DefaultSpamKeywords = []string{"viagra", "cialis", "casino", "poker", "loan", "credit"}

// SpamConfig configures the spam heuristics
type SpamConfig struct {
	HoneypotField string
	TimeThreshold time.Duration
	Keywords      []string
}

// SpamService rejects submissions that look automated
type SpamService struct {
	honeypotField string
	timeThreshold time.Duration
	keywords      []string
}

// NewSpamService creates a spam filter; keywords are matched case-insensitively
func NewSpamService(cfg SpamConfig) *SpamService {
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, k := range cfg.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &SpamService{
		honeypotField: cfg.HoneypotField,
		timeThreshold: cfg.TimeThreshold,
		keywords:      keywords,
	}
}

// Passes reports whether sub clears every check. Which check failed is
// deliberately not reported.
func (s *SpamService) Passes(sub contact.Submission, now time.Time) bool {
	return s.honeypotEmpty(sub) && s.slowEnough(sub, now) && s.cleanContent(sub)
}

func (s *SpamService) honeypotEmpty(sub contact.Submission) bool {
	return s.honeypotField == "" || !sub.Has(s.honeypotField)
}

// slowEnough rejects forms submitted faster than the threshold after the
// client-reported start time. Submissions without a start time pass.
func (s *SpamService) slowEnough(sub contact.Submission, now time.Time) bool {
	if _, ok := sub[contact.FieldFormStartTime]; !ok {
		return true
	}
	// Compared in whole seconds; subtracting the client value could overflow.
	started := sub.Int(contact.FieldFormStartTime)
	return started <= now.Unix()-int64(s.timeThreshold/time.Second)
}

func (s *SpamService) cleanContent(sub contact.Submission) bool {
	content := strings.ToLower(sub.String(contact.FieldMessage) + " " + sub.String(contact.FieldName))
	for _, keyword := range s.keywords {
		if strings.Contains(content, keyword) {
			return false
		}
	}
	return true
}

type keywordFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadSpamKeywords reads a YAML document of the form "keywords: [a, b]"
func LoadSpamKeywords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spam keywords: %w", err)
	}

	var f keywordFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse spam keywords: %w", err)
	}
	if len(f.Keywords) == 0 {
		return nil, fmt.Errorf("spam keywords file %s lists no keywords", path)
	}
	return f.Keywords, nil
}
