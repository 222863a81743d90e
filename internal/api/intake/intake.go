// Package intake turns a raw request body into a contact submission.
//
// Parsers are tried in order and the first one that yields a non-empty
// submission wins, so a JSON body is preferred over form fields.
package intake

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/osa911/contactform/internal/api/dto/v1/contact"
)

const maxMultipartMemory = 1 << 20

// Parser extracts a submission from a request body.
// An empty result means the parser does not understand the body.
type Parser interface {
	Name() string
	Parse(contentType string, body []byte) (contact.Submission, error)
}

// DefaultParsers returns the JSON parser followed by the form parser
func DefaultParsers() []Parser {
	return []Parser{JSONParser{}, FormParser{}}
}

// Resolve runs parsers in order and returns the first non-empty submission.
// Parser errors are skipped; ok is false when no parser produced data.
func Resolve(contentType string, body []byte, parsers ...Parser) (sub contact.Submission, source string, ok bool) {
	for _, p := range parsers {
		s, err := p.Parse(contentType, body)
		if err != nil || len(s) == 0 {
			continue
		}
		return s, p.Name(), true
	}
	return nil, "", false
}

// JSONParser decodes a JSON object body regardless of the declared
// content type. Arrays and scalars are not submissions.
type JSONParser struct{}

func (JSONParser) Name() string { return "json" }

func (JSONParser) Parse(_ string, body []byte) (contact.Submission, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var sub contact.Submission
	if err := dec.Decode(&sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// FormParser reads url-encoded and multipart form bodies.
// Repeated keys keep their first value.
type FormParser struct{}

func (FormParser) Name() string { return "form" }

func (FormParser) Parse(contentType string, body []byte) (contact.Submission, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, nil
	}

	var values url.Values
	switch strings.ToLower(mediaType) {
	case "application/x-www-form-urlencoded":
		values, err = url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
	case "multipart/form-data":
		boundary := params["boundary"]
		if boundary == "" {
			return nil, errors.New("multipart body without boundary")
		}
		form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxMultipartMemory)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if form == nil {
			return nil, nil
		}
		defer form.RemoveAll()
		values = form.Value
	default:
		return nil, nil
	}

	sub := make(contact.Submission, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			sub[key] = vals[0]
		}
	}
	return sub, nil
}
