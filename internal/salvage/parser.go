package salvage

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"

	"github.com/suykerbuyk/recap/internal/report"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Parser recovers a StructuredReport from a chat-completion response body.
type Parser struct {
	// Repair runs a JSON repair pass over a fragment that fails to parse
	// before reporting ErrMalformedJSON.
	Repair bool
}

// Parse is Parser{}.Parse.
func Parse(body []byte) (*report.StructuredReport, error) {
	return Parser{}.Parse(body)
}

// Parse decodes the envelope, takes the first choice's content, slices it
// from the first '{' to the last '}' and coerces the object into a report.
//
// The slice tolerates prose and code fences around a single object. It is
// wrong when the content holds several objects or stray braces outside the
// real one; those cases fail as ErrMalformedJSON rather than being guessed at.
func (p Parser) Parse(body []byte) (*report.StructuredReport, error) {
	content, err := extractContent(body)
	if err != nil {
		return nil, err
	}

	fragment, err := sliceObject(content)
	if err != nil {
		return nil, err
	}

	fields, err := p.decode(fragment)
	if err != nil {
		return nil, err
	}

	r := coerce(fields)
	return &r, nil
}

func extractContent(body []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", &Error{Kind: ErrEnvelope, Raw: string(body), Err: err}
	}

	if len(env.Choices) == 0 || strings.TrimSpace(env.Choices[0].Message.Content) == "" {
		var cause error
		if env.Error != nil && env.Error.Message != "" {
			cause = fmt.Errorf("API error: %s", env.Error.Message)
		}
		return "", &Error{Kind: ErrEmptyOutput, Raw: string(body), Err: cause}
	}

	return env.Choices[0].Message.Content, nil
}

func sliceObject(content string) (string, error) {
	first := strings.IndexByte(content, '{')
	last := strings.LastIndexByte(content, '}')
	if first == -1 || last == -1 || last < first {
		return "", &Error{Kind: ErrNoJSON, Raw: content}
	}
	return content[first : last+1], nil
}

func (p Parser) decode(fragment string) (map[string]interface{}, error) {
	var v interface{}
	err := json.UnmarshalFromString(fragment, &v)
	if err != nil && p.Repair {
		if repaired, rerr := jsonrepair.JSONRepair(fragment); rerr == nil {
			v = nil
			err = json.UnmarshalFromString(repaired, &v)
		}
	}
	if err != nil {
		return nil, &Error{Kind: ErrMalformedJSON, Raw: fragment, Err: err}
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, &Error{Kind: ErrMalformedJSON, Raw: fragment, Err: fmt.Errorf("top-level value is %T, not an object", v)}
	}
	return obj, nil
}
