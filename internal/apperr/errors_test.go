package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassification(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name      string
		err       error
		validate  bool
		transport bool
		parse     bool
	}{
		{name: "validation", err: Validation(MsgAnswerRequired), validate: true},
		{name: "transport", err: Transport("post /api/check failed", cause), transport: true},
		{name: "parse", err: Parse("decode response failed", cause), parse: true},
		{name: "wrapped transport", err: fmt.Errorf("submit: %w", Transport("boom", nil)), transport: true},
		{name: "plain", err: cause},
		{name: "nil", err: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidation(tt.err); got != tt.validate {
				t.Errorf("IsValidation() = %v, want %v", got, tt.validate)
			}
			if got := IsTransport(tt.err); got != tt.transport {
				t.Errorf("IsTransport() = %v, want %v", got, tt.transport)
			}
			if got := IsParse(tt.err); got != tt.parse {
				t.Errorf("IsParse() = %v, want %v", got, tt.parse)
			}
		})
	}
}

func TestTransportKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Transport("request failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
}

func TestUserMessages(t *testing.T) {
	if got := SubmitMessage(Validation(MsgAnswerRequired)); got != MsgAnswerRequired {
		t.Errorf("SubmitMessage(validation) = %q", got)
	}
	if got := SubmitMessage(Transport("x", nil)); got != MsgSubmitFailed {
		t.Errorf("SubmitMessage(transport) = %q", got)
	}
	if got := SubmitMessage(Parse("x", nil)); got != MsgSubmitFailed {
		t.Errorf("SubmitMessage(parse) = %q", got)
	}
	if got := RecommendationMessage(Parse("x", nil)); got != MsgRecommendationsFailed {
		t.Errorf("RecommendationMessage(parse) = %q", got)
	}
	if SubmitMessage(nil) != "" || RecommendationMessage(nil) != "" {
		t.Errorf("nil error must map to empty message")
	}
}
