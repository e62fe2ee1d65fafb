package invoker

import (
	"errors"
	"testing"
)

func TestParseValidationResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Verdict
		wantErr bool
	}{
		{"valid", `{"valid": true}`, Verdict{Valid: true}, false},
		{"valid with message", `{"valid": true, "error_message": "ignored"}`, Verdict{Valid: true}, false},
		{"invalid string", `{"valid": false, "error_message": "x"}`, Verdict{Message: "x"}, false},
		{"singleton", `{"valid": false, "error_message": ["only one"]}`, Verdict{Message: "only one"}, false},
		{"joined", `{"valid": false, "error_message": ["a","b","c"]}`, Verdict{Message: "a, b, c"}, false},
		{"empty list", `{"valid": false, "error_message": []}`, Verdict{Message: NoErrorMessage}, false},
		{"null message", `{"valid": false, "error_message": null}`, Verdict{Message: NoErrorMessage}, false},
		{"numeric message", `{"valid": false, "error_message": 42}`, Verdict{Message: "42"}, false},
		{"mixed list", `{"valid": false, "error_message": ["a", 1]}`, Verdict{Message: "a, 1"}, false},
		{"valid not bool", `{"valid": "yes"}`, Verdict{Message: InvalidResponseMessage}, true},
		{"valid numeric", `{"valid": 1}`, Verdict{Message: InvalidResponseMessage}, true},
		{"garbage", `oops`, Verdict{Message: InvalidResponseMessage}, true},
		{"truncated", `{"valid": tr`, Verdict{Message: InvalidResponseMessage}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValidationResponse([]byte(tt.body))
			if tt.wantErr != (err != nil) {
				t.Fatalf("unexpected error state: %v", err)
			}
			if err != nil && !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
