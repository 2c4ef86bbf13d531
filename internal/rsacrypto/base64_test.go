package rsacrypto

import (
	"errors"
	"testing"
)

func TestValidateBase64(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid no padding", input: "YWJj", want: "YWJj"},
		{name: "valid one pad", input: "YWI=", want: "YWI="},
		{name: "valid two pad", input: "YQ==", want: "YQ=="},
		{name: "whitespace stripped", input: " YW\nJj\t", want: "YWJj"},
		{name: "empty", input: "", wantErr: true},
		{name: "only spaces", input: "   ", wantErr: true},
		{name: "bad length", input: "abc", wantErr: true},
		{name: "three pads", input: "Y===", wantErr: true},
		{name: "mid padding", input: "YQ==YQ==", wantErr: true},
		{name: "url alphabet", input: "ab-_", wantErr: true},
		{name: "invalid char", input: "ab*c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateBase64(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrBase64Validation) {
					t.Errorf("expected ErrBase64Validation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"sentinel base64", ErrBase64Validation, KindDecode},
		{"sentinel key", ErrKeyMismatch, KindKeyMismatch},
		{"sentinel algorithm", ErrAlgorithmMismatch, KindAlgorithmMismatch},
		{"text decode", errors.New("illegal character in input"), KindDecode},
		{"text padding", errors.New("OAEP padding check failed"), KindAlgorithmMismatch},
		{"text key", errors.New("wrong key length"), KindKeyMismatch},
		{"unknown", errors.New("operation failed"), KindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Kind != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Kind)
			}
			if got.Hint == "" {
				t.Error("expected hint")
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error should wrap original")
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}
