package repositories

import (
	"errors"
	"fmt"
	"testing"
)

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name     string
		force    bool
		required []string
		want     ProviderMode
	}{
		{name: "all present", required: []string{"https://a2f", "key"}, want: ModeLive},
		{name: "missing key", required: []string{"https://a2f", ""}, want: ModeSimulated},
		{name: "forced", force: true, required: []string{"https://a2f", "key"}, want: ModeSimulated},
		{name: "nothing required", want: ModeSimulated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveMode(tt.force, tt.required...); got != tt.want {
				t.Errorf("ResolveMode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestProviderError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &ProviderError{Provider: "Audio2Face", StatusCode: 500})

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatal("Expected errors.As to find ProviderError")
	}

	if perr.Error() != "Audio2Face failed: 500" {
		t.Errorf("Unexpected message %q", perr.Error())
	}
}
