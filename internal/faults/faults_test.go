package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"fatal", Fatalf("no nav files"), KindFatal},
		{"recoverable", Recoverablef("images not ready"), KindRecoverable},
		{"untagged defaults to fatal", errors.New("boom"), KindFatal},
		{"wrapped keeps kind", fmt.Errorf("outer: %w", Recoverablef("inner")), KindRecoverable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := Wrap(KindRecoverable, "cannot list image folder", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped error should match its cause with errors.Is")
	}
	if KindOf(err) != KindRecoverable {
		t.Errorf("KindOf() = %v, want recoverable", KindOf(err))
	}
	want := "cannot list image folder: permission denied"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIsRecoverable(t *testing.T) {
	if IsRecoverable(nil) {
		t.Error("nil error must not be recoverable")
	}
	if IsRecoverable(Fatalf("x")) {
		t.Error("fatal error must not be recoverable")
	}
	if !IsRecoverable(Recoverablef("x")) {
		t.Error("recoverable error not detected")
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindFatal, "fatal"},
		{KindRecoverable, "recoverable"},
		{KindInformational, "informational"},
		{Kind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
