package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseEvents,
				Kind:    KindCapacity,
				Event:   "object-unmapped",
				Subject: "3.1",
				Detail:  "subscriber list full",
			},
			contains: []string{"[events]", "capacity", "object-unmapped", "3.1", "subscriber list full"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRegistry,
				Kind:  KindUsage,
			},
			contains: []string{"[registry]", "usage"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseScript,
				Kind:   KindLoad,
				Detail: "rc.lua",
				Cause:  errors.New("syntax error"),
			},
			contains: []string{"[script]", "load", "rc.lua", "caused by", "syntax error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEvents,
		Kind:  KindSubscriber,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause in chain")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:   PhaseBridge,
		Kind:    KindStaleAccess,
		Subject: "1.0",
	}

	if !err.Is(&Error{Phase: PhaseBridge, Kind: KindStaleAccess}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseScript, Kind: KindStaleAccess}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseBridge, Kind: KindUsage}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrStaleAccess) {
		t.Error("errors.Is should match phase-less sentinel")
	}
	if errors.Is(err, ErrCapacity) {
		t.Error("errors.Is should not match other sentinel")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseEvents, KindSubscriber).
		Event("focus-gained").
		Subject("2.0").
		Value(uint64(7)).
		Cause(cause).
		Detail("subscriber %d raised %s", 7, "error").
		Build()

	if err.Phase != PhaseEvents {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseEvents)
	}
	if err.Kind != KindSubscriber {
		t.Errorf("Kind = %v, want %v", err.Kind, KindSubscriber)
	}
	if err.Event != "focus-gained" {
		t.Errorf("Event = %q, want focus-gained", err.Event)
	}
	if err.Subject != "2.0" {
		t.Errorf("Subject = %q, want 2.0", err.Subject)
	}
	if err.Value != uint64(7) {
		t.Errorf("Value = %v, want 7", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "subscriber 7 raised error" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Capacity", func(t *testing.T) {
		err := Capacity("object-mapped", 32)
		if err.Kind != KindCapacity || err.Phase != PhaseEvents {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
		if !strings.Contains(err.Detail, "32") {
			t.Errorf("Detail = %q, should contain capacity", err.Detail)
		}
	})

	t.Run("Subscriber", func(t *testing.T) {
		cause := errors.New("boom")
		err := Subscriber("title-changed", 4, cause)
		if err.Kind != KindSubscriber {
			t.Errorf("Kind = %v", err.Kind)
		}
		if !errors.Is(err, cause) {
			t.Error("cause not reachable")
		}
	})

	t.Run("Leak", func(t *testing.T) {
		err := Leak("5.2", 3, false)
		if err.Kind != KindLeak || err.Value != 3 {
			t.Errorf("got kind=%v value=%v", err.Kind, err.Value)
		}
		if !strings.Contains(err.Detail, "valid=false") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("StaleAccess", func(t *testing.T) {
		err := StaleAccess(PhaseBridge, "1.0", "title")
		if !errors.Is(err, ErrStaleAccess) {
			t.Error("should match ErrStaleAccess")
		}
	})

	t.Run("UnknownEvent with suggestion", func(t *testing.T) {
		err := UnknownEvent("focus-gaind", "focus-gained")
		if !strings.Contains(err.Error(), `did you mean "focus-gained"`) {
			t.Errorf("message = %q", err.Error())
		}
	})

	t.Run("UnknownEvent without suggestion", func(t *testing.T) {
		err := UnknownEvent("zzz", "")
		if err.Detail != "" {
			t.Errorf("Detail = %q, want empty", err.Detail)
		}
	})

	t.Run("Closed", func(t *testing.T) {
		err := Closed(PhaseScript, "engine")
		if !errors.Is(err, ErrClosed) {
			t.Error("should match ErrClosed")
		}
	})
}
