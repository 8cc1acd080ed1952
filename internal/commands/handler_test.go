package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type testMessage struct{}

func (testMessage) Type() string { return "wmarkdown.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "wmarkdown.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
	assertTextCode(t, err, CodeCanceled)
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
	assertTextCode(t, err, CodeRenderFailed)
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
	assertTextCode(t, err, CodeTimedOut)
}

func assertTextCode(t *testing.T, err error, code string) {
	t.Helper()
	var tagged *goerrors.Error
	if !errors.As(err, &tagged) {
		t.Fatalf("expected *goerrors.Error, got %T", err)
	}
	if tagged.TextCode != code {
		t.Fatalf("expected text code %s, got %s", code, tagged.TextCode)
	}
}

func TestHandlerTelemetryReceivesOutcome(t *testing.T) {
	var infos []TelemetryInfo
	telemetry := func(ctx context.Context, msg testMessage, info TelemetryInfo) {
		infos = append(infos, info)
	}

	fail := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		if fail {
			return errors.New("render failed")
		}
		return nil
	},
		WithOperation[testMessage]("render.file"),
		WithMessageFields[testMessage](func(testMessage) map[string]any {
			return map[string]any{"path": "docs/a.md"}
		}),
		WithTelemetry[testMessage](telemetry),
	)

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fail = true
	if err := h.Execute(context.Background(), testMessage{}); err == nil {
		t.Fatal("expected execution error")
	}

	if len(infos) != 2 {
		t.Fatalf("expected two telemetry calls, got %d", len(infos))
	}
	if infos[0].Status != TelemetryStatusSuccess || infos[1].Status != TelemetryStatusFailed {
		t.Fatalf("unexpected statuses: %s, %s", infos[0].Status, infos[1].Status)
	}
	if infos[0].Command != "wmarkdown.test.message" || infos[0].Operation != "render.file" {
		t.Fatalf("unexpected telemetry identity: %+v", infos[0])
	}
	if infos[0].Fields["path"] != "docs/a.md" {
		t.Fatalf("expected message fields, got %+v", infos[0].Fields)
	}
	if !goerrors.IsCategory(infos[1].Error, goerrors.CategoryCommand) {
		t.Fatalf("expected categorised error in telemetry, got %v", infos[1].Error)
	}
}

func TestHandlerTimeoutReportsContextStatus(t *testing.T) {
	var status TelemetryStatus
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		<-ctx.Done()
		return ctx.Err()
	},
		WithTimeout[testMessage](5*time.Millisecond),
		WithTelemetry[testMessage](func(_ context.Context, _ testMessage, info TelemetryInfo) {
			status = info.Status
		}),
	)

	if err := h.Execute(context.Background(), testMessage{}); err == nil {
		t.Fatal("expected timeout error")
	}
	if status != TelemetryStatusContextError {
		t.Fatalf("expected context error status, got %s", status)
	}
}

func TestCommandLoggerFallsBackToNoOp(t *testing.T) {
	logger := CommandLogger(nil, "")
	if logger == nil {
		t.Fatal("expected logger")
	}
	logger.Info("command.test")
	DefaultTelemetry[testMessage](nil)(context.Background(), testMessage{}, TelemetryInfo{Status: TelemetryStatusSuccess})
}
