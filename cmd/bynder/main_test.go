package main

import (
	"context"
	"errors"
	"os"
	"testing"
)

func stubExecute(t *testing.T, fn func(context.Context, []string) error, mapCode func(error) int) {
	t.Helper()
	origExec := executeCmd
	origMap := mapExitCode
	t.Cleanup(func() {
		executeCmd = origExec
		mapExitCode = origMap
	})
	executeCmd = fn
	mapExitCode = mapCode
}

func TestRun_Success(t *testing.T) {
	var gotArgs []string
	var gotCtx context.Context
	stubExecute(t, func(ctx context.Context, args []string) error {
		gotCtx = ctx
		gotArgs = append([]string(nil), args...)
		return nil
	}, func(_ error) int {
		t.Fatal("mapExitCode should not be called on success")
		return 99
	})

	code := run([]string{"media", "list", "--output", "json"})
	if code != 0 {
		t.Fatalf("run() code = %d, want 0", code)
	}

	want := []string{"media", "list", "--output", "json"}
	if len(gotArgs) != len(want) {
		t.Fatalf("args len = %d, want %d", len(gotArgs), len(want))
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, gotArgs[i], want[i])
		}
	}
	if gotCtx == nil {
		t.Fatal("expected a context")
	}
	if gotCtx.Err() == nil {
		t.Fatal("signal context should be released once run returns")
	}
}

func TestRun_ErrorUsesMappedExitCode(t *testing.T) {
	executeErr := errors.New("boom")
	called := false
	stubExecute(t, func(_ context.Context, _ []string) error {
		return executeErr
	}, func(err error) int {
		called = true
		if !errors.Is(err, executeErr) {
			t.Fatalf("mapExitCode got err %v, want %v", err, executeErr)
		}
		return 4
	})

	code := run([]string{"media", "get", "missing"})
	if code != 4 {
		t.Fatalf("run() code = %d, want 4", code)
	}
	if !called {
		t.Fatal("expected mapExitCode to be called")
	}
}

func TestMain_UsesTerminateWithRunCode(t *testing.T) {
	origTerminate := terminate
	origArgs := os.Args
	t.Cleanup(func() {
		terminate = origTerminate
		os.Args = origArgs
	})

	var gotArgs []string
	stubExecute(t, func(_ context.Context, args []string) error {
		gotArgs = append([]string(nil), args...)
		return errors.New("boom")
	}, func(_ error) int { return 9 })

	called := false
	gotCode := 0
	terminate = func(code int) {
		called = true
		gotCode = code
	}

	os.Args = []string{"bynder", "smartfilters", "list"}
	main()

	if !called {
		t.Fatal("expected terminate to be called")
	}
	if gotCode != 9 {
		t.Fatalf("terminate code = %d, want 9", gotCode)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "smartfilters" || gotArgs[1] != "list" {
		t.Fatalf("args = %v, want [smartfilters list]", gotArgs)
	}
}
