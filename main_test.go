// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"sync"
	"testing"
)

// =============================================================================
// STREAM CANCELLATION
// =============================================================================

func TestApp_CancelInFlight(t *testing.T) {
	a := &app{}

	// No stream in flight: must be a no-op.
	a.cancelInFlight()

	ctx, cancel := context.WithCancel(context.Background())
	a.setCancel(cancel)
	a.cancelInFlight()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("in-flight context not cancelled")
	}

	a.setCancel(nil)
	a.cancelInFlight()
}

func TestApp_CancelInFlightConcurrent(t *testing.T) {
	// The REPL loop swaps the cancel func while the signal goroutine fires;
	// this must be race-free under the race detector.
	a := &app{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancel := context.WithCancel(context.Background())
			a.setCancel(cancel)
			a.setCancel(nil)
			cancel()
		}()
		go func() {
			defer wg.Done()
			a.cancelInFlight()
		}()
	}
	wg.Wait()
}

func TestParseArgs(t *testing.T) {
	args := parseArgs([]string{"--server", "http://10.0.0.9:8080", "--export-dir", "/tmp/out"})
	if args.ServerURL != "http://10.0.0.9:8080" {
		t.Errorf("ServerURL = %q", args.ServerURL)
	}
	if args.ExportDir != "/tmp/out" {
		t.Errorf("ExportDir = %q", args.ExportDir)
	}
	if args.ShowVersion || args.ShowHelp {
		t.Error("unexpected flags set")
	}

	if !parseArgs([]string{"-V"}).ShowVersion {
		t.Error("version flag not parsed")
	}
}
