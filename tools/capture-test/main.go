// Command capture-test is a manual testing tool for the capture backends.
//
// It opens a key event source, runs every event through the translation
// stack, and prints per-second statistics until interrupted with Ctrl+C.
// Fragments are counted, never printed or stored.
//
// Usage:
//
//	go build -o capture-test ./tools/capture-test
//	./capture-test -source auto
//
// Requirements depend on the backend: evdev needs read access to
// /dev/input (usually the input group or root), x11 needs a DISPLAY,
// ibus needs a running ibus daemon on the session bus.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"keyscribe/internal/keycode"
	"keyscribe/internal/source"
	"keyscribe/internal/translate"
)

func main() {
	sourceName := flag.String("source", "auto", "capture backend to open")
	flag.Parse()

	fmt.Println("Capture Source Test")
	fmt.Println("===================")
	fmt.Println()
	fmt.Printf("Known backends: %s\n", strings.Join(source.Names(), ", "))
	fmt.Println()

	fmt.Printf("Opening %q source... ", *sourceName)
	src, err := source.Open(*sourceName, source.Options{
		Hotplug:      true,
		PollInterval: 10 * time.Millisecond,
	})
	if err != nil {
		fmt.Printf("FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")

	available, msg := src.Available()
	fmt.Printf("Source availability: %s\n", msg)
	if !available {
		fmt.Println("ERROR: Source not available")
		os.Exit(1)
	}

	// Set up signal handling for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Print("Starting capture... ")
	if err := src.Start(ctx); err != nil {
		fmt.Printf("FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
	fmt.Println()
	fmt.Println("Capturing key events. Press Ctrl+C to stop.")
	fmt.Println()
	fmt.Println("Time        | Events | Frags | Rate (events/sec)")
	fmt.Println("------------|--------|-------|------------------")

	tracker := translate.NewTracker()
	translator := translate.NewTranslator()

	// Reporting ticker
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	startTime := time.Now()
	var (
		events    uint64
		fragments uint64
		lastCount uint64
		lastTime  = startTime
	)

	// Main loop
	for {
		select {
		case <-sigChan:
			fmt.Println()
			fmt.Println("Received interrupt signal, stopping...")
			goto shutdown

		case ev, ok := <-src.Events():
			if !ok {
				fmt.Println()
				fmt.Println("Event channel closed by source.")
				goto shutdown
			}
			events++
			state := tracker.Apply(ev)
			if keycode.IsModifier(ev.Code) || ev.Direction != translate.Down {
				continue
			}
			if _, ok := translator.Translate(ev.Code, state); ok {
				fragments++
			}

		case now := <-ticker.C:
			delta := events - lastCount
			elapsed := now.Sub(lastTime).Seconds()

			var rate float64
			if elapsed > 0 {
				rate = float64(delta) / elapsed
			}

			runDuration := now.Sub(startTime).Truncate(time.Second)
			fmt.Printf("%11s | %6d | %5d | %.1f\n",
				runDuration.String(),
				events,
				fragments,
				rate)

			lastCount = events
			lastTime = now
		}
	}

shutdown:
	fmt.Print("Stopping source... ")
	if err := src.Stop(); err != nil {
		fmt.Printf("FAILED: %v\n", err)
	} else {
		fmt.Println("OK")
	}

	// Print final statistics
	totalDuration := time.Since(startTime)

	fmt.Println()
	fmt.Println("Final Statistics")
	fmt.Println("----------------")
	fmt.Printf("Key events:      %d\n", events)
	fmt.Printf("Fragments:       %d\n", fragments)
	fmt.Printf("Modifier state:  %s\n", tracker.State())
	fmt.Printf("Total duration:  %s\n", totalDuration.Truncate(time.Millisecond))
	if totalDuration.Seconds() > 0 {
		avgRate := float64(events) / totalDuration.Seconds()
		fmt.Printf("Average rate:    %.2f events/sec\n", avgRate)
	}

	fmt.Println()
	fmt.Println("Test completed successfully.")
}
