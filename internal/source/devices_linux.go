//go:build linux

package source

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// findKeyboardDevices locates /dev/input event nodes that look like
// keyboards.
func findKeyboardDevices() ([]string, error) {
	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	devices := parseKeyboardDevices(f)

	// Stable by-id names are symlinks to event nodes we may already
	// have, so resolve before deduplicating. Reading the same device
	// twice would double every keystroke.
	matches, _ := filepath.Glob("/dev/input/by-id/*-kbd")
	devices = append(devices, matches...)

	seen := make(map[string]bool)
	var unique []string
	for _, dev := range devices {
		resolved, err := filepath.EvalSymlinks(dev)
		if err != nil {
			resolved = dev
		}
		if !seen[resolved] {
			seen[resolved] = true
			unique = append(unique, resolved)
		}
	}

	return unique, nil
}

// parseKeyboardDevices scans /proc/bus/input/devices format text for
// devices with key capabilities and an event handler.
func parseKeyboardDevices(r io.Reader) []string {
	var devices []string

	scanner := bufio.NewScanner(r)
	var currentHandler string
	isKeyboard := false

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "H: Handlers=") {
			parts := strings.Fields(line)
			for _, part := range parts {
				if strings.HasPrefix(part, "event") {
					currentHandler = "/dev/input/" + part
				}
			}
		}

		if strings.HasPrefix(line, "B: KEY=") {
			// Anything advertising key bits beyond a bare zero bitmap
			// qualifies. Devices that never type read as silence
			// downstream.
			if len(line) > 10 {
				isKeyboard = true
			}
		}

		if line == "" {
			if isKeyboard && currentHandler != "" {
				devices = append(devices, currentHandler)
			}
			currentHandler = ""
			isKeyboard = false
		}
	}

	if isKeyboard && currentHandler != "" {
		devices = append(devices, currentHandler)
	}

	return devices
}
