//go:build !linux && !windows

package source

import "fmt"

func platformNames() []string {
	return nil
}

func openPlatform(name string, opts Options) (Source, error) {
	return nil, fmt.Errorf("unknown source backend %q: %w", name, ErrNotAvailable)
}
