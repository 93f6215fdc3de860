//go:build windows

package source

import "fmt"

func platformNames() []string {
	return []string{"hook"}
}

func openPlatform(name string, opts Options) (Source, error) {
	switch name {
	case "hook":
		return NewHook(), nil
	default:
		return nil, fmt.Errorf("unknown source backend %q", name)
	}
}
