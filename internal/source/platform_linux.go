//go:build linux

package source

import "fmt"

func platformNames() []string {
	return []string{"evdev", "x11", "ibus"}
}

func openPlatform(name string, opts Options) (Source, error) {
	switch name {
	case "evdev":
		return NewEvdev(EvdevOptions{Devices: opts.Devices, Hotplug: opts.Hotplug}), nil
	case "x11":
		return NewX11(opts.PollInterval), nil
	case "ibus":
		return NewIBus(), nil
	default:
		return nil, fmt.Errorf("unknown source backend %q", name)
	}
}
