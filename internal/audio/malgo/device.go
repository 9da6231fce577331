package malgo

import (
	"encoding/hex"
	"runtime"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/tphakala/aliendaw/internal/audio"
	"github.com/tphakala/aliendaw/internal/errors"
)

// getBackendForPlatform returns the native miniaudio backend for this OS
func getBackendForPlatform() (malgo.Backend, error) {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa, nil
	case "windows":
		return malgo.BackendWasapi, nil
	case "darwin":
		return malgo.BackendCoreaudio, nil
	default:
		return malgo.BackendNull, errors.New(errors.NewStd("unsupported operating system")).
			Component(component).
			Category(errors.CategoryAudioDevice).
			Context("os", runtime.GOOS).
			Build()
	}
}

func backendName(b malgo.Backend) string {
	switch b {
	case malgo.BackendAlsa:
		return "alsa"
	case malgo.BackendWasapi:
		return "wasapi"
	case malgo.BackendCoreaudio:
		return "coreaudio"
	case malgo.BackendPulseaudio:
		return "pulseaudio"
	default:
		return "null"
	}
}

// EnumerateDevices lists playback devices on the platform backend.
func EnumerateDevices() ([]audio.DeviceInfo, error) {
	host, err := NewHost(Config{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = host.Close() }()
	return host.Devices()
}

// SelectDevice finds a device by name or ID. An empty name or "default"
// selects the system default, falling back to the first device.
func SelectDevice(devices []malgo.DeviceInfo, deviceName string) (*malgo.DeviceInfo, error) {
	if deviceName == "" || deviceName == "default" || deviceName == "sysdefault" {
		for i := range devices {
			if devices[i].IsDefault == 1 {
				return &devices[i], nil
			}
		}
		if len(devices) > 0 {
			return &devices[0], nil
		}
		return nil, audio.ErrNoDevice
	}

	for i := range devices {
		if devices[i].Name() == deviceName {
			return &devices[i], nil
		}
	}
	for i := range devices {
		decodedID, err := hexToASCII(devices[i].ID.String())
		if err == nil && decodedID == deviceName {
			return &devices[i], nil
		}
	}
	for i := range devices {
		if strings.Contains(devices[i].Name(), deviceName) {
			return &devices[i], nil
		}
	}

	return nil, errors.New(errors.NewStd("no matching audio device found")).
		Component(component).
		Category(errors.CategoryAudioDevice).
		Context("device_name", deviceName).
		Context("available_devices", len(devices)).
		Build()
}

// hexToASCII decodes the hex-encoded device IDs miniaudio reports
func hexToASCII(hexStr string) (string, error) {
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\x00"), nil
}
