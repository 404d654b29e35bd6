package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/emmett/voxkeep/internal/audio"
)

// ErrNoDevices is returned when no capture device is present
var ErrNoDevices = errors.New("no audio capture devices found")

// DeviceManager handles audio device selection and listing
type DeviceManager struct {
	list func() ([]audio.DeviceInfo, error)
	out  io.Writer
}

// NewDeviceManager creates a DeviceManager backed by the system devices
func NewDeviceManager() *DeviceManager {
	return &DeviceManager{list: audio.ListDevices, out: os.Stdout}
}

// ListDevices prints all available audio input devices
func (dm *DeviceManager) ListDevices() error {
	devices, err := dm.list()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if len(devices) == 0 {
		fmt.Fprintln(dm.out, "No audio capture devices found.")
		return ErrNoDevices
	}

	fmt.Fprintf(dm.out, "Found %d capture device(s):\n\n", len(devices))
	for i, device := range devices {
		marker := ""
		if device.IsDefault {
			marker = " [DEFAULT]"
		}
		fmt.Fprintf(dm.out, "%d. %s%s\n", i+1, device.Name, marker)
		fmt.Fprintf(dm.out, "   ID: %s\n\n", device.ID)
	}

	fmt.Fprintln(dm.out, "To use a specific device, run:")
	fmt.Fprintf(dm.out, "  voxkeep -device %q\n", devices[0].Name)
	return nil
}

// SelectDevice resolves deviceName (ID, name or name fragment) or falls
// back to the default device
func (dm *DeviceManager) SelectDevice(deviceName string) (*audio.DeviceInfo, error) {
	devices, err := dm.list()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}

	if deviceName == "" {
		return audio.DefaultDevice(devices)
	}

	idx, err := audio.FindDevice(devices, deviceName)
	if err != nil {
		return nil, fmt.Errorf("invalid audio device specified: %w", err)
	}
	return &devices[idx], nil
}
