package console

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osdp-tools/osdp-console/pkg/config"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestApplyProfileFillsAbsentFields(t *testing.T) {
	opts := Options{}
	opts.ApplyProfile(config.Profile{
		"port":   "/dev/ttyUSB0",
		"baud":   float64(115200),
		"serial": "WL-0042",
		"file":   "firmware.bin",
	})

	assert.Equal(t, "/dev/ttyUSB0", opts.PortName())
	assert.Equal(t, 115200, opts.BaudRate())
	assert.Equal(t, "WL-0042", opts.SerialNumber())
	assert.Equal(t, "firmware.bin", opts.FilePath())
}

func TestApplyProfileNeverOverridesExplicitOptions(t *testing.T) {
	opts := Options{
		Port: strPtr("/dev/ttyACM7"),
		Baud: intPtr(9600),
	}
	opts.ApplyProfile(config.Profile{
		"port": "/dev/ttyUSB0",
		"baud": float64(115200),
	})

	assert.Equal(t, "/dev/ttyACM7", opts.PortName())
	assert.Equal(t, 9600, opts.BaudRate())
}

func TestApplyProfileIgnoresUnknownKeys(t *testing.T) {
	opts := Options{}
	opts.ApplyProfile(config.Profile{
		"location": "lobby",
		"port":     "/dev/ttyUSB0",
	})

	assert.Equal(t, "/dev/ttyUSB0", opts.PortName())
}

func TestApplyProfileSkipsIncompatibleValues(t *testing.T) {
	opts := Options{}
	opts.ApplyProfile(config.Profile{
		"baud": "fast",
		"port": float64(3),
	})

	assert.Nil(t, opts.Baud)
	assert.Nil(t, opts.Port)
	assert.Equal(t, DefaultBaudRate, opts.BaudRate())
}

func TestApplyProfileNeverFillsBooleanFlags(t *testing.T) {
	opts := Options{}
	opts.ApplyProfile(config.Profile{
		"poll":   true,
		"secure": true,
	})

	assert.False(t, opts.Poll)
	assert.False(t, opts.Secure)
}

func TestBaudRateDefault(t *testing.T) {
	opts := Options{}
	assert.Equal(t, 9600, opts.BaudRate())
}
