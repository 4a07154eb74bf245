package serial

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 115200 {
		t.Errorf("Expected BaudRate 115200, got %d", config.BaudRate)
	}
}

func TestWithBaudRate(t *testing.T) {
	config := DefaultConfig()
	WithBaudRate(9600)(&config)
	if config.BaudRate != 9600 {
		t.Errorf("Expected BaudRate 9600, got %d", config.BaudRate)
	}
}

func TestBaudToSpeed(t *testing.T) {
	tests := []struct {
		rate int
		want uint32
	}{
		{300, unix.B300},
		{9600, unix.B9600},
		{57600, unix.B57600},
		{115200, unix.B115200},
		{230400, unix.B230400},
		// Unrecognized rates fall back to 115200 instead of failing.
		{123456, unix.B115200},
		{31250, unix.B115200},
		{0, unix.B115200},
		{-1, unix.B115200},
	}

	for _, tt := range tests {
		if got := baudToSpeed(tt.rate); got != tt.want {
			t.Errorf("baudToSpeed(%d) = %#x, want %#x", tt.rate, got, tt.want)
		}
	}
}
