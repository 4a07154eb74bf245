package serial

import (
	"sort"
	"strings"
	"testing"
)

func TestListPorts(t *testing.T) {
	ports, err := ListPorts()
	if err != nil {
		t.Fatalf("ListPorts failed: %v", err)
	}

	if !sort.StringsAreSorted(ports) {
		t.Error("expected sorted port list")
	}

	for _, port := range ports {
		if !strings.HasPrefix(port, "/dev/") {
			t.Errorf("expected /dev/ prefix, got %s", port)
		}
	}
}

func TestPortDescription(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"ttyUSB0", "USB Serial Port"},
		{"ttyACM1", "USB CDC/ACM Device"},
		{"ttyAMA0", "ARM Serial Port"},
		{"ttyS0", "Standard Serial Port"},
		{"ttymxc2", "i.MX Serial Port"},
		{"whatever", "Serial Port"},
	}

	for _, tt := range tests {
		if got := portDescription(tt.name); got != tt.want {
			t.Errorf("portDescription(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGetPortInfoMissingDevice(t *testing.T) {
	_, err := GetPortInfo("/dev/nonexistent-device-42")
	if err != ErrDeviceNotFound {
		t.Errorf("expected ErrDeviceNotFound, got %v", err)
	}
}
