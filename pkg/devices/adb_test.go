package devices

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const devicesOutput = `List of devices attached
emulator-5554          device product:sdk_gphone64_arm64 model:sdk_gphone64_arm64 device:emu64a transport_id:1
R58M12ABCDE            offline transport_id:2
0123456789ABCDEF       unauthorized usb:1-1 transport_id:3

`

func TestParseDevices(t *testing.T) {
	got := ParseDevices(devicesOutput)
	if len(got) != 2 {
		t.Fatalf("got %d devices, want 2: %+v", len(got), got)
	}
	want := Device{ID: "emulator-5554", Status: "device", Model: "sdk_gphone64_arm64", Product: "sdk_gphone64_arm64"}
	if got[0] != want {
		t.Fatalf("device[0] = %+v, want %+v", got[0], want)
	}
	if got[1].Model != "Unknown" || got[1].Product != "Unknown" || got[1].Status != "unauthorized" {
		t.Fatalf("device[1] = %+v", got[1])
	}
}

func TestParseDevicesEmpty(t *testing.T) {
	for _, in := range []string{"", "List of devices attached\n", "* daemon started successfully\nList of devices attached\n\n"} {
		if got := ParseDevices(in); len(got) != 0 {
			t.Fatalf("ParseDevices(%q) = %+v", in, got)
		}
	}
}

func TestDeviceLabel(t *testing.T) {
	if got := (Device{ID: "a", Model: "Pixel_7"}).Label(); got != "a (Pixel 7)" {
		t.Fatalf("Label() = %q", got)
	}
	if got := (Device{ID: "a", Model: "Unknown"}).Label(); got != "a" {
		t.Fatalf("Label() = %q", got)
	}
}

func TestParseScreenSize(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		w, h   int
		hasErr bool
	}{
		{"physical", "Physical size: 1080x2400\n", 1080, 2400, false},
		{"override wins", "Physical size: 1080x2400\nOverride size: 720x1600\n", 720, 1600, false},
		{"override first", "Override size: 720x1600\nPhysical size: 1080x2400\n", 720, 1600, false},
		{"garbage", "error: device offline", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := ParseScreenSize(tt.in)
			if (err != nil) != tt.hasErr {
				t.Fatalf("err = %v", err)
			}
			if w != tt.w || h != tt.h {
				t.Fatalf("size = %dx%d, want %dx%d", w, h, tt.w, tt.h)
			}
		})
	}
}

func TestResolveADB(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "platform-tools", "adb")
	if err := os.MkdirAll(filepath.Dir(bin), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ANDROID_HOME", dir)
	got, err := ResolveADB("")
	if err != nil || got != bin {
		t.Fatalf("ResolveADB() = %q, %v; want %q", got, err, bin)
	}

	got, err = ResolveADB(bin)
	if err != nil || got != bin {
		t.Fatalf("configured path: %q, %v", got, err)
	}

	if _, err := ResolveADB(filepath.Join(dir, "missing")); !errors.Is(err, ErrADBNotFound) {
		t.Fatalf("missing configured path err = %v", err)
	}

	t.Setenv("ANDROID_HOME", "")
	t.Setenv("PATH", t.TempDir())
	if _, err := ResolveADB(""); !errors.Is(err, ErrADBNotFound) {
		t.Fatalf("empty PATH err = %v", err)
	}
}

func TestADBListUsesDevicesL(t *testing.T) {
	var gotArgs []string
	a := &ADB{Path: "adb", run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		if _, ok := ctx.Deadline(); !ok {
			t.Errorf("adb invoked without a deadline")
		}
		return []byte(devicesOutput), nil
	}}
	devices, err := a.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(gotArgs, " ") != "devices -l" {
		t.Fatalf("args = %v", gotArgs)
	}
	if len(devices) != 2 {
		t.Fatalf("devices = %+v", devices)
	}
}

func TestADBTimeout(t *testing.T) {
	a := &ADB{Path: "adb", Timeout: 10 * time.Millisecond, run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	if _, err := a.List(context.Background()); !errors.Is(err, ErrADBTimeout) {
		t.Fatalf("err = %v, want ErrADBTimeout", err)
	}
}

func TestADBScreenSize(t *testing.T) {
	var gotArgs []string
	a := &ADB{Path: "adb", run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return []byte("Physical size: 1440x3120\n"), nil
	}}
	w, h, err := a.ScreenSize(context.Background(), "emulator-5554")
	if err != nil || w != 1440 || h != 3120 {
		t.Fatalf("ScreenSize() = %d, %d, %v", w, h, err)
	}
	if strings.Join(gotArgs, " ") != "-s emulator-5554 shell wm size" {
		t.Fatalf("args = %v", gotArgs)
	}
}

func TestADBCommandFailure(t *testing.T) {
	a := &ADB{Path: "adb", run: func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: device not found")
	}}
	_, _, err := a.ScreenSize(context.Background(), "ghost")
	if err == nil || !strings.Contains(err.Error(), "device not found") {
		t.Fatalf("err = %v", err)
	}
}
