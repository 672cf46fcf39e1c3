package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nerrad567/gray-logic-input/internal/bridges/input"
	"github.com/nerrad567/gray-logic-input/internal/hardware"
	"github.com/nerrad567/gray-logic-input/internal/hardware/hardwaretest"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "")
	if got := resolveConfigPath(""); got != defaultConfigPath {
		t.Errorf("default = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("GRAYLOGIC_CONFIG", "/etc/graylogic/input.yaml")
	if got := resolveConfigPath(""); got != "/etc/graylogic/input.yaml" {
		t.Errorf("env = %q", got)
	}
	if got := resolveConfigPath("local.yaml"); got != "local.yaml" {
		t.Errorf("flag = %q, want local.yaml", got)
	}
}

func TestRun_InvalidConfigPath(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, runOptions{ConfigPath: "/nonexistent/path/config.yaml"})
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("error = %v, want loading config", err)
	}
}

func TestRun_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
site:
  id: ""
mqtt:
  enabled: false
api:
  enabled: false
`)
	err := run(context.Background(), runOptions{ConfigPath: path})
	if err == nil {
		t.Fatal("run() should fail validation")
	}
	if !strings.Contains(err.Error(), "site.id") {
		t.Errorf("error = %v, want site.id", err)
	}
}

// TestRun_DiscoversAndPersists runs the bridge against a fake keyboard and
// checks that the graph lands in SQLite before a clean shutdown.
func TestRun_DiscoversAndPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "input.db")
	path := writeConfig(t, `
site:
  id: test-site
input:
  autodetect: true
  poll_interval: 50ms
database:
  enabled: true
  path: "`+dbPath+`"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: false
influxdb:
  enabled: false
api:
  enabled: false
logging:
  level: error
  format: text
  output: stdout
`)

	kbd := hardwaretest.Keyboard("/dev/input/event9", "Test Keyboard", "usb-test/input0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, runOptions{ConfigPath: path, Adapter: hardwaretest.NewAdapter(kbd)})
	}()

	deadline := time.Now().Add(5 * time.Second)
	for countDeviceNodes(t, dbPath) == 0 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("device node never persisted; run error: %v", <-errCh)
		}
		time.Sleep(20 * time.Millisecond)
	}

	// Give discovery time to bind before shutting down.
	for kbd.StreamCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not return after cancel")
	}

	if got := countDeviceNodes(t, dbPath); got != 1 {
		t.Errorf("input_device nodes = %d, want 1", got)
	}
	if kbd.OpenHandles() != 0 {
		t.Errorf("open handles after shutdown = %d, want 0", kbd.OpenHandles())
	}
}

func countDeviceNodes(t *testing.T, path string) int {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		return 0
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM graph_nodes WHERE type = ?`, input.DeviceNodeType).Scan(&n); err != nil {
		return 0
	}
	return n
}

func TestDeviceConfigs(t *testing.T) {
	got := deviceConfigs([]config.InputDeviceConfig{
		{
			Name: "remote", Path: "/dev/input/event3", Active: true,
			AutodetectKeys: true, AutodetectSwitches: true,
		},
		{
			Name: "knob", Path: "/dev/input/event4",
			AutodetectRelativeAxes: true, AutodetectAbsoluteAxes: true, AutodetectLEDs: true,
		},
	})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	remote := got[0]
	if remote.Name != "remote" || remote.Path != "/dev/input/event3" || !remote.Active {
		t.Errorf("remote = %+v", remote)
	}
	if want := []input.Category{input.CategoryKey, input.CategorySwitch}; !equalCategories(remote.Categories, want) {
		t.Errorf("remote categories = %v, want %v", remote.Categories, want)
	}

	knob := got[1]
	if knob.Active {
		t.Error("knob should be inactive")
	}
	want := []input.Category{input.CategoryLED, input.CategoryRelativeAxis, input.CategoryAbsoluteAxis}
	if !equalCategories(knob.Categories, want) {
		t.Errorf("knob categories = %v, want %v", knob.Categories, want)
	}
}

func equalCategories(a, b []input.Category) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelectAdapter(t *testing.T) {
	custom := hardwaretest.NewAdapter()
	if got := selectAdapter(runOptions{Adapter: custom}); got != custom {
		t.Error("explicit adapter should win")
	}

	sim := selectAdapter(runOptions{Simulate: true})
	devices, err := sim.Enumerate()
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(devices) != 1 || devices[0].Name() != "Simulated Keyboard" {
		t.Errorf("simulated devices = %d", len(devices))
	}
	for _, d := range devices {
		d.Close() //nolint:errcheck // test cleanup
	}

	if _, ok := selectAdapter(runOptions{}).(*hardware.EvdevAdapter); !ok {
		t.Error("default adapter should be evdev")
	}
}

func TestListDevices(t *testing.T) {
	var buf bytes.Buffer
	adapter := hardwaretest.NewAdapter(hardwaretest.Keyboard("/dev/input/event1", "Desk Keyboard", "usb-1/input0"))
	if err := listDevices(&buf, adapter); err != nil {
		t.Fatalf("listDevices: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Desk Keyboard", "usb-1/input0", "vendor=046d", "key:", "led:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestListDevices_None(t *testing.T) {
	var buf bytes.Buffer
	if err := listDevices(&buf, hardwaretest.NewAdapter()); err != nil {
		t.Fatalf("listDevices: %v", err)
	}
	if !strings.Contains(buf.String(), "no input devices found") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestRootCommand(t *testing.T) {
	t.Run("shows help without subcommand", func(t *testing.T) {
		root := newRootCmd()
		var buf bytes.Buffer
		root.SetOut(&buf)
		root.SetErr(&buf)
		root.SetArgs([]string{})
		if err := root.Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !strings.Contains(buf.String(), "Usage:") {
			t.Errorf("help output = %q", buf.String())
		}
	})

	t.Run("version", func(t *testing.T) {
		root := newRootCmd()
		var buf bytes.Buffer
		root.SetOut(&buf)
		root.SetArgs([]string{"version"})
		if err := root.Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !strings.HasPrefix(buf.String(), "graylogic-input "+version) {
			t.Errorf("version output = %q", buf.String())
		}
	})

	t.Run("rejects unknown flags", func(t *testing.T) {
		root := newRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"run", "--nope"})
		if err := root.Execute(); err == nil {
			t.Error("unknown flag should fail")
		}
	})
}
