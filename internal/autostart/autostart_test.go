package autostart

import (
	"strings"
	"testing"
)

// TestRenderPlist tests that arguments end up in ProgramArguments
func TestRenderPlist(t *testing.T) {
	data, err := render(macLaunchAgentPlist, Entry{
		ExecutablePath: "/usr/local/bin/devinput",
		Args:           []string{"-serve", "-config", "/etc/devinput.toml"},
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		"<string>" + label + "</string>",
		"<string>/usr/local/bin/devinput</string>",
		"<string>-serve</string>",
		"<string>/etc/devinput.toml</string>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in plist:\n%s", want, out)
		}
	}
}

// TestRenderDesktopEntry tests the Exec line of the XDG entry
func TestRenderDesktopEntry(t *testing.T) {
	data, err := render(xdgDesktopEntry, Entry{ExecutablePath: "/opt/devinput", Args: []string{"-serve"}})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(string(data), "Exec=/opt/devinput -serve\n") {
		t.Errorf("Unexpected desktop entry:\n%s", data)
	}
}

// TestEnableDisable tests the login item lifecycle under a temporary home
func TestEnableDisable(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	if _, _, err := entryFile(); err != nil {
		t.Skipf("no file based autostart here: %v", err)
	}

	e := Entry{ExecutablePath: "/bin/devinput", Args: []string{"-serve"}}
	if err := Enable(e); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	if !IsEnabled() {
		t.Error("Expected autostart to be enabled")
	}
	if err := Disable(); err != nil {
		t.Fatalf("Disable failed: %v", err)
	}
	if IsEnabled() {
		t.Error("Expected autostart to be disabled")
	}
	if err := Disable(); err != nil {
		t.Errorf("Expected second Disable to succeed, got %v", err)
	}
}
