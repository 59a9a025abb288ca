// Package autostart registers the agent (devinput -serve) to start on login.
package autostart

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"
)

const label = "com.devinput.agent"

const macLaunchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
{{- range .Args}}
        <string>{{.}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`

const xdgDesktopEntry = `[Desktop Entry]
Type=Application
Name=devinput agent
Exec={{.ExecutablePath}}{{range .Args}} {{.}}{{end}}
X-GNOME-Autostart-enabled=true
NoDisplay=true
`

// Entry describes what gets started on login.
type Entry struct {
	ExecutablePath string
	Args           []string
	Label          string
}

// AgentEntry returns the entry for the running executable in serve mode,
// passing configPath through when set.
func AgentEntry(configPath string) (Entry, error) {
	exe, err := os.Executable()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get executable path: %w", err)
	}
	args := []string{"-serve"}
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			configPath = abs
		}
		args = append(args, "-config", configPath)
	}
	return Entry{ExecutablePath: exe, Args: args, Label: label}, nil
}

// Enable enables auto-start on login
func Enable(e Entry) error {
	if runtime.GOOS == "windows" {
		return enableWindows(e)
	}
	path, tmpl, err := entryFile()
	if err != nil {
		return err
	}
	data, err := render(tmpl, e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Disable disables auto-start on login
func Disable() error {
	if runtime.GOOS == "windows" {
		return disableWindows()
	}
	path, _, err := entryFile()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsEnabled checks if auto-start is enabled
func IsEnabled() bool {
	if runtime.GOOS == "windows" {
		return isEnabledWindows()
	}
	path, _, err := entryFile()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// entryFile returns the login item path and its template for this platform.
func entryFile() (string, string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "LaunchAgents", label+".plist"), macLaunchAgentPlist, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		dir := os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			dir = filepath.Join(home, ".config")
		}
		return filepath.Join(dir, "autostart", "devinput.desktop"), xdgDesktopEntry, nil
	default:
		return "", "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func render(text string, e Entry) ([]byte, error) {
	if e.Label == "" {
		e.Label = label
	}
	tmpl, err := template.New("entry").Parse(text)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
