//go:build windows

package osutils

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// IsAdmin checks if the current process has administrative privileges
func IsAdmin() bool {
	var token windows.Token
	h, _ := windows.GetCurrentProcess()
	if err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token); err != nil {
		return false
	}
	defer token.Close()

	var sid *windows.SID
	err := windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := token.IsMember(sid)
	if err != nil {
		return false
	}
	return member
}

// EnsureFirewallRule makes sure an inbound allow rule exists for r,
// elevating through UAC when the process is not an administrator.
func EnsureFirewallRule(r Rule) error {
	if err := r.validate(); err != nil {
		return err
	}
	name := r.displayName()
	port := strconv.Itoa(r.Port)

	out, err := exec.Command("netsh", "advfirewall", "firewall", "show", "rule", "name="+name).CombinedOutput()
	if err == nil && strings.Contains(string(out), name) &&
		strings.Contains(string(out), port) && strings.Contains(string(out), "Allow") {
		logger.Debugf("firewall rule %q already present", name)
		return nil
	}

	ps := fmt.Sprintf(
		"Remove-NetFirewallRule -DisplayName '%s' -ErrorAction SilentlyContinue; "+
			"New-NetFirewallRule -DisplayName '%s' -Direction Inbound -LocalPort %d -Protocol %s -Action Allow -Profile Any",
		name, name, r.Port, r.Protocol,
	)

	if IsAdmin() {
		if out, err := exec.Command("powershell", "-NoProfile", "-Command", ps).CombinedOutput(); err != nil {
			return fmt.Errorf("create firewall rule %q: %w (output: %s)", name, err, out)
		}
		logger.Infof("firewall rule %q created", name)
		return nil
	}

	verb, _ := syscall.UTF16PtrFromString("runas")
	exe, _ := syscall.UTF16PtrFromString("powershell.exe")
	args, _ := syscall.UTF16PtrFromString(fmt.Sprintf("-NoProfile -WindowStyle Hidden -Command \"%s\"", ps))
	if err := windows.ShellExecute(0, verb, exe, args, nil, windows.SW_HIDE); err != nil {
		return fmt.Errorf("elevate firewall update: %w", err)
	}
	logger.Infof("UAC prompt requested for firewall rule %q", name)
	return nil
}
