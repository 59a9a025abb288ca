//go:build !windows

package osutils

import "runtime"

// IsAdmin is a stub for non-Windows platforms
func IsAdmin() bool {
	return false
}

// EnsureFirewallRule only validates r outside Windows.
func EnsureFirewallRule(r Rule) error {
	if err := r.validate(); err != nil {
		return err
	}
	logger.Debugf("firewall management not supported on %s, skipping %s", runtime.GOOS, r.displayName())
	return nil
}
