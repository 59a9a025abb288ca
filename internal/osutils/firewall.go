// Package osutils holds host integration helpers for the agent.
package osutils

import (
	"fmt"
	"strings"

	"github.com/kataras/golog"
)

var logger = golog.Child("[osutils]")

// Rule describes one inbound port the agent listens on.
type Rule struct {
	Name     string
	Port     int
	Protocol string // TCP or UDP
}

func (r Rule) validate() error {
	if r.Port <= 0 || r.Port > 65535 {
		return fmt.Errorf("firewall rule %q: port %d out of range", r.Name, r.Port)
	}
	switch strings.ToUpper(r.Protocol) {
	case "TCP", "UDP":
	default:
		return fmt.Errorf("firewall rule %q: unsupported protocol %q", r.Name, r.Protocol)
	}
	return nil
}

func (r Rule) displayName() string {
	return fmt.Sprintf("devinput %s (%s %d)", r.Name, strings.ToUpper(r.Protocol), r.Port)
}

// AgentRules returns the rules for an agent serving the API on apiPort and
// the event stream on eventPort (0 when disabled).
func AgentRules(apiPort, eventPort int) []Rule {
	rules := []Rule{{Name: "api", Port: apiPort, Protocol: "TCP"}}
	if eventPort > 0 {
		rules = append(rules, Rule{Name: "events", Port: eventPort, Protocol: "UDP"})
	}
	return rules
}
