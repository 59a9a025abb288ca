// Package network carries plans and device events between machines: a
// websocket engine for remote plans, a UDP stream for raw events and LAN
// discovery of running agents.
package network

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"devinput/internal/protocol"

	"github.com/imroc/req/v3"
	"github.com/kataras/golog"
)

var logger = golog.Child("[network]")

// DiscoveredAgent is a devinput agent found on the network.
type DiscoveredAgent struct {
	IP     string                  `json:"ip"`
	Port   int                     `json:"port"`
	Status *protocol.StatusPayload `json:"status,omitempty"`
}

// GetLocalIP returns the primary local IP address
func GetLocalIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}

// ScanLAN probes every address of the local /24 for an agent API on port.
// token is sent with the status request; agents that reject it are still
// reported, without status.
func ScanLAN(ctx context.Context, port int, token string) ([]DiscoveredAgent, error) {
	localIP, err := GetLocalIP()
	if err != nil {
		return nil, fmt.Errorf("failed to get local IP: %w", err)
	}

	parts := strings.Split(localIP, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid IP address format: %s", localIP)
	}
	subnet := strings.Join(parts[:3], ".")

	var (
		agents []DiscoveredAgent
		mu     sync.Mutex
		wg     sync.WaitGroup
	)
	client := NewProbeClient(500 * time.Millisecond)

	for i := 1; i <= 254; i++ {
		ip := fmt.Sprintf("%s.%d", subnet, i)
		if ip == localIP {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if agent, ok := ProbeAgent(ctx, client, fmt.Sprintf("%s:%d", ip, port), token); ok {
				mu.Lock()
				agents = append(agents, agent)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	logger.Infof("LAN scan on port %d found %d agent(s)", port, len(agents))
	return agents, nil
}

// NewProbeClient returns an HTTP client for ProbeAgent.
func NewProbeClient(timeout time.Duration) *req.Client {
	return req.C().SetTimeout(timeout)
}

// ProbeAgent checks addr ("host:port") for a running agent.
func ProbeAgent(ctx context.Context, client *req.Client, addr, token string) (DiscoveredAgent, bool) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return DiscoveredAgent{}, false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return DiscoveredAgent{}, false
	}
	agent := DiscoveredAgent{IP: host, Port: port}

	resp, err := client.R().SetContext(ctx).Get("http://" + addr + "/health")
	if err != nil || resp.StatusCode != http.StatusOK {
		return DiscoveredAgent{}, false
	}

	r := client.R().SetContext(ctx)
	if token != "" {
		r.SetBearerAuthToken(token)
	}
	resp, err = r.Get("http://" + addr + "/api/status")
	if err != nil || resp.StatusCode != http.StatusOK {
		logger.Debugf("agent %s: no status", addr)
		return agent, true
	}
	var status protocol.StatusPayload
	if err := protocol.JSON.Unmarshal(resp.Bytes(), &status); err != nil {
		logger.Debugf("agent %s: bad status: %v", addr, err)
		return agent, true
	}
	agent.Status = &status
	return agent, true
}

// GetLocalIPs returns all available local IPv4 addresses
func GetLocalIPs() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var ips []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ip = ip.To4(); ip != nil {
				ips = append(ips, ip.String())
			}
		}
	}
	return ips, nil
}
