package main

import (
	"context"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"devinput/internal/api"
	"devinput/internal/config"
	"devinput/internal/hotkey"
	"devinput/internal/input"
	"devinput/internal/network"
	"devinput/internal/osutils"

	"github.com/kataras/golog"
)

// runServe runs the agent until ctx is done or the stop hotkey fires.
func runServe(ctx context.Context, cfgMgr *config.Manager) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := cfgMgr.Get()
	golog.Infof("devinput %s agent starting", version)

	engine, err := input.NewEngine(input.EngineOptions{
		DeviceName: cfg.Engine.DeviceName,
		KeyDelay:   cfg.Engine.KeyDelay.Duration,
	})
	if err != nil {
		golog.Warnf("native engine unavailable (%v), plans will only be recorded", err)
		engine = input.NewRecorder()
	}
	defer engine.Close()

	server := api.NewServer(cfgMgr, engine, version)

	if cfg.Server.ManageFirewall {
		openFirewall(cfg)
	}

	var sender *network.EventSender
	if cfg.Server.EventPort > 0 {
		sender = network.NewEventSender(cfg.Server.EventPort)
		if err := sender.Start(); err != nil {
			golog.Warnf("event stream disabled: %v", err)
			sender = nil
		} else {
			defer sender.Stop()
			server.SetEventSender(sender)
		}
	}

	var streaming atomic.Bool
	streaming.Store(true)

	hk := hotkey.NewManager()
	applyHotkeys := func(c *config.Config) {
		hk.Clear()
		for name, combo := range c.Hotkeys {
			var fn func()
			switch name {
			case config.HotkeyStop:
				fn = func() {
					golog.Infof("stop hotkey pressed, shutting down")
					cancel()
				}
			case config.HotkeyToggleStream:
				fn = func() {
					on := !streaming.Load()
					streaming.Store(on)
					golog.Infof("event streaming enabled: %v", on)
				}
			default:
				continue
			}
			if err := hk.Register(combo, fn); err != nil {
				golog.Warnf("hotkey %s: %v", name, err)
			}
		}
	}
	applyHotkeys(cfg)

	cfgMgr.RegisterChangeCallback(func(c *config.Config) {
		config.ApplyLogLevel(c.Log.Level)
		applyHotkeys(c)
	})
	go func() {
		if err := cfgMgr.Watch(ctx); err != nil {
			golog.Warnf("config watch stopped: %v", err)
		}
	}()

	src := input.NewSource()
	if err := src.Start(); err != nil {
		golog.Warnf("input source unavailable (%v), hotkeys and event stream are idle", err)
	} else {
		defer src.Stop()
		go pumpEvents(ctx, src.Events(), sender, hk, &streaming)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(cfg.Server.Listen) }()
	go func() {
		if waitReady(ctx, cfg.Server.Listen) {
			golog.Infof("agent ready on %s", cfg.Server.Listen)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	golog.Infof("shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	return server.Shutdown(shutdownCtx)
}

// pumpEvents forwards every raw record to the event stream and feeds its
// decoded form to the hotkey matcher.
func pumpEvents(ctx context.Context, events <-chan input.RawEvent, sender *network.EventSender, hk *hotkey.Manager, streaming *atomic.Bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-events:
			if !ok {
				return
			}
			if sender != nil && streaming.Load() {
				if err := sender.Send(&rec); err != nil {
					golog.Debugf("event not sent: %v", err)
				}
			}
			st, err := input.Decode(&rec)
			if err != nil {
				golog.Debugf("dropping raw event: %v", err)
				continue
			}
			hk.Handle(st)
		}
	}
}

// waitReady polls the local /health endpoint until it answers or ctx ends.
func waitReady(ctx context.Context, listen string) bool {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return false
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	client := network.NewProbeClient(time.Second)
	for i := 0; i < 20; i++ {
		if _, ok := network.ProbeAgent(ctx, client, net.JoinHostPort(host, port), ""); ok {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(250 * time.Millisecond):
		}
	}
	return false
}

func openFirewall(cfg *config.Config) {
	_, portStr, _ := net.SplitHostPort(cfg.Server.Listen)
	apiPort, err := strconv.Atoi(portStr)
	if err != nil {
		golog.Warnf("firewall: cannot parse port of %s", cfg.Server.Listen)
		return
	}
	for _, r := range osutils.AgentRules(apiPort, cfg.Server.EventPort) {
		if err := osutils.EnsureFirewallRule(r); err != nil {
			golog.Warnf("firewall: %v", err)
		}
	}
}
