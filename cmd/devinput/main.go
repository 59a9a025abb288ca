// devinput - synthetic keyboard and mouse input
// Composes input plans for the local or a remote engine, serves the agent
// API and streams decoded device events.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devinput/internal/autostart"
	"devinput/internal/config"
	"devinput/internal/input"
	"devinput/internal/keys"
	"devinput/internal/network"

	"github.com/kataras/golog"
)

var (
	version = "0.1.0"

	showVer    = flag.Bool("version", false, "Show version")
	configPath = flag.String("config", "", "Config file (default: per-user config dir)")
	serve      = flag.Bool("serve", false, "Run as agent: API server, event stream and hotkeys")
	remote     = flag.String("remote", "", "Submit the plan to the agent at host:port instead of the local engine")
	token      = flag.String("token", "", "Bearer token for -remote and -scan (default: server.token from config)")
	comboFlag  = flag.String("keys", "", "Key combo to press, e.g. \"Ctrl+C\"")
	textFlag   = flag.String("text", "", "Text to type")
	wheelFlag  = flag.Int("wheel", 0, "Vertical wheel notches (positive scrolls up)")
	tiltFlag   = flag.Int("tilt", 0, "Horizontal wheel notches (positive scrolls right)")
	repeat     = flag.Int("repeat", 1, "Repeat count for every action")
	dryRun     = flag.Bool("dry-run", false, "Print the primitive steps instead of injecting")
	monitor    = flag.Bool("monitor", false, "Print decoded device events from the local source")
	events     = flag.String("events", "", "Print decoded device events streamed by the agent at host:port (UDP)")
	scan       = flag.Int("scan", 0, "Scan the local /24 for agents on this port")
	autostartF = flag.String("autostart", "", "Start the agent on login: on, off or status")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("devinput version %s\n", version)
		return
	}

	cfgMgr, err := config.NewManager(*configPath)
	if err != nil {
		golog.Fatalf("failed to initialize config: %v", err)
	}
	if err := cfgMgr.Load(); err != nil {
		golog.Warnf("failed to load config, using defaults: %v", err)
	}
	cfg := cfgMgr.Get()
	config.ApplyLogLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *token == "" {
		*token = cfg.Server.Token
	}

	switch {
	case *serve || (cfg.Server.Enabled && noModeFlags(flag.CommandLine)):
		err = runServe(ctx, cfgMgr)
	case *monitor:
		err = runMonitor(ctx)
	case *events != "":
		err = runEvents(ctx, *events)
	case *scan > 0:
		err = runScan(ctx, *scan)
	case *autostartF != "":
		err = runAutostart(*autostartF, cfgMgr.Path())
	default:
		err = runPlan(ctx, cfg)
	}
	if err != nil {
		golog.Fatalf("%v", err)
	}
}

// noModeFlags reports whether fs was given nothing but flags that do not
// select a mode, so server.enabled may start the agent.
func noModeFlags(fs *flag.FlagSet) bool {
	only := true
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config", "token":
		default:
			only = false
		}
	})
	return only
}

// buildPlan composes the plan described by the flags.
func buildPlan() (*input.Builder, error) {
	b := input.NewBuilder()
	if *comboFlag != "" {
		ks, err := keys.ParseCombo(*comboFlag)
		if err != nil {
			return nil, err
		}
		b.KeyPress(*repeat, ks...)
	}
	if *textFlag != "" {
		b.KeyPressText(*repeat, *textFlag)
	}
	if *wheelFlag != 0 {
		b.Wheel(*wheelFlag, *repeat)
	}
	if *tiltFlag != 0 {
		b.Tilt(*tiltFlag, *repeat)
	}
	return b, b.Err()
}

func runPlan(ctx context.Context, cfg *config.Config) error {
	b, err := buildPlan()
	if err != nil {
		return err
	}
	if b.Len() == 0 {
		flag.Usage()
		return nil
	}
	for _, a := range b.Actions() {
		golog.Debugf("plan: %s", a)
	}

	var engine input.Engine
	switch {
	case *dryRun:
		engine = input.NewRecorder()
	case *remote != "":
		engine = network.NewRemoteEngine(*remote, *token)
	default:
		engine, err = input.NewEngine(input.EngineOptions{
			DeviceName: cfg.Engine.DeviceName,
			KeyDelay:   cfg.Engine.KeyDelay.Duration,
		})
		if err != nil {
			return fmt.Errorf("local engine: %w", err)
		}
	}
	defer engine.Close()

	if err := input.Submit(ctx, engine, b); err != nil {
		return err
	}

	if rec, ok := engine.(*input.Recorder); ok {
		for _, s := range rec.Steps() {
			fmt.Println(formatStep(s))
		}
	}
	return nil
}

func formatStep(s input.Step) string {
	switch s.Op {
	case input.StepKeyDown, input.StepKeyUp:
		return fmt.Sprintf("%-5s %s", s.Op, s.Code)
	case input.StepText:
		return fmt.Sprintf("%-5s %q", s.Op, s.Text)
	default:
		return fmt.Sprintf("%-5s %d", s.Op, s.Delta)
	}
}

func runMonitor(ctx context.Context) error {
	golog.Infof("monitoring local input, Ctrl+C to stop")
	return input.Monitor(ctx, input.NewSource(), printState)
}

func runEvents(ctx context.Context, addr string) error {
	r := network.NewEventReceiver(addr)
	if !r.Probe() {
		return fmt.Errorf("no event stream at %s", addr)
	}
	r.OnState = printState
	if err := r.Start(); err != nil {
		return err
	}
	defer r.Stop()
	<-ctx.Done()
	return nil
}

func printState(st *input.DeviceState) {
	fmt.Printf("%s %s\n", time.Now().Format("15:04:05.000"), st)
}

func runScan(ctx context.Context, port int) error {
	agents, err := network.ScanLAN(ctx, port, *token)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		fmt.Println("No agents found")
		return nil
	}
	for _, a := range agents {
		line := fmt.Sprintf("%s:%d", a.IP, a.Port)
		if a.Status != nil {
			line += fmt.Sprintf("  version=%s engine=%s plans=%d", a.Status.Version, a.Status.Engine, a.Status.PlansExecuted)
		}
		fmt.Println(line)
	}
	return nil
}

func runAutostart(mode, configPath string) error {
	switch mode {
	case "on":
		e, err := autostart.AgentEntry(configPath)
		if err != nil {
			return err
		}
		if err := autostart.Enable(e); err != nil {
			return fmt.Errorf("enable autostart: %w", err)
		}
		fmt.Println("Autostart enabled")
	case "off":
		if err := autostart.Disable(); err != nil {
			return fmt.Errorf("disable autostart: %w", err)
		}
		fmt.Println("Autostart disabled")
	case "status":
		fmt.Printf("Autostart enabled: %v\n", autostart.IsEnabled())
	default:
		return fmt.Errorf("-autostart: unknown mode %q (want on, off or status)", mode)
	}
	return nil
}
