package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobinpa/tinyhttp/internal/client"
	"github.com/jobinpa/tinyhttp/internal/config"
	"github.com/jobinpa/tinyhttp/internal/device"
	"github.com/jobinpa/tinyhttp/internal/discovery"
	"github.com/jobinpa/tinyhttp/internal/logging"
	"github.com/jobinpa/tinyhttp/internal/server"
	"github.com/jobinpa/tinyhttp/internal/ui"
)

var configPath string

// Serve command and flags
var (
	host           string
	port           int
	logLevel       string
	indexPage      string
	maxRequestSize int
	noAdvertise    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server",
	Long: `Start the server and block until interrupted.

Settings come from the config file; flags override them for this run.
Press Ctrl+C to stop: the listening socket is closed and the LEDs are
turned off before exiting.`,
	Example: `  # Serve on port 80 with the saved configuration
  tinyhttp-server serve

  # Serve on a high port with debug logging
  tinyhttp-server serve --port 8080 --log-level debug

  # Serve a custom page and stay off mDNS
  tinyhttp-server serve --index ./index.html --no-advertise`,
	RunE: runServe,
}

func init() {
	addServeFlags(serveCmd)
	addServeFlags(rootCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&host, "host", "", "Interface to listen on (empty = all interfaces)")
	cmd.Flags().IntVar(&port, "port", 80, "TCP port")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&indexPage, "index", "", "Page served at / (empty = built-in page)")
	cmd.Flags().IntVar(&maxRequestSize, "max-request-size", server.DefaultMaxRequestSize, "Bytes read per request")
	cmd.Flags().BoolVar(&noAdvertise, "no-advertise", false, "Do not advertise over mDNS")
}

// applyFlags overrides cfg with the flags set on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = host
	}
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("index") {
		cfg.IndexPage = indexPage
	}
	if flags.Changed("max-request-size") {
		cfg.Server.MaxRequestSize = maxRequestSize
	}
	if flags.Changed("no-advertise") {
		cfg.Discovery.Advertise = !noAdvertise
	}
	return cfg.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	// An explicit environment level wins over the file.
	level := os.Getenv(logging.LogLevelEnvVar)
	if level == "" {
		level = cfg.LogLevel
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}
	defer logging.Sync()

	display := device.NewBufferDisplay()
	display.WriteText(0, 0, "Starting")

	leds := &device.RGB{
		Red:   device.NewMemoryPin(cfg.LEDs.Red, device.ColorRed),
		Green: device.NewMemoryPin(cfg.LEDs.Green, device.ColorGreen),
		Blue:  device.NewMemoryPin(cfg.LEDs.Blue, device.ColorBlue),
	}
	defer leds.Off()

	handler := server.Chain(
		device.NewLEDHandler(leds, cfg.IndexPage),
		device.NewStatusHandler(leds),
	)

	srv, err := server.New(&server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		Backlog:        cfg.Server.Backlog,
	}, handler)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	advertise := "off"
	if cfg.Discovery.Advertise {
		if cfg.Server.Port == 0 {
			logging.Warn("Not advertising an ephemeral port")
		} else {
			adv, err := discovery.Advertise(cfg.Discovery.Instance, cfg.Server.Port)
			if err != nil {
				logging.Warn("mDNS advertisement failed", zap.Error(err))
			} else {
				defer adv.Shutdown()
				advertise = cfg.Discovery.Instance
			}
		}
	}

	if ui.IsTerminal() {
		fmt.Println(ui.NewHeader(server.ServerName, cmd.CommandPath(),
			ui.Param{Key: "Listen", Value: cfg.ListenAddr()},
			ui.Param{Key: "Advertise", Value: advertise},
			ui.Param{Key: "Index page", Value: pageName(cfg.IndexPage)},
		).Render())
	}

	display.Clear()
	display.WriteText(0, 0, server.ServerName)
	display.WriteText(0, 1, cfg.ListenAddr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	done := make(chan struct{})
	go stopOnSignal(ctx, srv, done, stop)

	err = srv.Start()
	close(done)
	if err != nil {
		display.Clear()
		display.WriteText(0, 0, "Start failed")
		return err
	}

	display.Clear()
	display.WriteText(0, 0, "Program ended")
	return nil
}

// stopRetryInterval paces Stop calls while the server is still starting.
const stopRetryInterval = 50 * time.Millisecond

type stopper interface {
	Stop()
}

// stopOnSignal stops srv once ctx is done and keeps calling Stop until done
// closes, since Stop is ignored before the server is running. restore runs
// first so a second interrupt kills the process.
func stopOnSignal(ctx context.Context, srv stopper, done <-chan struct{}, restore func()) {
	select {
	case <-done:
		return
	case <-ctx.Done():
	}
	restore()
	logging.Info("Shutdown requested")

	ticker := time.NewTicker(stopRetryInterval)
	defer ticker.Stop()
	for {
		srv.Stop()
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

func pageName(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

// Scan command and flags
var scanTimeout time.Duration

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find other servers on the local network",
	Long: `Browse mDNS for _http._tcp services and list the ones advertising
server=TinyHttpServer in their TXT record.`,
	Example: `  tinyhttp-server scan
  tinyhttp-server scan --timeout 10s`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for answers")
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}
	defer logging.Sync()

	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout

	label := fmt.Sprintf("Scanning for %s (%s)...", discovery.ServiceType, scanTimeout)
	if !ui.IsTerminal() {
		fmt.Println(label)
		fmt.Println()
	}

	var devices []*discovery.Device
	err := ui.RunWithSpinner(cmd.Context(), label, func(ctx context.Context) error {
		var err error
		devices, err = scanner.Scan(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Println(ui.RenderDevices(devices))
	return nil
}

// Device commands
var (
	targetURL      string
	targetInstance string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the LED state of a running server",
	Example: `  tinyhttp-server status --url http://192.168.4.16
  tinyhttp-server status --instance kitchen`,
	RunE: runStatus,
}

var colorCmd = &cobra.Command{
	Use:       "color <red|green|blue|off>",
	Short:     "Switch the LEDs of a running server",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{device.ColorRed, device.ColorGreen, device.ColorBlue, device.ColorOff},
	Example: `  tinyhttp-server color green --url http://192.168.4.16
  tinyhttp-server color off --instance kitchen`,
	RunE: runColor,
}

func init() {
	for _, cmd := range []*cobra.Command{statusCmd, colorCmd} {
		cmd.Flags().StringVar(&targetURL, "url", "", "Server base URL")
		cmd.Flags().StringVar(&targetInstance, "instance", "", "mDNS instance name to look up")
		cmd.MarkFlagsOneRequired("url", "instance")
		cmd.MarkFlagsMutuallyExclusive("url", "instance")
		rootCmd.AddCommand(cmd)
	}
}

// resolveTarget returns a client for --url, or for the server found under
// --instance
func resolveTarget(ctx context.Context) (*client.Client, error) {
	if targetURL != "" {
		return client.New(targetURL), nil
	}

	var d *discovery.Device
	err := ui.RunWithSpinner(ctx, "Looking up "+targetInstance+"...", func(ctx context.Context) error {
		var err error
		d, err = discovery.NewScanner().Find(ctx, targetInstance)
		return err
	})
	if err != nil {
		return nil, err
	}
	logging.Debug("Resolved instance", zap.String("device", d.String()))
	return client.New(d.BaseURL()), nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}
	defer logging.Sync()

	c, err := resolveTarget(cmd.Context())
	if err != nil {
		return err
	}
	status, err := c.Status(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(ui.NewHeader(server.ServerName, c.BaseURL,
		ui.Param{Key: "Color", Value: status.Color},
		ui.Param{Key: "Red", Value: onOff(status.Red)},
		ui.Param{Key: "Green", Value: onOff(status.Green)},
		ui.Param{Key: "Blue", Value: onOff(status.Blue)},
		ui.Param{Key: "Uptime", Value: (time.Duration(status.UptimeSeconds) * time.Second).String()},
	).Render())
	return nil
}

func runColor(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}
	defer logging.Sync()

	c, err := resolveTarget(cmd.Context())
	if err != nil {
		return err
	}
	if err := c.SetColor(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println(ui.RenderSuccess("LEDs set to " + args[0]))
	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// Config commands
var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			p, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			path = p
		}

		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		}

		cfg := config.Default()
		cfg.Discovery.Instance = discovery.NewInstanceName()
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Println(ui.RenderSuccess("Wrote " + path))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			p, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd)
}
