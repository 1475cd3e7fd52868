// Command airtunesd runs an AirPlay audio receiver.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/opd-ai/airtunes"
	"github.com/opd-ai/airtunes/playback"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

// Populated via -ldflags="-X main.version=...".
var version = "dev"

var (
	flagName         string
	flagHardwareAddr string
	flagBind         string
	flagRTSPPort     int
	flagAudioPort    int
	flagControlPort  int
	flagKeyFile      string
	flagAPIAddr      string
	flagNoAdvertise  bool
	flagDelay        time.Duration
	flagBufferCount  int
	flagBufferSize   int
	flagIdleTimeout  time.Duration
	flagOutput       string
	flagEnvFiles     []string
	flagLogLevel     string
	flagLogJSON      bool
	flagHelp         bool
	flagVersion      bool
)

func init() {
	d := airtunes.NewOptions()
	flag.StringVarP(&flagName, "name", "n", d.Name, "Receiver name shown to senders")
	flag.StringVar(&flagHardwareAddr, "hwaddr", d.HardwareAddress.String(), "Advertised hardware address")
	flag.StringVarP(&flagBind, "bind", "b", d.BindAddress, "Address to bind all ports on")
	flag.IntVarP(&flagRTSPPort, "port", "p", d.RTSPPort, "RTSP control port")
	flag.IntVar(&flagAudioPort, "audio-port", d.AudioPort, "UDP audio port")
	flag.IntVar(&flagControlPort, "control-port", d.ControlPort, "UDP control port")
	flag.StringVarP(&flagKeyFile, "key", "k", d.KeyFile, "RSA private key file")
	flag.StringVar(&flagAPIAddr, "api", d.APIAddr, "HTTP API listen address, empty to disable")
	flag.BoolVar(&flagNoAdvertise, "no-advertise", !d.Advertise, "Do not publish the receiver over mDNS")
	flag.DurationVarP(&flagDelay, "delay", "d", d.PlaybackDelay, "Audio buffered before playback starts")
	flag.IntVar(&flagBufferCount, "buffers", d.BufferCount, "Number of output buffers")
	flag.IntVar(&flagBufferSize, "buffer-size", d.BufferSize, "Output buffer size in bytes")
	flag.DurationVar(&flagIdleTimeout, "idle-timeout", d.IdleTimeout, "Close silent control connections after this long, 0 to disable")
	flag.StringVarP(&flagOutput, "output", "o", "", "Write the encoded audio stream to FILE, - for stdout")
	flag.StringSliceVar(&flagEnvFiles, "env-file", nil, "Load AIRTUNES_* variables from FILE")
	flag.StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&flagLogJSON, "log-json", false, "Log in JSON")
	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

func main() {
	flag.Parse()

	if flagHelp {
		fmt.Fprintln(os.Stderr, "Usage: airtunesd [OPTION]...")
		flag.PrintDefaults()
		return
	}
	if flagVersion {
		fmt.Println("airtunesd", version)
		return
	}

	if err := configureLogging(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	options, closeOutput, err := buildOptions()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Fatal("Invalid configuration")
	}
	defer closeOutput()

	receiver, err := airtunes.New(options)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Fatal("Failed to create receiver")
	}
	if err := receiver.Start(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Fatal("Failed to start receiver")
	}
	banner(options, receiver)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs

	logrus.WithFields(logrus.Fields{
		"function": "main",
		"signal":   sig.String(),
	}).Info("Shutting down")
	if err := receiver.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Warn("Shutdown incomplete")
	}
}

func configureLogging() error {
	level, err := logrus.ParseLevel(flagLogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	if flagLogJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

// buildOptions layers flags the user set over environment variables over
// defaults.
func buildOptions() (*airtunes.Options, func(), error) {
	noop := func() {}
	options, err := airtunes.LoadOptionsFromEnv(flagEnvFiles...)
	if err != nil {
		return nil, noop, err
	}

	set := flag.CommandLine.Changed
	if set("name") {
		options.Name = flagName
	}
	if set("hwaddr") {
		hw, err := net.ParseMAC(flagHardwareAddr)
		if err != nil {
			return nil, noop, fmt.Errorf("--hwaddr: %w", err)
		}
		options.HardwareAddress = hw
	}
	if set("bind") {
		options.BindAddress = flagBind
	}
	if set("port") {
		options.RTSPPort = flagRTSPPort
	}
	if set("audio-port") {
		options.AudioPort = flagAudioPort
	}
	if set("control-port") {
		options.ControlPort = flagControlPort
	}
	if set("key") {
		options.KeyFile = flagKeyFile
	}
	if set("api") {
		options.APIAddr = flagAPIAddr
	}
	if set("no-advertise") {
		options.Advertise = !flagNoAdvertise
	}
	if set("delay") {
		options.PlaybackDelay = flagDelay
	}
	if set("buffers") {
		options.BufferCount = flagBufferCount
	}
	if set("buffer-size") {
		options.BufferSize = flagBufferSize
	}
	if set("idle-timeout") {
		options.IdleTimeout = flagIdleTimeout
	}
	if err := options.Validate(); err != nil {
		return nil, noop, err
	}

	switch flagOutput {
	case "":
		return options, noop, nil
	case "-":
		options.Sink = playback.NewWriterSink(os.Stdout)
		return options, noop, nil
	default:
		f, err := os.Create(flagOutput)
		if err != nil {
			return nil, noop, err
		}
		options.Sink = playback.NewWriterSink(f)
		return options, func() { f.Close() }, nil
	}
}

func banner(options *airtunes.Options, receiver *airtunes.AirTunes) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgYellow)

	title.Fprintf(os.Stderr, "airtunesd %s\n", version)
	label.Fprint(os.Stderr, "  name     ")
	fmt.Fprintln(os.Stderr, options.Name)
	label.Fprint(os.Stderr, "  rtsp     ")
	fmt.Fprintln(os.Stderr, receiver.RTSPAddr())
	label.Fprint(os.Stderr, "  audio    ")
	fmt.Fprintln(os.Stderr, receiver.AudioAddr())
	label.Fprint(os.Stderr, "  control  ")
	fmt.Fprintln(os.Stderr, receiver.ControlAddr())
	if options.APIAddr != "" {
		label.Fprint(os.Stderr, "  api      ")
		fmt.Fprintln(os.Stderr, "http://"+options.APIAddr)
	}
}
