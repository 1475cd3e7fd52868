package airtunes

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/opd-ai/airtunes/playback"
	"github.com/opd-ai/airtunes/rtsp"
	"github.com/opd-ai/airtunes/transport"
)

// ErrInvalidOptions indicates an option that cannot be used.
var ErrInvalidOptions = errors.New("invalid options")

// Options configures a receiver.
type Options struct {
	// Name is the receiver name senders display.
	Name string
	// HardwareAddress identifies the receiver in its advertisement and
	// in challenge responses.
	HardwareAddress net.HardwareAddr
	// BindAddress is the host all ports bind on; empty binds every
	// interface.
	BindAddress string
	RTSPPort    int
	AudioPort   int
	ControlPort int
	// KeyFile is the RSA private key. Empty generates a key that no
	// AirPlay sender will accept, for testing.
	KeyFile string
	// APIAddr enables the HTTP API when set.
	APIAddr string
	// Advertise publishes the receiver over multicast DNS.
	Advertise       bool
	PlaybackDelay   time.Duration
	BufferCount     int
	BufferSize      int
	RetransmitLimit int
	// IdleTimeout closes silent control connections. Zero disables it.
	IdleTimeout time.Duration
	// Sink receives the audio. Nil discards it on a real-time clock.
	Sink playback.Sink
}

// NewOptions returns the default options.
func NewOptions() *Options {
	pb := playback.DefaultConfig()
	return &Options{
		Name:            "AirTunes",
		HardwareAddress: net.HardwareAddr{0xb8, 0xc7, 0x5d, 0x3b, 0x72, 0x2b},
		RTSPPort:        5001,
		AudioPort:       6010,
		ControlPort:     6011,
		Advertise:       true,
		PlaybackDelay:   pb.PlaybackDelay,
		BufferCount:     pb.BufferCount,
		BufferSize:      pb.BufferSize,
		RetransmitLimit: transport.DefaultRetransmitLimit,
		IdleTimeout:     rtsp.DefaultIdleTimeout,
	}
}

// Environment variables read by LoadOptionsFromEnv.
const (
	EnvName            = "AIRTUNES_NAME"
	EnvHardwareAddress = "AIRTUNES_HARDWARE_ADDRESS"
	EnvBindAddress     = "AIRTUNES_BIND_ADDRESS"
	EnvRTSPPort        = "AIRTUNES_RTSP_PORT"
	EnvAudioPort       = "AIRTUNES_AUDIO_PORT"
	EnvControlPort     = "AIRTUNES_CONTROL_PORT"
	EnvKeyFile         = "AIRTUNES_KEY_FILE"
	EnvAPIAddr         = "AIRTUNES_API_ADDR"
	EnvAdvertise       = "AIRTUNES_ADVERTISE"
	EnvPlaybackDelay   = "AIRTUNES_PLAYBACK_DELAY"
	EnvBufferCount     = "AIRTUNES_BUFFER_COUNT"
	EnvBufferSize      = "AIRTUNES_BUFFER_SIZE"
	EnvRetransmitLimit = "AIRTUNES_RETRANSMIT_LIMIT"
	EnvIdleTimeout     = "AIRTUNES_IDLE_TIMEOUT"
)

// LoadOptionsFromEnv returns the defaults overridden by AIRTUNES_*
// variables. Each file is loaded into the environment first; variables
// already set win over file entries.
func LoadOptionsFromEnv(files ...string) (*Options, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	}

	o := NewOptions()
	env := envReader{}

	env.str(EnvName, &o.Name)
	env.str(EnvBindAddress, &o.BindAddress)
	env.str(EnvKeyFile, &o.KeyFile)
	env.str(EnvAPIAddr, &o.APIAddr)
	env.hardwareAddr(EnvHardwareAddress, &o.HardwareAddress)
	env.integer(EnvRTSPPort, &o.RTSPPort)
	env.integer(EnvAudioPort, &o.AudioPort)
	env.integer(EnvControlPort, &o.ControlPort)
	env.integer(EnvBufferCount, &o.BufferCount)
	env.integer(EnvBufferSize, &o.BufferSize)
	env.integer(EnvRetransmitLimit, &o.RetransmitLimit)
	env.boolean(EnvAdvertise, &o.Advertise)
	env.duration(EnvPlaybackDelay, &o.PlaybackDelay)
	env.duration(EnvIdleTimeout, &o.IdleTimeout)

	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}
	return o, o.Validate()
}

// Validate checks every option.
func (o *Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidOptions)
	}
	if len(o.HardwareAddress) != 6 {
		return fmt.Errorf("%w: hardware address must be 6 bytes", ErrInvalidOptions)
	}
	for name, port := range map[string]int{"rtsp": o.RTSPPort, "audio": o.AudioPort, "control": o.ControlPort} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("%w: %s port %d", ErrInvalidOptions, name, port)
		}
	}
	if o.BufferCount <= 0 || o.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer count and size must be positive", ErrInvalidOptions)
	}
	if o.PlaybackDelay < 0 || o.IdleTimeout < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidOptions)
	}
	if o.RetransmitLimit < 0 {
		return fmt.Errorf("%w: negative retransmit limit", ErrInvalidOptions)
	}
	return nil
}

func (o *Options) addr(port int) string {
	return net.JoinHostPort(o.BindAddress, strconv.Itoa(port))
}

// envReader collects parse errors so every bad variable is reported.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return v, ok && v != ""
}

func (r *envReader) fail(key, value string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalidOptions, key, value, err))
}

func (r *envReader) str(key string, dst *string) {
	if v, ok := r.lookup(key); ok {
		*dst = v
	}
}

func (r *envReader) integer(key string, dst *int) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = n
}

func (r *envReader) boolean(key string, dst *bool) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = b
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = d
}

func (r *envReader) hardwareAddr(key string, dst *net.HardwareAddr) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	hw, err := net.ParseMAC(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = hw
}
