// Package airtunes implements an AirPlay (RAOP) audio receiver.
//
// A receiver accepts an RTSP control connection from a sender, answers its
// Apple-Challenge with the receiver's RSA key, unwraps the AES session key
// from the session description and then receives encrypted ALAC packets
// over UDP. Packets pass through a jitter buffer and are handed to a
// playback Sink once enough audio has been buffered. Track metadata,
// artwork and progress arrive on the control connection, and the sender
// can be driven back through its DACP remote control service.
//
// # Getting Started
//
//	options := airtunes.NewOptions()
//	options.Name = "Living Room"
//	options.KeyFile = "airport.key"
//
//	receiver, err := airtunes.New(options)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer receiver.Close()
//
//	if err := receiver.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
//	events, cancel := receiver.Subscribe(16)
//	defer cancel()
//	for ev := range events {
//	    fmt.Println(ev.Track.Artist, "-", ev.Track.Name)
//	}
//
// # Configuration
//
// Options can also be read from AIRTUNES_* environment variables, optionally
// seeded from .env files:
//
//	options, err := airtunes.LoadOptionsFromEnv(".env")
//
// Without a key file the receiver generates a throwaway key. Real senders
// verify challenge responses against the AirPort Express public key, so
// such a receiver is only useful with test senders such as
// examples/stream_sender.
//
// # Packages
//
//   - rtsp: control channel server, request parsing and responses
//   - session: coordinator tying control, metadata and playback together
//   - transport: UDP audio and control sockets
//   - playback: jitter buffer draining scheduler and sinks
//   - jitter: sequence-indexed packet ring
//   - crypto: RSA challenge signing, key unwrap and AES payload decryption
//   - metadata: DAAP, text parameters, artwork and SDP parsing
//   - remote: DACP remote control client
//   - advertise: multicast DNS service advertisement
//   - api: optional HTTP and WebSocket interface
//   - metrics: Prometheus collectors
package airtunes
