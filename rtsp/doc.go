// Package rtsp implements the control channel of an AirPlay audio session.
//
// Senders speak a small RTSP dialect over TCP: a CRLF-delimited request line
// and header block, optionally followed by a body of Content-Length bytes.
// Every request gets "RTSP/1.0 200 OK" with its CSeq echoed back.
//
// # Methods
//
//   - OPTIONS answers an Apple-Challenge header with an Apple-Response
//     signature and lists the supported methods.
//   - SETUP makes the connection the authoritative session connection,
//     closing every other open control connection, begins playback and
//     returns the UDP ports.
//   - RECORD and FLUSH reset playback.
//   - TEARDOWN ends playback.
//
// Any request carrying both Active-Remote and DACP-ID updates the remote
// control routing token.
//
// # Bodies
//
// Bodies are dispatched by Content-Type through a [Registry]. Bodies of an
// unregistered type are read and discarded so the connection stays framed.
package rtsp
