package rtsp

import (
	"fmt"
	"strings"
)

const statusLine = "RTSP/1.0 200 OK"

// PublicMethods is the method list returned to OPTIONS.
var PublicMethods = []string{
	MethodAnnounce,
	MethodSetup,
	MethodRecord,
	"PAUSE",
	MethodFlush,
	MethodTeardown,
	MethodOptions,
	MethodGetParameter,
	MethodSetParameter,
}

// Response is an always-successful control response. Headers are written
// in the order they were added, with CSeq last.
type Response struct {
	cseq    int
	headers []string
}

// NewResponse starts a response echoing cseq.
func NewResponse(cseq int) *Response {
	return &Response{cseq: cseq}
}

// Add appends a header.
func (r *Response) Add(name, value string) {
	r.headers = append(r.headers, name+": "+value)
}

// AddChallengeResponse adds the Apple-Response header.
func (r *Response) AddChallengeResponse(signature string) {
	r.Add("Apple-Response", signature)
}

// AddPublic adds the supported method list.
func (r *Response) AddPublic() {
	r.Add("Public", strings.Join(PublicMethods, ", "))
}

// AddSetup adds the transport and session headers for SETUP.
func (r *Response) AddSetup(audioPort, controlPort int, session string) {
	r.Add("Transport", fmt.Sprintf("RTP/AVP/UDP;server_port=%d;control_port=%d", audioPort, controlPort))
	r.Add("Session", session)
}

// Bytes renders the response, blank line included.
func (r *Response) Bytes() []byte {
	lines := make([]string, 0, len(r.headers)+4)
	lines = append(lines, statusLine)
	lines = append(lines, r.headers...)
	lines = append(lines, fmt.Sprintf("CSeq: %d", r.cseq), "", "")
	return []byte(strings.Join(lines, "\r\n"))
}
