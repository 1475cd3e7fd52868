package rtsp

import (
	"fmt"
	"strconv"
	"strings"
)

// Header names the control channel reads. Other headers are ignored.
const (
	HeaderActiveRemote   = "Active-Remote"
	HeaderAppleChallenge = "Apple-Challenge"
	HeaderContentLength  = "Content-Length"
	HeaderContentType    = "Content-Type"
	HeaderCSeq           = "CSeq"
	HeaderDACPID         = "DACP-ID"
	HeaderRTPInfo        = "RTP-Info"
)

var knownHeaders = []string{
	HeaderActiveRemote,
	HeaderAppleChallenge,
	HeaderContentLength,
	HeaderContentType,
	HeaderCSeq,
	HeaderDACPID,
	HeaderRTPInfo,
}

// Request methods with behavior attached.
const (
	MethodOptions      = "OPTIONS"
	MethodAnnounce     = "ANNOUNCE"
	MethodSetup        = "SETUP"
	MethodRecord       = "RECORD"
	MethodFlush        = "FLUSH"
	MethodTeardown     = "TEARDOWN"
	MethodSetParameter = "SET_PARAMETER"
	MethodGetParameter = "GET_PARAMETER"
)

// Request is a parsed control request.
type Request struct {
	Method  string
	URI     string
	Headers map[string]string
	Body    []byte
}

// ParseRequest tokenizes a header block. The request line's first token is
// the method. Header names are matched case-insensitively against the known
// set and stored under their canonical spelling; unknown headers are
// dropped. A missing header is simply absent.
func ParseRequest(block []byte) (*Request, error) {
	lines := strings.Split(string(block), "\n")

	req := &Request{Headers: make(map[string]string)}
	first := true
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if first {
			if strings.TrimSpace(line) == "" {
				continue
			}
			fields := strings.Fields(line)
			req.Method = fields[0]
			if len(fields) > 1 {
				req.URI = fields[1]
			}
			first = false
			continue
		}
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if canonical, known := canonicalHeader(strings.TrimSpace(name)); known {
			req.Headers[canonical] = strings.TrimSpace(value)
		}
	}

	if req.Method == "" {
		return nil, ErrMalformedRequest
	}
	return req, nil
}

func canonicalHeader(name string) (string, bool) {
	for _, h := range knownHeaders {
		if strings.EqualFold(h, name) {
			return h, true
		}
	}
	return "", false
}

// Header returns the value of a known header, or "".
func (r *Request) Header(name string) string {
	return r.Headers[name]
}

// CSeq returns the request's sequence number, 0 when absent or invalid.
func (r *Request) CSeq() int {
	n, err := strconv.Atoi(r.Header(HeaderCSeq))
	if err != nil {
		return 0
	}
	return n
}

// ContentType returns the media type without parameters.
func (r *Request) ContentType() string {
	t, _, _ := strings.Cut(r.Header(HeaderContentType), ";")
	return strings.ToLower(strings.TrimSpace(t))
}

// ContentLength returns the declared body length, 0 when absent.
func (r *Request) ContentLength() (int, error) {
	v := r.Header(HeaderContentLength)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: Content-Length %q", ErrMalformedRequest, v)
	}
	return n, nil
}

// RemoteToken returns the Active-Remote token and DACP-ID when both are set.
func (r *Request) RemoteToken() (token, id string, ok bool) {
	token = r.Header(HeaderActiveRemote)
	id = r.Header(HeaderDACPID)
	return token, id, token != "" && id != ""
}
