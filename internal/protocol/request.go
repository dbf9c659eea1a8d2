package protocol

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"strings"

	"kvhttpd/internal/errors"
)

// DefaultMaxRequestBytes is the read cap used when none is configured.
const DefaultMaxRequestBytes = 512

var headTerminator = []byte("\r\n\r\n")

// Request is a parsed request together with the connection it arrived on.
// It is built once per connection and never mutated afterwards.
type Request struct {
	Method    string
	Path      string
	Version   string
	Headers   []Header
	Body      string
	PeerAddr  net.Addr
	LocalAddr net.Addr

	conn *Conn
}

// ReadRequest reads raw request bytes from r.
//
// Reads accumulate until the head terminator has been seen, the limit is
// reached, or the peer stops sending. Bytes past the limit are never read, so a
// message larger than the limit is truncated; a truncated head yields
// REQUEST_TOO_LARGE. Body bytes that arrive after the head terminator in a
// later segment are not waited for.
func ReadRequest(r io.Reader, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxRequestBytes
	}

	buf := make([]byte, limit)
	total := 0
	for total < limit {
		n, err := r.Read(buf[total:])
		total += n
		if bytes.Contains(buf[:total], headTerminator) {
			return buf[:total], nil
		}
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return buf[:total], nil
			}
			return buf[:total], errors.New(errors.ReadFailed, "failed to read request", err)
		}
	}

	return buf[:total], errors.Newf(errors.RequestTooLarge, "request head exceeds %d bytes", limit)
}

// Parse turns raw request bytes into a Request bound to conn.
func Parse(raw []byte, conn *Conn) (*Request, error) {
	text := strings.TrimRight(strings.ToValidUTF8(string(raw), "\uFFFD"), "\x00")

	if strings.TrimSpace(text) == "" || !strings.Contains(text, "\n") {
		return nil, errors.New(errors.EmptyRequest, "request is empty", nil)
	}

	head, body, found := strings.Cut(text, string(headTerminator))
	if !found {
		return nil, errors.New(errors.EmptyRequest, "request has no header terminator", nil)
	}

	lines := strings.Split(head, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	tokens := strings.Split(lines[0], " ")
	if len(tokens) != 3 || tokens[0] == "" || tokens[1] == "" || tokens[2] == "" {
		return nil, errors.Newf(errors.MalformedRequestLine, "malformed request line %q", lines[0])
	}

	headers := make([]Header, 0, len(lines)-1)
	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, errors.Newf(errors.MalformedHeader, "malformed header line %q", line)
		}
		headers = append(headers, NewHeader(key, value))
	}

	req := &Request{
		Method:  tokens[0],
		Path:    tokens[1],
		Version: tokens[2],
		Headers: headers,
		Body:    body,
		conn:    conn,
	}
	if conn != nil {
		req.PeerAddr = conn.peer
		req.LocalAddr = conn.local
	}
	return req, nil
}

// Header returns the first header whose key matches name, ignoring case.
func (r *Request) Header(name string) (Header, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Key, name) {
			return h, true
		}
	}
	return Header{}, false
}

// Conn returns the connection the response is written to.
func (r *Request) Conn() *Conn {
	return r.conn
}

// Respond writes a status-only response.
func (r *Request) Respond(code int) error {
	return r.conn.Respond(code)
}

// RespondWithBody writes a status line, text/plain headers and body.
func (r *Request) RespondWithBody(code int, body string) error {
	return r.conn.RespondWithBody(code, body)
}

// RespondWithFile streams the file at path as an attachment.
func (r *Request) RespondWithFile(path string) error {
	return r.conn.RespondWithFile(path)
}

// Display renders the request for debug output.
func (r *Request) Display() string {
	var headers strings.Builder
	for _, h := range r.Headers {
		headers.WriteString(h.String())
		headers.WriteByte('\n')
	}
	return fmt.Sprintf("Method: %s\nEndpoint: %s\nVersion: %s\nHeaders: %sBody: %s",
		r.Method, r.Path, r.Version, headers.String(), r.Body)
}
