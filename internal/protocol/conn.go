package protocol

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"kvhttpd/internal/errors"
	"kvhttpd/internal/mime"
)

// fileChunkSize is the copy granularity for file responses.
const fileChunkSize = 1024

// Conn is the write side of one accepted connection. Exactly one response form
// may be written through it; later forms fail with RESPONSE_ALREADY_WRITTEN.
type Conn struct {
	mu      sync.Mutex
	w       io.Writer
	peer    net.Addr
	local   net.Addr
	written bool
	status  int
}

// NewConn wraps w as a response connection with the given addresses.
func NewConn(w io.Writer, peer, local net.Addr) *Conn {
	return &Conn{w: w, peer: peer, local: local}
}

// WrapNetConn wraps an accepted network connection.
func WrapNetConn(c net.Conn) *Conn {
	return NewConn(c, c.RemoteAddr(), c.LocalAddr())
}

// Written reports whether a response form has been used.
func (c *Conn) Written() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written
}

// Status returns the status code of the written response, or 0.
func (c *Conn) Status() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Respond writes "HTTP/1.1 {code}\r\n\r\n".
func (c *Conn) Respond(code int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.claim(code); err != nil {
		return err
	}
	return c.send(fmt.Sprintf("HTTP/1.1 %d\r\n\r\n", code))
}

// RespondWithBody writes a status line, Content-Length, a text/plain
// Content-Type and the body.
func (c *Conn) RespondWithBody(code int, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.claim(code); err != nil {
		return err
	}
	return c.send(bodyResponse(code, body))
}

// RespondWithFile streams the regular file at path as an attachment. A path
// that is not a regular file gets a 404 with body "File not found".
//
// If reading fails after the 200 header went out, nothing more is written and
// STREAM_ABORTED is returned; the caller should drop the connection so the
// client sees a body shorter than Content-Length.
func (c *Conn) RespondWithFile(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		if err := c.claim(404); err != nil {
			return err
		}
		return c.send(bodyResponse(404, "File not found"))
	}

	f, err := os.Open(path)
	if err != nil {
		if err := c.claim(500); err != nil {
			return err
		}
		return c.send(bodyResponse(500, fmt.Sprintf("Error opening file: %v", err)))
	}
	defer f.Close()

	if err := c.claim(200); err != nil {
		return err
	}
	return c.stream(filepath.Base(path), info.Size(), f)
}

// claim marks the connection as answered. Callers hold c.mu.
func (c *Conn) claim(code int) error {
	if c.written {
		return errors.Newf(errors.ResponseAlreadyWritten, "response %d already written", c.status)
	}
	c.written = true
	c.status = code
	return nil
}

func (c *Conn) send(s string) error {
	bw := bufio.NewWriter(c.w)
	if _, err := bw.WriteString(s); err != nil {
		return errors.New(errors.WriteFailed, "failed to write response", err)
	}
	if err := bw.Flush(); err != nil {
		return errors.New(errors.WriteFailed, "failed to flush response", err)
	}
	return nil
}

// stream writes the file headers and copies r in fixed-size chunks.
func (c *Conn) stream(name string, size int64, r io.Reader) error {
	head := fmt.Sprintf("HTTP/1.1 200\r\nContent-Length: %d\r\nContent-Type: %s\r\nContent-Disposition: attachment; filename=\"%s\"\r\n\r\n",
		size, mime.ForPath(name), strings.ReplaceAll(name, `"`, `\"`))
	if err := c.send(head); err != nil {
		return err
	}

	bw := bufio.NewWriterSize(c.w, fileChunkSize)
	chunk := make([]byte, fileChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if _, werr := bw.Write(chunk[:n]); werr != nil {
				return errors.New(errors.WriteFailed, "failed to write file chunk", werr)
			}
		}
		if err == nil {
			continue
		}
		if stderrors.Is(err, io.EOF) {
			break
		}
		if stderrors.Is(err, syscall.EINTR) {
			continue
		}
		_ = bw.Flush()
		return errors.New(errors.StreamAborted, "failed to read "+name, err)
	}

	if err := bw.Flush(); err != nil {
		return errors.New(errors.WriteFailed, "failed to flush file", err)
	}
	return nil
}

func bodyResponse(code int, body string) string {
	return fmt.Sprintf("HTTP/1.1 %d\r\nContent-Length: %d\r\nContent-Type: text/plain\r\n\r\n%s",
		code, len(body), body)
}
