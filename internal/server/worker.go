package server

import (
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"kvhttpd/internal/errors"
	"kvhttpd/internal/protocol"
	"kvhttpd/internal/registry"
)

// serveConn handles exactly one request on conn and closes it.
func (s *Server) serveConn(conn net.Conn, accepted time.Time) {
	defer conn.Close()

	logger := s.logger.With("conn", uuid.New().String())
	w := protocol.WrapNetConn(conn)

	raw, err := protocol.ReadRequest(conn, s.cfg.MaxRequestBytes)
	if err != nil {
		if errors.HasCode(err, errors.RequestTooLarge) {
			logger.Warn("Rejected oversized request",
				"client", addrString(conn.RemoteAddr()),
				"limit", s.cfg.MaxRequestBytes,
			)
			s.reply(logger, w, 400)
			return
		}
		logger.Warn("Failed to read request",
			"client", addrString(conn.RemoteAddr()),
			"error", err.Error(),
		)
		return
	}

	req, err := protocol.Parse(raw, w)
	if err != nil {
		if errors.HasCode(err, errors.EmptyRequest) {
			logger.Debug("Closing empty connection", "client", addrString(conn.RemoteAddr()))
			return
		}
		logger.Warn("Rejected malformed request",
			"client", addrString(conn.RemoteAddr()),
			"error", err.Error(),
		)
		s.reply(logger, w, 400)
		return
	}

	logger.Debug("Parsed request", "request", req.Display())

	s.dispatch(logger, req)

	logger.Info("Received request",
		"client", addrString(req.PeerAddr),
		"local", addrString(req.LocalAddr)+req.Path,
		"method", req.Method,
		"status", w.Status(),
		"elapsed", FormatDuration(time.Since(accepted)),
	)
}

// dispatch routes req and writes the 404/405/500 responses the handler does
// not write itself.
func (s *Server) dispatch(logger *slog.Logger, req *protocol.Request) {
	h, ok := s.registry.Lookup(req.Path)
	if !ok {
		s.reply(logger, req.Conn(), 404)
		return
	}

	if !h.Allows(req.Method) {
		body := "Unsupported method. Supported methods: " + strings.Join(h.AllowedMethods(), ", ")
		if err := req.RespondWithBody(405, body); err != nil {
			logger.Warn("Failed to write response", "status", 405, "error", err.Error())
		}
		return
	}

	msg, err := s.invoke(logger, h, req)
	if err != nil {
		logger.Error("Handler failed",
			"endpoint", h.Key,
			"code", string(errors.CodeOf(err)),
			"error", err.Error(),
		)
		// A 200 header already on the wire cannot be replaced; the
		// connection is closed with a short body instead.
		if !req.Conn().Written() {
			s.reply(logger, req.Conn(), 500)
		}
		return
	}

	logger.Info("Handler completed", "endpoint", h.Key, "message", msg)
}

// invoke calls the handler while holding the cache lock. A panic is turned
// into a HANDLER_FAILED error.
func (s *Server) invoke(logger *slog.Logger, h *registry.Handler, req *protocol.Request) (msg string, err error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic recovered",
				"endpoint", h.Key,
				"error", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = errors.Newf(errors.HandlerFailed, "handler %s panicked: %v", h.Key, r)
		}
	}()

	return h.Func(req, s.cache)
}

func (s *Server) reply(logger *slog.Logger, w *protocol.Conn, code int) {
	if err := w.Respond(code); err != nil {
		logger.Warn("Failed to write response", "status", code, "error", err.Error())
	}
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}
