// Package handlers provides the endpoints every kvhttpd instance serves, and
// the file-serving endpoints declared in a route manifest.
package handlers

import (
	"fmt"
	"path/filepath"
	"strings"

	"kvhttpd/internal/cache"
	"kvhttpd/internal/protocol"
	"kvhttpd/internal/registry"
)

// Register adds the built-in endpoints to reg.
func Register(reg *registry.Registry) error {
	builtins := []registry.Handler{
		{
			Key:         "/addfloat",
			Methods:     []string{"POST"},
			Description: "Add an entry to the cache.",
			Func:        addFloat,
		},
		{
			Key:         "/cache",
			Methods:     []string{"POST"},
			Description: "Store a typed value: <kind> <key> <value>.",
			Properties:  []string{"cache"},
			Func:        setValue,
		},
		{
			Key:         "/cache/stats",
			Methods:     []string{"GET"},
			Description: "Number of cached entries.",
			Properties:  []string{"cache"},
			Func:        stats,
		},
		{
			Key:         "/routes",
			Methods:     []string{"GET", "HEAD"},
			Description: "This table.",
			Func:        routes(reg),
		},
		{
			Key:         "/health",
			Methods:     []string{"GET", "HEAD"},
			Description: "Liveness check.",
			Func:        health,
		},
	}

	for _, h := range builtins {
		if err := reg.Register(h); err != nil {
			return err
		}
	}
	return nil
}

// RegisterRoutes adds one file-serving endpoint per manifest route. Relative
// file paths are resolved against baseDir.
func RegisterRoutes(reg *registry.Registry, routes []registry.Route, baseDir string) error {
	for _, r := range routes {
		file := r.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, file)
		}

		props := append([]string{"static"}, r.Properties...)
		err := reg.Register(registry.Handler{
			Key:         r.Endpoint,
			Methods:     r.Methods,
			Description: r.Description,
			Properties:  props,
			Func:        ServeFile(file),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ServeFile returns a handler streaming path with the file response form.
func ServeFile(path string) registry.HandlerFunc {
	return func(req *protocol.Request, _ *cache.Cache) (string, error) {
		if err := req.RespondWithFile(path); err != nil {
			return "", err
		}
		return "served " + path, nil
	}
}

func addFloat(req *protocol.Request, c *cache.Cache) (string, error) {
	c.AddFloat64("test", 6.4)
	if err := req.RespondWithBody(200, "Added float."); err != nil {
		return "", err
	}
	return "Added float.", nil
}

// setValue parses "<kind> <key> <value>" from the body. Malformed input is a
// client error: it is answered with 400 and not reported as a handler failure.
func setValue(req *protocol.Request, c *cache.Cache) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(req.Body), " ", 3)
	if len(parts) != 3 || parts[1] == "" {
		msg := "Expected body: <kind> <key> <value>"
		return "rejected cache write", req.RespondWithBody(400, msg)
	}

	kind, key, text := cache.Kind(parts[0]), parts[1], parts[2]
	if err := c.Set(kind, key, text); err != nil {
		msg := fmt.Sprintf("Invalid %s value: %v", kind, err)
		return "rejected cache write", req.RespondWithBody(400, msg)
	}

	if err := req.RespondWithBody(200, "Stored "+key+"."); err != nil {
		return "", err
	}
	return fmt.Sprintf("stored %s (%s)", key, kind), nil
}

func stats(req *protocol.Request, c *cache.Cache) (string, error) {
	body := fmt.Sprintf("entries: %d", c.Len())
	if err := req.RespondWithBody(200, body); err != nil {
		return "", err
	}
	return body, nil
}

func routes(reg *registry.Registry) registry.HandlerFunc {
	return func(req *protocol.Request, _ *cache.Cache) (string, error) {
		if err := req.RespondWithBody(200, reg.Display()); err != nil {
			return "", err
		}
		return fmt.Sprintf("listed %d routes", reg.Len()), nil
	}
}

func health(req *protocol.Request, _ *cache.Cache) (string, error) {
	return "ok", req.RespondWithBody(200, "ok")
}
