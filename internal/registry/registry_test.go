package registry

import (
	"reflect"
	"strings"
	"testing"

	"kvhttpd/internal/cache"
	"kvhttpd/internal/errors"
	"kvhttpd/internal/protocol"
)

func noop(*protocol.Request, *cache.Cache) (string, error) { return "ok", nil }

func TestHandler_AllowedMethods(t *testing.T) {
	open := &Handler{Key: "/open", Func: noop}
	for _, m := range []string{"GET", "HEAD", "POST", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH"} {
		if !open.Allows(m) {
			t.Errorf("handler without verb set should allow %s", m)
		}
	}
	if open.Allows("BREW") {
		t.Error("non-standard verb should not be allowed")
	}
	if open.Allows("get") {
		t.Error("verbs are case-sensitive")
	}

	restricted := &Handler{Key: "/post", Methods: []string{"POST"}, Func: noop}
	if !reflect.DeepEqual(restricted.AllowedMethods(), []string{"POST"}) {
		t.Errorf("AllowedMethods() = %v", restricted.AllowedMethods())
	}
	for _, m := range []string{"GET", "HEAD", "PUT", "DELETE", "PATCH"} {
		if restricted.Allows(m) {
			t.Errorf("restricted handler should reject %s", m)
		}
	}
}

func TestHandler_EmptyMethodsAcceptsAll(t *testing.T) {
	h := &Handler{Key: "/empty", Methods: []string{}, Func: noop}
	if !reflect.DeepEqual(h.AllowedMethods(), StandardMethods) {
		t.Errorf("AllowedMethods() = %v, want %v", h.AllowedMethods(), StandardMethods)
	}
	if !h.Allows("GET") || !h.Allows("PATCH") {
		t.Error("empty verb set should allow every standard verb")
	}

	r := New()
	r.MustRegister(*h)
	got, _ := r.Lookup("/empty")
	if got.Methods != nil {
		t.Errorf("registered Methods = %#v, want nil", got.Methods)
	}
	if !strings.Contains(r.Display(), "| None\n") {
		t.Errorf("Display() should show None for an empty verb set:\n%s", r.Display())
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()
	if err := r.Register(Handler{Key: "/addfloat", Methods: []string{"POST"}, Func: noop}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		path  string
		found bool
	}{
		{"/addfloat", true},
		{"/addfloat/", false},
		{"/ADDFLOAT", false},
		{"/addfloat?x=1", false},
		{"/", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, ok := r.Lookup(tt.path)
			if ok != tt.found {
				t.Errorf("Lookup(%q) found = %v, want %v", tt.path, ok, tt.found)
			}
		})
	}
}

func TestRegistry_RegisterCopiesHandler(t *testing.T) {
	r := New()
	h := Handler{Key: "/a", Description: "before", Func: noop}
	r.MustRegister(h)
	h.Description = "after"

	got, _ := r.Lookup("/a")
	if got.Description != "before" {
		t.Errorf("registered entry changed with caller copy: %q", got.Description)
	}
}

func TestRegistry_Errors(t *testing.T) {
	r := New()
	r.MustRegister(Handler{Key: "/a", Func: noop})

	err := r.Register(Handler{Key: "/a", Func: noop})
	if !errors.HasCode(err, errors.DuplicateEndpoint) {
		t.Errorf("duplicate error = %v", err)
	}

	err = r.Register(Handler{Key: "/nil"})
	if !errors.HasCode(err, errors.InvalidHandler) {
		t.Errorf("nil callback error = %v", err)
	}

	r.Seal()
	err = r.Register(Handler{Key: "/late", Func: noop})
	if !errors.HasCode(err, errors.RegistrySealed) {
		t.Errorf("sealed error = %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	r := New()
	r.MustRegister(Handler{Key: "/a", Func: noop})

	defer func() {
		if recover() == nil {
			t.Error("MustRegister should panic on duplicate")
		}
	}()
	r.MustRegister(Handler{Key: "/a", Func: noop})
}

func TestRegistry_HandlersOrder(t *testing.T) {
	r := New()
	for _, k := range []string{"/c", "/a", "/b"} {
		r.MustRegister(Handler{Key: k, Func: noop})
	}

	var keys []string
	for _, h := range r.Handlers() {
		keys = append(keys, h.Key)
	}
	if !reflect.DeepEqual(keys, []string{"/c", "/a", "/b"}) {
		t.Errorf("Handlers() order = %v", keys)
	}
}

func TestRegistry_Display(t *testing.T) {
	r := New()
	r.MustRegister(Handler{
		Key:         "/addfloat",
		Methods:     []string{"POST"},
		Description: "Add an entry to the cache.",
		Func:        noop,
	})
	r.MustRegister(Handler{
		Key:        "/x",
		Properties: []string{"static", "public"},
		Func:       noop,
	})

	want := strings.Join([]string{
		"Key       | Properties     | Description                | Methods",
		"--------- | -------------- | -------------------------- | --------",
		"/addfloat |                | Add an entry to the cache. | POST",
		"/x        | static, public | No description provided.   | None",
		"",
	}, "\n")

	if got := r.Display(); got != want {
		t.Errorf("Display() =\n%s\nwant\n%s", got, want)
	}
}
