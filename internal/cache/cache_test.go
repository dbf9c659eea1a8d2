package cache

import (
	"math"
	"reflect"
	"testing"
)

func TestCache_AddAndGet(t *testing.T) {
	c := New()
	c.AddInt32("i32", 7).
		AddInt64("i64", 1<<40).
		AddFloat64("f", 6.4).
		AddString("s", "hello").
		AddStrings("ss", []string{"a", "b"}).
		AddInt32s("i32s", []int32{1, 2}).
		AddInt64s("i64s", []int64{3, 4}).
		AddFloat64s("fs", []float64{0.5})

	if c.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", c.Len())
	}

	if v, ok := c.Get("i32"); !ok || v.Kind != KindInt32 {
		t.Errorf("Get(i32) = %+v, %v", v, ok)
	} else if x, _ := v.Int32(); x != 7 {
		t.Errorf("Int32() = %d", x)
	}
	if v, _ := c.Get("i64"); v.Kind != KindInt64 {
		t.Errorf("i64 kind = %s", v.Kind)
	}
	if v, _ := c.Get("f"); v.Kind != KindFloat64 {
		t.Errorf("f kind = %s", v.Kind)
	} else if x, _ := v.Float64(); x != 6.4 {
		t.Errorf("Float64() = %v", x)
	}
	if v, _ := c.Get("ss"); v.Kind != KindStrings {
		t.Errorf("ss kind = %s", v.Kind)
	} else if x, _ := v.Strings(); !reflect.DeepEqual(x, []string{"a", "b"}) {
		t.Errorf("Strings() = %v", x)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should not be found")
	}
}

func TestCache_LastWriteWins(t *testing.T) {
	c := New()
	c.AddInt32("k", 1)
	c.AddString("k", "now a string")

	v, _ := c.Get("k")
	if v.Kind != KindString {
		t.Fatalf("Kind = %s, want %s", v.Kind, KindString)
	}
	if _, ok := v.Int32(); ok {
		t.Error("old int32 should be gone")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_SlicesAreCopied(t *testing.T) {
	c := New()
	in := []int64{1, 2, 3}
	c.AddInt64s("k", in)
	in[0] = 99

	v, _ := c.Get("k")
	got, _ := v.Int64s()
	if got[0] != 1 {
		t.Errorf("stored slice aliased caller slice: %v", got)
	}
}

func TestCache_KeysAndEntries(t *testing.T) {
	c := New()
	c.AddString("b", "2").AddString("a", "1").AddString("c", "3")

	if got := c.Keys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Keys() = %v", got)
	}

	entries := c.Entries()
	if len(entries) != 3 || entries[0].Key != "a" || entries[2].Key != "c" {
		t.Errorf("Entries() = %+v", entries)
	}

	other := New()
	other.AddInt32("stale", 1)
	other.Restore(entries)
	if !reflect.DeepEqual(other.Keys(), []string{"a", "b", "c"}) {
		t.Errorf("Restore() keys = %v", other.Keys())
	}
}

func TestValue_EncodeDecode(t *testing.T) {
	c := New()
	c.AddInt32("a", -5).
		AddInt64("b", 9007199254740993).
		AddFloat64("c", 3.25).
		AddString("d", `quote "x"`).
		AddStrings("e", []string{"x", "y"}).
		AddInt32s("f", []int32{1}).
		AddInt64s("g", []int64{}).
		AddFloat64s("h", []float64{1.5, -2})

	for _, e := range c.Entries() {
		t.Run(e.Key, func(t *testing.T) {
			raw, err := e.Value.Encode()
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := Decode(e.Value.Kind, raw)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(got, e.Value) {
				t.Errorf("Decode(Encode()) = %#v, want %#v", got, e.Value)
			}
		})
	}
}

func TestValue_EncodeNonFinite(t *testing.T) {
	c := New()
	c.AddFloat64("nan", math.NaN()).
		AddFloat64("inf", math.Inf(1)).
		AddFloat64s("mixed", []float64{math.Inf(-1), 2.5})

	for _, e := range c.Entries() {
		raw, err := e.Value.Encode()
		if err != nil {
			t.Fatalf("Encode(%s) error = %v", e.Key, err)
		}
		got, err := Decode(e.Value.Kind, raw)
		if err != nil {
			t.Fatalf("Decode(%s, %q) error = %v", e.Key, raw, err)
		}

		switch e.Key {
		case "nan":
			if f, _ := got.Float64(); !math.IsNaN(f) {
				t.Errorf("nan decoded as %v", f)
			}
		case "inf":
			if f, _ := got.Float64(); !math.IsInf(f, 1) {
				t.Errorf("inf decoded as %v", f)
			}
		case "mixed":
			fs, _ := got.Float64s()
			if len(fs) != 2 || !math.IsInf(fs[0], -1) || fs[1] != 2.5 {
				t.Errorf("mixed decoded as %v", fs)
			}
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode("complex128", "1"); err == nil {
		t.Error("unknown kind should fail")
	}
	if _, err := Decode(KindInt32, `"nope"`); err == nil {
		t.Error("mismatched JSON should fail")
	}
	if _, err := Decode(KindFloat64, "x"); err == nil {
		t.Error("non-numeric float should fail")
	}
	if _, err := Decode(KindFloat64s, "1,2"); err == nil {
		t.Error("float list without brackets should fail")
	}
}

func TestCache_Set(t *testing.T) {
	tests := []struct {
		kind    Kind
		text    string
		wantErr bool
		check   func(Value) bool
	}{
		{KindInt32, "42", false, func(v Value) bool { x, _ := v.Int32(); return x == 42 }},
		{KindInt32, "99999999999", true, nil},
		{KindInt64, " -3 ", false, func(v Value) bool { x, _ := v.Int64(); return x == -3 }},
		{KindFloat64, "6.4", false, func(v Value) bool { x, _ := v.Float64(); return x == 6.4 }},
		{KindFloat64, "abc", true, nil},
		{KindString, "two words", false, func(v Value) bool { x, _ := v.Str(); return x == "two words" }},
		{KindStrings, "a, b,c", false, func(v Value) bool { x, _ := v.Strings(); return reflect.DeepEqual(x, []string{"a", "b", "c"}) }},
		{KindInt32s, "1,2,3", false, func(v Value) bool { x, _ := v.Int32s(); return reflect.DeepEqual(x, []int32{1, 2, 3}) }},
		{KindInt64s, "", false, func(v Value) bool { x, _ := v.Int64s(); return len(x) == 0 }},
		{KindFloat64, "NaN", true, nil},
		{KindFloat64, "+Inf", true, nil},
		{KindFloat64, "-inf", true, nil},
		{KindFloat64s, "1.5,x", true, nil},
		{KindFloat64s, "1.5,Inf", true, nil},
		{"bool", "true", true, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.text, func(t *testing.T) {
			c := New()
			err := c.Set(tt.kind, "k", tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if c.Len() != 0 {
					t.Error("failed Set should not store anything")
				}
				return
			}
			v, ok := c.Get("k")
			if !ok || v.Kind != tt.kind || !tt.check(v) {
				t.Errorf("Get(k) = %#v", v)
			}
		})
	}
}
