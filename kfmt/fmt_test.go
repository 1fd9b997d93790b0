package kfmt

import (
	"bytes"
	"testing"
)

func TestFprintf(t *testing.T) {
	specs := []struct {
		format string
		args   []interface{}
		exp    string
	}{
		{"no args", nil, "no args"},
		{"%t", []interface{}{true}, "true"},
		{"%t", []interface{}{false}, "false"},
		{"%s arg", []interface{}{"STRING"}, "STRING arg"},
		{"%s arg", []interface{}{[]byte("BYTES")}, "BYTES arg"},
		{"'%4s'", []interface{}{"ABC"}, "' ABC'"},
		{"'%4s'", []interface{}{"ABCDE"}, "'ABCDE'"},
		{"uint: %d", []interface{}{uint8(10)}, "uint: 10"},
		{"uint: %o", []interface{}{uint16(0777)}, "uint: 777"},
		{"uint: 0x%x", []interface{}{uint32(0xbadf00d)}, "uint: 0xbadf00d"},
		{"'%10d'", []interface{}{uint64(123)}, "'       123'"},
		{"'%4o'", []interface{}{uint64(0777)}, "'0777'"},
		{"int: %d", []interface{}{int32(-42)}, "int: -42"},
		{"'%5d'", []interface{}{int32(-42)}, "'  -42'"},
		{"missing: %d", nil, "missing: (MISSING)"},
		{"wrong: %d", []interface{}{"oops"}, "wrong: %!(WRONGTYPE)"},
		{"%%d literal", nil, "%d literal"},
		{"extra", []interface{}{1}, "extra%!(EXTRA)"},
	}

	for _, spec := range specs {
		var buf bytes.Buffer
		Fprintf(&buf, spec.format, spec.args...)
		if got := buf.String(); got != spec.exp {
			t.Errorf("Fprintf(%q, %v): expected %q; got %q", spec.format, spec.args, spec.exp, got)
		}
	}
}

func TestSetOutputSinkFlushesEarlyBuffer(t *testing.T) {
	defer func() { outputSink = nil; earlyPrintBuffer = ringBuffer{} }()

	outputSink = nil
	Printf("buffered")

	var buf bytes.Buffer
	SetOutputSink(&buf)

	if got := buf.String(); got != "buffered" {
		t.Fatalf("expected flushed early output %q; got %q", "buffered", got)
	}

	Printf(" live")
	if got := buf.String(); got != "buffered live" {
		t.Fatalf("expected %q; got %q", "buffered live", got)
	}
}
