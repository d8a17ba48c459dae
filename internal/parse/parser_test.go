package parse

import (
	"encoding/json"
	"testing"
)

func TestJSONParser(t *testing.T) {
	p := &JSONParser{}
	in := p.Parse(`{"ts":"2025-01-01T12:00:00Z","level":"info","msg":"ok","region":"eu"}`, "stdin")
	if in.Message != "ok" {
		t.Fatalf("message: %q", in.Message)
	}
	if in.Level != "info" {
		t.Fatalf("level: %q", in.Level)
	}
	if in.File != "stdin" {
		t.Fatalf("file: %q", in.File)
	}
	if in.Details["region"] != "eu" {
		t.Fatalf("details: %v", in.Details)
	}
	if _, ok := in.Details["msg"]; ok {
		t.Fatalf("consumed key leaked into details")
	}
}

func TestJSONParserAliases(t *testing.T) {
	p := &JSONParser{}
	in := p.Parse(`{"log":"boom","severity":"error","service":"api","kind":"http","action":"GET"}`, "stdin")
	if in.Message != "boom" || in.Level != "error" || in.Source != "api" || in.Type != "http" || in.Subtype != "GET" {
		t.Fatalf("aliases: %+v", in)
	}
}

func TestJSONParserNumericDetail(t *testing.T) {
	p := &JSONParser{}
	in := p.Parse(`{"msg":"ok","latency_ms":12.5,"retry":true}`, "stdin")
	if in.Details["latency_ms"] != 12.5 {
		t.Fatalf("latency: %v", in.Details["latency_ms"])
	}
	if in.Details["retry"] != true {
		t.Fatalf("retry: %v", in.Details["retry"])
	}
}

func TestJSONParserWrappedPayload(t *testing.T) {
	inner := `{"msg":"inner event","level":"warn","request_id":"r1"}`
	b, err := json.Marshal(map[string]string{"log": inner})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	p := &JSONParser{}
	in := p.Parse(string(b), "stdin")
	if in.Message != "inner event" {
		t.Fatalf("message: %q", in.Message)
	}
	if in.Level != "warn" {
		t.Fatalf("level: %q", in.Level)
	}
	if in.Details["request_id"] != "r1" {
		t.Fatalf("details: %v", in.Details)
	}
}

func TestJSONParserBadLineFallsBack(t *testing.T) {
	p := &JSONParser{}
	in := p.Parse("  not json at all  ", "app.log")
	if in.Message != "not json at all" {
		t.Fatalf("message: %q", in.Message)
	}
	if in.File != "app.log" {
		t.Fatalf("file: %q", in.File)
	}
}

func TestLogfmtParser(t *testing.T) {
	p := &LogfmtParser{}
	in := p.Parse(`time=2025-01-01T12:00:00Z level=warn msg="disk low" region=eu latency=12.5`, "stdin")
	if in.Message != "disk low" {
		t.Fatalf("message: %q", in.Message)
	}
	if in.Level != "warn" {
		t.Fatalf("level: %q", in.Level)
	}
	if in.Details["region"] != "eu" {
		t.Fatalf("region: %v", in.Details["region"])
	}
	if in.Details["latency"] != 12.5 {
		t.Fatalf("latency: %v", in.Details["latency"])
	}
}

func TestLogfmtValueWithEquals(t *testing.T) {
	p := &LogfmtParser{}
	in := p.Parse(`msg=ok query=a=b`, "stdin")
	if in.Details["query"] != "a=b" {
		t.Fatalf("query: %v", in.Details["query"])
	}
}

func TestPlainParser(t *testing.T) {
	p := &PlainParser{}
	in := p.Parse("  anything goes here  ", "stdin")
	if in.Message != "anything goes here" {
		t.Fatalf("message: %q", in.Message)
	}
	if in.Details != nil {
		t.Fatalf("details: %v", in.Details)
	}
}

func TestSniff(t *testing.T) {
	cases := []struct {
		name   string
		sample []string
		want   string
	}{
		{"json", []string{`{"msg":"a"}`, `{"msg":"b"}`, "noise"}, "json"},
		{"logfmt", []string{`level=info msg=a`, `level=warn msg=b`}, "logfmt"},
		{"plain", []string{"just text", "more text"}, "plain"},
		{"empty", nil, "plain"},
	}
	for _, c := range cases {
		if got := Sniff(c.sample).Name(); got != c.want {
			t.Fatalf("%s: sniffed %q", c.name, got)
		}
	}
}
