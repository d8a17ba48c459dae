package parse

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"

	"logview/internal/engine"
)

// Parser turns one raw line into an engine submission. The origin names
// where the line came from (a file path or "stdin") and seeds the File
// tag when the line itself does not carry one.
type Parser interface {
	Name() string
	Parse(line, origin string) engine.Input
}

// Alias key lists, first hit wins. Lines produced by common loggers use
// different names for the same field.
var (
	messageKeys = []string{"message", "msg", "log"}
	levelKeys   = []string{"level", "lvl", "severity"}
	sourceKeys  = []string{"source", "service", "app", "logger"}
	typeKeys    = []string{"type", "category", "kind"}
	subtypeKeys = []string{"subtype", "action", "event"}
	fileKeys    = []string{"file", "caller"}
)

// JSON lines
type JSONParser struct {
	pool fastjson.ParserPool
}

func (p *JSONParser) Name() string { return "json" }

func (p *JSONParser) Parse(line, origin string) engine.Input {
	ps := p.pool.Get()
	defer p.pool.Put(ps)
	v, err := ps.Parse(line)
	if err != nil || v.Type() != fastjson.TypeObject {
		return plainInput(line, origin)
	}
	in, consumed := extractJSON(v, origin)
	details := map[string]any{}
	obj, _ := v.Object()
	obj.Visit(func(key []byte, val *fastjson.Value) {
		k := string(key)
		if _, ok := consumed[k]; ok {
			return
		}
		details[k] = detailValue(val)
	})
	// Wrapped payloads (e.g. container runtimes put the real event JSON
	// inside the message field). Merge the inner keys so they are
	// filterable like top-level ones.
	if inner := strings.TrimSpace(in.Message); strings.HasPrefix(inner, "{") && strings.HasSuffix(inner, "}") {
		ip := p.pool.Get()
		if iv, err := ip.Parse(inner); err == nil && iv.Type() == fastjson.TypeObject {
			mergeInner(&in, details, iv)
		}
		p.pool.Put(ip)
	}
	if len(details) > 0 {
		in.Details = details
	}
	if in.Message == "" {
		in.Message = strings.TrimSpace(line)
	}
	return in
}

// extractJSON pulls the aliased tag fields out of an object and reports
// which keys it consumed.
func extractJSON(v *fastjson.Value, origin string) (engine.Input, map[string]struct{}) {
	in := engine.Input{File: origin}
	consumed := map[string]struct{}{}
	take := func(keys []string) string {
		for _, k := range keys {
			if b := v.GetStringBytes(k); len(b) > 0 {
				consumed[k] = struct{}{}
				return string(b)
			}
		}
		return ""
	}
	in.Message = take(messageKeys)
	in.Level = take(levelKeys)
	in.Source = take(sourceKeys)
	in.Type = take(typeKeys)
	in.Subtype = take(subtypeKeys)
	if f := take(fileKeys); f != "" {
		in.File = f
	}
	return in, consumed
}

func mergeInner(in *engine.Input, details map[string]any, iv *fastjson.Value) {
	inner, innerConsumed := extractJSON(iv, "")
	if inner.Message != "" {
		in.Message = inner.Message
	}
	if in.Level == "" {
		in.Level = inner.Level
	}
	if in.Source == "" {
		in.Source = inner.Source
	}
	if in.Type == "" {
		in.Type = inner.Type
	}
	if in.Subtype == "" {
		in.Subtype = inner.Subtype
	}
	if inner.File != "" {
		in.File = inner.File
	}
	obj, _ := iv.Object()
	obj.Visit(func(key []byte, val *fastjson.Value) {
		k := string(key)
		if _, ok := innerConsumed[k]; ok {
			return
		}
		if _, ok := details[k]; !ok {
			details[k] = detailValue(val)
		}
	})
}

// detailValue copies a fastjson value out of the parser's arena so it
// stays valid after the parser is pooled again.
func detailValue(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b)
	case fastjson.TypeNumber:
		f, _ := v.Float64()
		return f
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeNull:
		return nil
	default:
		return json.RawMessage(v.MarshalTo(nil))
	}
}

// logfmt parser (supports quoted values)
type LogfmtParser struct{}

func (p *LogfmtParser) Name() string { return "logfmt" }

func (p *LogfmtParser) Parse(line, origin string) engine.Input {
	pairs := splitLogfmt(line)
	if len(pairs) == 0 {
		return plainInput(line, origin)
	}
	in := engine.Input{File: origin}
	take := func(keys []string) string {
		for _, k := range keys {
			if v, ok := pairs[k]; ok {
				delete(pairs, k)
				return v
			}
		}
		return ""
	}
	in.Message = take(messageKeys)
	in.Level = take(levelKeys)
	in.Source = take(sourceKeys)
	in.Type = take(typeKeys)
	in.Subtype = take(subtypeKeys)
	if f := take(fileKeys); f != "" {
		in.File = f
	}
	if len(pairs) > 0 {
		details := make(map[string]any, len(pairs))
		for k, v := range pairs {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				details[k] = n
			} else {
				details[k] = v
			}
		}
		in.Details = details
	}
	if in.Message == "" {
		in.Message = strings.TrimSpace(line)
	}
	return in
}

func splitLogfmt(s string) map[string]string {
	res := map[string]string{}
	cur := ""
	inQuote := false
	key := ""
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			inQuote = !inQuote
			continue
		}
		if !inQuote && (c == ' ' || c == '\t') {
			if key != "" {
				res[key] = cur
				key, cur = "", ""
			}
			continue
		}
		if !inQuote && c == '=' && key == "" {
			key = cur
			cur = ""
			continue
		}
		cur += string(c)
	}
	if key != "" {
		res[key] = cur
	}
	return res
}

// Plain text fallback
type PlainParser struct{}

func (p *PlainParser) Name() string { return "plain" }

func (p *PlainParser) Parse(line, origin string) engine.Input {
	return plainInput(line, origin)
}

func plainInput(line, origin string) engine.Input {
	return engine.Input{Message: strings.TrimSpace(line), File: origin}
}

var reLogfmtKV = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

// Sniff picks a parser for the session from a small sample of lines.
// Majority vote; ties and unknown shapes fall back to plain text.
func Sniff(sample []string) Parser {
	var p fastjson.Parser
	lines, jsonCount, logfmtCount := 0, 0, 0
	for _, l := range sample {
		s := strings.TrimSpace(l)
		if s == "" {
			continue
		}
		lines++
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			if _, err := p.Parse(s); err == nil {
				jsonCount++
				continue
			}
		}
		if reLogfmtKV.MatchString(s) && strings.Contains(s, "=") {
			logfmtCount++
		}
	}
	switch {
	case lines == 0:
		return &PlainParser{}
	case jsonCount*2 >= lines:
		return &JSONParser{}
	case logfmtCount*2 >= lines:
		return &LogfmtParser{}
	}
	return &PlainParser{}
}
