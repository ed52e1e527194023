package mermaid

import (
	"regexp"
	"strings"
)

// Kind identifies what a statement declares
type Kind uint8

const (
	// KindBlank is whitespace between terminators
	KindBlank Kind = iota
	// KindHeader is the "graph LR" / "flowchart TD" line
	KindHeader
	// KindNode is a node declaration such as A[Label]
	KindNode
	// KindMetadata is a %%A[Label]%% comment mirroring a node declaration
	KindMetadata
	// KindComment is any other %% comment
	KindComment
	// KindEdge is "A --> B"
	KindEdge
	// KindClick is "click A callback"
	KindClick
	// KindStyle is "style A fill:#fff,color:#000"
	KindStyle
	// KindRaw is any statement this package does not model
	KindRaw
)

// String returns the kind name for display
func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindHeader:
		return "header"
	case KindNode:
		return "node"
	case KindMetadata:
		return "metadata"
	case KindComment:
		return "comment"
	case KindEdge:
		return "edge"
	case KindClick:
		return "click"
	case KindStyle:
		return "style"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// StyleProp is one key:value pair of a style statement
type StyleProp struct {
	Key   string
	Value string
}

// Statement is a single parsed statement together with the exact text it was
// parsed from. Prefix and suffix are kept so serialization is lossless.
type Statement struct {
	Kind Kind

	// Header
	Direction string

	// Node, Metadata, Click and Style
	ID string

	// Node and Metadata
	Shape Shape
	Text  string

	// Edge
	From  string
	To    string
	Label string

	// Click
	Callback string

	// Style
	Props []StyleProp

	prefix string
	body   string
	suffix string
}

var (
	headerPattern = regexp.MustCompile(`^(graph|flowchart)(?:\s+([A-Za-z]{2}))?$`)
	edgePattern   = regexp.MustCompile(`^([A-Za-z0-9_][A-Za-z0-9_-]*?)\s*-->\s*(?:\|([^|]*)\|\s*)?([A-Za-z0-9_][A-Za-z0-9_-]*)$`)
	clickPattern  = regexp.MustCompile(`^click\s+([A-Za-z0-9_-]+)(?:\s+(\S+))?`)
	stylePattern  = regexp.MustCompile(`^style\s+([A-Za-z0-9_-]+)\s+(.+)$`)
)

// Body returns the statement text without surrounding whitespace or terminator
func (s *Statement) Body() string {
	return s.body
}

// Raw returns the exact source text of the statement
func (s *Statement) Raw() string {
	return s.prefix + s.body + s.suffix
}

// terminated reports whether the statement ends with a separator
func (s *Statement) terminated() bool {
	return strings.HasSuffix(s.suffix, ";") || strings.HasSuffix(s.suffix, "\n")
}

// setBody replaces the statement text, keeping its surrounding whitespace
func (s *Statement) setBody(body string) {
	prefix, suffix := s.prefix, s.suffix
	*s = classify(body)
	s.prefix = prefix
	s.suffix = suffix
}

// references reports whether the statement mentions id as an exact token
func (s *Statement) references(id string) bool {
	if id == "" {
		return false
	}
	switch s.Kind {
	case KindNode, KindMetadata, KindClick, KindStyle:
		return s.ID == id
	case KindEdge:
		return s.From == id || s.To == id
	case KindComment, KindRaw:
		for _, tok := range tokens(s.body) {
			if tok == id {
				return true
			}
		}
	}
	return false
}

// parsePiece splits one terminated piece of source into prefix, body and suffix
func parsePiece(raw string) *Statement {
	start := 0
	for start < len(raw) && isSpace(raw[start]) {
		start++
	}
	end := len(raw)
	for end > start && (isSpace(raw[end-1]) || raw[end-1] == ';' || raw[end-1] == '\n') {
		end--
	}
	st := classify(raw[start:end])
	st.prefix = raw[:start]
	st.suffix = raw[end:]
	return &st
}

// classify decodes a trimmed statement body
func classify(body string) Statement {
	st := Statement{body: body}
	switch {
	case body == "":
		st.Kind = KindBlank

	case strings.HasPrefix(body, "%%"):
		st.Kind = KindComment
		if len(body) >= 4 && strings.HasSuffix(body, "%%") {
			inner := strings.TrimSpace(body[2 : len(body)-2])
			if id, shape, text, ok := decodeNode(inner); ok && shape != ShapeNone {
				st.Kind = KindMetadata
				st.ID, st.Shape, st.Text = id, shape, text
			}
		}

	case headerPattern.MatchString(body):
		m := headerPattern.FindStringSubmatch(body)
		st.Kind = KindHeader
		st.Direction = m[2]

	case clickPattern.MatchString(body):
		m := clickPattern.FindStringSubmatch(body)
		st.Kind = KindClick
		st.ID, st.Callback = m[1], m[2]

	case stylePattern.MatchString(body):
		m := stylePattern.FindStringSubmatch(body)
		st.Kind = KindStyle
		st.ID = m[1]
		st.Props = parseStyleProps(m[2])

	case edgePattern.MatchString(body):
		m := edgePattern.FindStringSubmatch(body)
		st.Kind = KindEdge
		st.From, st.Label, st.To = m[1], m[2], m[3]

	default:
		if id, shape, text, ok := decodeNode(body); ok {
			st.Kind = KindNode
			st.ID, st.Shape, st.Text = id, shape, text
		} else {
			st.Kind = KindRaw
		}
	}
	return st
}

// decodeNode splits "<id><open><label><close>" into its parts.
// A bare identifier decodes with ShapeNone.
func decodeNode(s string) (id string, shape Shape, text string, ok bool) {
	n := 0
	for n < len(s) && isIdentChar(s[n]) {
		n++
	}
	if n == 0 {
		return "", ShapeNone, "", false
	}
	id, rest := s[:n], s[n:]
	if rest == "" {
		return id, ShapeNone, "", true
	}
	for _, candidate := range decodeOrder {
		open, close := candidate.Open(), candidate.Close()
		if len(rest) >= len(open)+len(close) && strings.HasPrefix(rest, open) && strings.HasSuffix(rest, close) {
			return id, candidate, labelUnescaper.Replace(rest[len(open) : len(rest)-len(close)]), true
		}
	}
	return "", ShapeNone, "", false
}

func parseStyleProps(s string) []StyleProp {
	var props []StyleProp
	for _, part := range strings.Split(s, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), ":")
		if !found || key == "" {
			continue
		}
		props = append(props, StyleProp{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)})
	}
	return props
}

func formatStyle(id string, props []StyleProp) string {
	parts := make([]string, 0, len(props))
	for _, p := range props {
		parts = append(parts, p.Key+":"+p.Value)
	}
	return "style " + id + " " + strings.Join(parts, ",")
}

// styleValue returns the value of key in props
func styleValue(props []StyleProp, key string) string {
	for _, p := range props {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// mergeStyle sets key to value, appending the key when missing. An empty
// value leaves the existing entry alone.
func mergeStyle(props []StyleProp, key, value string) []StyleProp {
	if value == "" {
		return props
	}
	for i := range props {
		if props[i].Key == key {
			props[i].Value = value
			return props
		}
	}
	return append(props, StyleProp{Key: key, Value: value})
}

// tokens splits text into identifier-like tokens
func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r > 0x7f || !isIdentChar(byte(r))
	})
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}
