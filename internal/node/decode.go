package node

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Dropped records a link that could not be decoded.
type Dropped struct {
	Index int // 0-based position in the input
	Link  string
	Err   error
}

// Decode parses one share link. A failure is always a *DecodeError.
func Decode(raw string) (ProxyNode, error) {
	raw = strings.TrimSpace(raw)
	l, err := splitLink(raw)
	if err != nil {
		return ProxyNode{}, &DecodeError{Reason: "split link", Cause: err}
	}
	scheme, ok := ParseScheme(l.scheme)
	if !ok {
		return ProxyNode{}, &DecodeError{Scheme: l.scheme, Reason: "no decoder", Cause: ErrUnsupportedScheme}
	}

	var n ProxyNode
	switch scheme {
	case SchemeShadowsocks:
		n, err = decodeShadowsocks(l)
	case SchemeTrojan:
		n, err = decodeTrojan(l)
	case SchemeVMess:
		n, err = decodeVMess(l)
	case SchemeVLESS:
		n, err = decodeVLESS(l)
	default:
		err = &DecodeError{Scheme: l.scheme, Reason: "no decoder", Cause: ErrUnsupportedScheme}
	}
	if err != nil {
		return ProxyNode{}, err
	}
	if strings.TrimSpace(n.Name) == "" {
		n.Name = net.JoinHostPort(n.Server, strconv.Itoa(n.Port))
	}
	return n, nil
}

// DecodeAll decodes every non-blank link, keeping input order. Failed links are
// reported in the second return value and never abort the batch. Names that
// repeat within the batch get a -NN suffix so each node stays addressable.
func DecodeAll(links []string) ([]ProxyNode, []Dropped) {
	nodes := make([]ProxyNode, 0, len(links))
	var dropped []Dropped
	seen := make(map[string]int, len(links))
	for i, raw := range links {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		n, err := Decode(line)
		if err != nil {
			dropped = append(dropped, Dropped{Index: i, Link: line, Err: err})
			continue
		}
		n.Name = uniqueName(seen, n.Name)
		nodes = append(nodes, n)
	}
	return nodes, dropped
}

func uniqueName(seen map[string]int, name string) string {
	index, ok := seen[name]
	if !ok {
		seen[name] = 0
		return name
	}
	for {
		index++
		candidate := fmt.Sprintf("%s-%02d", name, index)
		if _, taken := seen[candidate]; taken {
			continue
		}
		seen[name] = index
		seen[candidate] = 0
		return candidate
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeSubscription turns a subscription body into its share links. Bodies are
// normally base64; a body that is not base64 but already holds "://" links is
// accepted as plain text.
func DecodeSubscription(body []byte) ([]string, error) {
	body = bytes.TrimPrefix(body, utf8BOM)
	text := strings.TrimSpace(string(body))
	if text == "" {
		return nil, nil
	}
	decoded, err := decodeBase64Text(text)
	if err != nil {
		if !strings.Contains(text, "://") {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSubscription, err)
		}
		decoded = text
	}
	return splitLines(decoded), nil
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
