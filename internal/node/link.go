package node

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// link holds the raw pieces of scheme://userinfo@host:port/path?query#fragment.
// userinfo is kept undecoded; fragment is percent-decoded.
type link struct {
	scheme   string
	body     string // everything after "://", fragment removed
	userinfo string
	hasUser  bool
	host     string
	port     string
	query    url.Values
	fragment string
}

func splitLink(raw string) (link, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return link{}, errors.New("missing scheme separator")
	}
	l := link{scheme: strings.ToLower(scheme)}

	rest, frag, _ := strings.Cut(rest, "#")
	l.body = rest
	l.fragment = unescapeLenient(frag)

	rest, rawQuery, _ := strings.Cut(rest, "?")
	// query errors only drop the malformed pairs
	l.query, _ = url.ParseQuery(rawQuery)

	// standard base64 userinfo may carry '/', so find '@' before cutting the path
	authority := rest
	if at := strings.LastIndexByte(authority, '@'); at >= 0 {
		l.userinfo = authority[:at]
		l.hasUser = true
		authority = authority[at+1:]
	}
	if idx := strings.IndexByte(authority, '/'); idx >= 0 {
		authority = authority[:idx]
	}
	host, port, err := splitHostPort(authority)
	if err != nil {
		return link{}, err
	}
	l.host = host
	l.port = port
	return l, nil
}

// splitHostPort accepts host, host:port, [v6] and [v6]:port.
func splitHostPort(hostport string) (string, string, error) {
	if hostport == "" {
		return "", "", nil
	}
	if strings.HasPrefix(hostport, "[") {
		end := strings.IndexByte(hostport, ']')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated IPv6 literal %q", hostport)
		}
		host := hostport[1:end]
		tail := hostport[end+1:]
		if tail == "" {
			return strings.ToLower(host), "", nil
		}
		if !strings.HasPrefix(tail, ":") {
			return "", "", fmt.Errorf("unexpected %q after IPv6 literal", tail)
		}
		return strings.ToLower(host), tail[1:], nil
	}
	if !strings.Contains(hostport, ":") {
		return strings.ToLower(hostport), "", nil
	}
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return "", "", err
	}
	return strings.ToLower(host), port, nil
}

// parsePort validates a decimal port in 1..65535.
func parsePort(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("port is missing")
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("port %q is not a number", raw)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}

func unescapeLenient(s string) string {
	if s == "" {
		return ""
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// DecodeBase64 decodes standard or URL-safe base64 after restoring the
// padding to a multiple of 4. Whitespace inside the payload is ignored.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimRight(s, "=")
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	if out, err := base64.StdEncoding.DecodeString(s); err == nil {
		return out, nil
	}
	out, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func decodeBase64Text(s string) (string, error) {
	out, err := DecodeBase64(s)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", errors.New("decoded payload is not valid UTF-8")
	}
	return string(out), nil
}

// truthy mirrors share-link flags such as allowInsecure=1 or tls=tls.
func truthy(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return !strings.EqualFold(raw, "none")
}
