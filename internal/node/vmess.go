package node

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultVMessPort   = 443
	defaultVMessCipher = "auto"
	wsMaxEarlyData     = 2048
	wsEarlyDataHeader  = "Sec-WebSocket-Protocol"
)

// vmessInfo is the v2rayN JSON payload. Clients write numbers and booleans as
// either JSON numbers or strings, so loose fields are decoded as any.
type vmessInfo struct {
	PS   string `json:"ps"`
	Add  string `json:"add"`
	Port any    `json:"port"`
	ID   string `json:"id"`
	Aid  any    `json:"aid"`
	Scy  string `json:"scy"`
	Net  string `json:"net"`
	Path string `json:"path"`
	Host string `json:"host"`
	TLS  any    `json:"tls"`
}

func decodeVMess(l link) (ProxyNode, error) {
	// some clients append ?remarks=..; only the part before the query is payload
	body, _, _ := strings.Cut(l.body, "?")
	payload, err := decodeBase64Text(body)
	if err != nil {
		return ProxyNode{}, malformed(SchemeVMess, "decode payload", err)
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	var info vmessInfo
	if err := dec.Decode(&info); err != nil {
		return ProxyNode{}, malformed(SchemeVMess, "parse payload", err)
	}
	if info.Add == "" {
		return ProxyNode{}, malformed(SchemeVMess, "add is missing", nil)
	}
	if info.ID == "" {
		return ProxyNode{}, malformed(SchemeVMess, "id is missing", nil)
	}

	port := defaultVMessPort
	if raw := looseString(info.Port); raw != "" {
		if port, err = parsePort(raw); err != nil {
			return ProxyNode{}, malformed(SchemeVMess, "parse port", err)
		}
	}
	alterID := 0
	if raw := looseString(info.Aid); raw != "" {
		if alterID, err = strconv.Atoi(raw); err != nil || alterID < 0 {
			return ProxyNode{}, malformed(SchemeVMess, "parse aid", fmt.Errorf("aid %q is not a non-negative integer", raw))
		}
	}
	cipher := info.Scy
	if cipher == "" {
		cipher = defaultVMessCipher
	}
	path := info.Path
	if path == "" {
		path = "/"
	}

	v := &VMess{
		UUID:    info.ID,
		AlterID: alterID,
		Cipher:  cipher,
		Network: info.Net,
		TLS:     truthy(looseString(info.TLS)),
	}
	switch info.Net {
	case "ws":
		v.WS = &WSOptions{
			Path:                path,
			MaxEarlyData:        wsMaxEarlyData,
			EarlyDataHeaderName: wsEarlyDataHeader,
			Headers:             hostHeader(info.Host),
		}
	case "h2":
		v.H2 = &H2Options{Path: path, Host: splitHosts(info.Host)}
	}
	return ProxyNode{
		Name:    info.PS,
		Server:  strings.ToLower(strings.TrimSpace(info.Add)),
		Port:    port,
		UDP:     true,
		Variant: v,
	}, nil
}

func looseString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func splitHosts(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
