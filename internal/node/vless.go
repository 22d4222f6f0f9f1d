package node

import "strings"

const defaultXTLSFlow = "xtls-rprx-direct"

// decodeVLESS reads vless://uuid@host:port?security=..&type=..#name. Transport
// options are only built for security=tls.
func decodeVLESS(l link) (ProxyNode, error) {
	uuid := unescapeLenient(l.userinfo)
	if uuid == "" {
		return ProxyNode{}, malformed(SchemeVLESS, "uuid is missing", nil)
	}
	if l.host == "" {
		return ProxyNode{}, malformed(SchemeVLESS, "server is missing", nil)
	}
	port, err := parsePort(l.port)
	if err != nil {
		return ProxyNode{}, malformed(SchemeVLESS, "parse port", err)
	}

	q := l.query
	v := &VLESS{UUID: uuid, ServerName: q.Get("sni")}
	n := ProxyNode{Name: l.fragment, Server: l.host, Port: port, Variant: v}

	switch strings.ToLower(q.Get("security")) {
	case "xtls":
		v.Flow = q.Get("flow")
		if v.Flow == "" {
			v.Flow = defaultXTLSFlow
		}
	case "tls":
		v.TLS = true
		n.UDP = true
		v.Network = q.Get("type")
		if v.Network == "" {
			v.Network = "http"
		}
		path := q.Get("path")
		if path == "" {
			path = "/"
		}
		host := q.Get("host")
		switch v.Network {
		case "ws":
			v.WS = &WSOptions{Path: path, Headers: hostHeader(host)}
		case "http":
			v.H2 = &H2Options{Path: path, Headers: hostHeader(host)}
		case "grpc":
			if host == "" {
				return ProxyNode{}, malformed(SchemeVLESS, "grpc service name is missing", nil)
			}
			v.GRPC = &GRPCOptions{ServiceName: host}
		}
	}
	return n, nil
}

func hostHeader(host string) map[string]string {
	if host == "" {
		return nil
	}
	return map[string]string{"Host": host}
}
