package node

// decodeTrojan reads trojan://password@host:port?sni=..&allowInsecure=..#name.
// The password is taken verbatim from the userinfo.
func decodeTrojan(l link) (ProxyNode, error) {
	if !l.hasUser || l.userinfo == "" {
		return ProxyNode{}, malformed(SchemeTrojan, "password is missing", nil)
	}
	if l.host == "" {
		return ProxyNode{}, malformed(SchemeTrojan, "server is missing", nil)
	}
	port, err := parsePort(l.port)
	if err != nil {
		return ProxyNode{}, malformed(SchemeTrojan, "parse port", err)
	}
	return ProxyNode{
		Name:   l.fragment,
		Server: l.host,
		Port:   port,
		UDP:    true,
		Variant: &Trojan{
			Password:       l.userinfo,
			SNI:            l.query.Get("sni"),
			SkipCertVerify: truthy(l.query.Get("allowInsecure")),
		},
	}, nil
}
