package node

import (
	"errors"
	"strings"
)

// decodeShadowsocks handles both SIP002 layouts:
//
//	ss://b64(cipher:password)@host:port#name
//	ss://b64(cipher:password@host:port)#name
func decodeShadowsocks(l link) (ProxyNode, error) {
	if !l.hasUser {
		decoded, err := decodeBase64Text(strings.TrimRight(l.body, "/"))
		if err != nil {
			return ProxyNode{}, malformed(SchemeShadowsocks, "decode body", err)
		}
		inner, err := splitLink("ss://" + decoded)
		if err != nil {
			return ProxyNode{}, malformed(SchemeShadowsocks, "split decoded body", err)
		}
		if !inner.hasUser {
			return ProxyNode{}, malformed(SchemeShadowsocks, "decoded body has no userinfo", nil)
		}
		inner.fragment = l.fragment
		return buildShadowsocks(inner, inner.userinfo)
	}

	userinfo, err := decodeBase64Text(l.userinfo)
	if err != nil || !strings.Contains(userinfo, ":") {
		// SIP002 allows plain cipher:password for AEAD-2022 ciphers
		plain := unescapeLenient(l.userinfo)
		if !strings.Contains(plain, ":") {
			if err == nil {
				err = errors.New("userinfo has no cipher separator")
			}
			return ProxyNode{}, malformed(SchemeShadowsocks, "decode userinfo", err)
		}
		userinfo = plain
	}
	return buildShadowsocks(l, userinfo)
}

func buildShadowsocks(l link, userinfo string) (ProxyNode, error) {
	cipher, password, _ := strings.Cut(userinfo, ":")
	if cipher == "" {
		return ProxyNode{}, malformed(SchemeShadowsocks, "cipher is empty", nil)
	}
	if l.host == "" {
		return ProxyNode{}, malformed(SchemeShadowsocks, "server is missing", nil)
	}
	port, err := parsePort(l.port)
	if err != nil {
		return ProxyNode{}, malformed(SchemeShadowsocks, "parse port", err)
	}
	return ProxyNode{
		Name:    l.fragment,
		Server:  l.host,
		Port:    port,
		Variant: &Shadowsocks{Cipher: cipher, Password: password},
	}, nil
}
