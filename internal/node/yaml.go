package node

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// fieldWriter builds a YAML mapping whose keys keep insertion order.
type fieldWriter struct {
	node yaml.Node
	err  error
}

func newFieldWriter() *fieldWriter {
	return &fieldWriter{node: yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

func (w *fieldWriter) add(key string, value any) {
	if w.err != nil {
		return
	}
	var v yaml.Node
	if err := v.Encode(value); err != nil {
		w.err = fmt.Errorf("encode %s: %w", key, err)
		return
	}
	w.node.Content = append(w.node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&v,
	)
}

// MarshalYAML renders the node with the field order proxy clients expect:
// name, server, port, type, then the scheme specific keys.
func (n ProxyNode) MarshalYAML() (any, error) {
	if n.Variant == nil {
		return nil, fmt.Errorf("node %q has no variant", n.Name)
	}
	w := newFieldWriter()
	w.add("name", n.Name)
	w.add("server", n.Server)
	w.add("port", n.Port)
	w.add("type", n.Type().String())
	n.Variant.writeFields(w, n.UDP)
	if w.err != nil {
		return nil, w.err
	}
	return &w.node, nil
}

func (s *Shadowsocks) writeFields(w *fieldWriter, udp bool) {
	w.add("cipher", s.Cipher)
	w.add("password", s.Password)
	if udp {
		w.add("udp", true)
	}
}

func (t *Trojan) writeFields(w *fieldWriter, udp bool) {
	w.add("password", t.Password)
	if udp {
		w.add("udp", true)
	}
	if t.SNI != "" {
		w.add("sni", t.SNI)
	}
	w.add("skip-cert-verify", t.SkipCertVerify)
}

func (v *VMess) writeFields(w *fieldWriter, udp bool) {
	w.add("uuid", v.UUID)
	w.add("alterId", v.AlterID)
	w.add("cipher", v.Cipher)
	if udp {
		w.add("udp", true)
	}
	if v.Network != "" {
		w.add("network", v.Network)
	}
	if v.TLS {
		w.add("tls", true)
	}
	if v.WS != nil {
		w.add("ws-opts", v.WS)
		// legacy keys still read by older clash cores
		w.add("ws-path", v.WS.Path)
		if len(v.WS.Headers) > 0 {
			w.add("ws-headers", v.WS.Headers)
		}
	}
	if v.H2 != nil {
		w.add("h2-opts", v.H2)
	}
}

func (v *VLESS) writeFields(w *fieldWriter, udp bool) {
	w.add("uuid", v.UUID)
	if v.ServerName != "" {
		w.add("servername", v.ServerName)
	}
	if v.Flow != "" {
		w.add("flow", v.Flow)
	}
	if v.TLS {
		w.add("tls", true)
	}
	if udp {
		w.add("udp", true)
	}
	if v.Network != "" {
		w.add("network", v.Network)
	}
	switch {
	case v.WS != nil:
		w.add("ws-opts", v.WS)
	case v.H2 != nil:
		w.add("h2-opts", v.H2)
	case v.GRPC != nil:
		w.add("grpc-opts", v.GRPC)
	}
}
