// Package node decodes proxy share links into normalized proxy records.
package node

import "strings"

// Scheme identifies the proxy protocol a node speaks.
type Scheme int

const (
	SchemeShadowsocks Scheme = iota + 1
	SchemeTrojan
	SchemeVMess
	SchemeVLESS
)

// String returns the type tag used in the rendered document.
func (s Scheme) String() string {
	switch s {
	case SchemeShadowsocks:
		return "ss"
	case SchemeTrojan:
		return "trojan"
	case SchemeVMess:
		return "vmess"
	case SchemeVLESS:
		return "vless"
	default:
		return "unknown"
	}
}

// ParseScheme maps a link scheme to a Scheme. trojan-go links decode as trojan.
func ParseScheme(raw string) (Scheme, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ss":
		return SchemeShadowsocks, true
	case "trojan", "trojan-go":
		return SchemeTrojan, true
	case "vmess":
		return SchemeVMess, true
	case "vless":
		return SchemeVLESS, true
	default:
		return 0, false
	}
}

// ProxyNode is one decoded proxy endpoint. Name, Server, Port and the variant
// are always set; everything else is optional and omitted when zero.
type ProxyNode struct {
	Name    string
	Server  string
	Port    int
	UDP     bool
	Variant Variant
}

// Type returns the scheme of the node's variant.
func (n ProxyNode) Type() Scheme {
	if n.Variant == nil {
		return 0
	}
	return n.Variant.Scheme()
}

// Variant carries the scheme specific fields. The set of implementations is
// closed: Shadowsocks, Trojan, VMess and VLESS.
type Variant interface {
	Scheme() Scheme
	writeFields(w *fieldWriter, udp bool)
}

// Shadowsocks 节点字段。
type Shadowsocks struct {
	Cipher   string
	Password string
}

func (*Shadowsocks) Scheme() Scheme { return SchemeShadowsocks }

// Trojan 节点字段。
type Trojan struct {
	Password       string
	SNI            string
	SkipCertVerify bool
}

func (*Trojan) Scheme() Scheme { return SchemeTrojan }

// VMess 节点字段。
type VMess struct {
	UUID    string
	AlterID int
	Cipher  string
	Network string
	TLS     bool
	WS      *WSOptions
	H2      *H2Options
}

func (*VMess) Scheme() Scheme { return SchemeVMess }

// VLESS 节点字段。
type VLESS struct {
	UUID       string
	ServerName string
	Flow       string
	TLS        bool
	Network    string
	WS         *WSOptions
	H2         *H2Options
	GRPC       *GRPCOptions
}

func (*VLESS) Scheme() Scheme { return SchemeVLESS }

// WSOptions renders as ws-opts.
type WSOptions struct {
	Path                string            `yaml:"path"`
	MaxEarlyData        int               `yaml:"max-early-data,omitempty"`
	EarlyDataHeaderName string            `yaml:"early-data-header-name,omitempty"`
	Headers             map[string]string `yaml:"headers,omitempty"`
}

// H2Options renders as h2-opts.
type H2Options struct {
	Path    string            `yaml:"path"`
	Host    []string          `yaml:"host,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// GRPCOptions renders as grpc-opts.
type GRPCOptions struct {
	ServiceName string `yaml:"grpc-service-name"`
}
