// Package clash assembles the clash configuration document from decoded
// nodes, classified groups, the user profile and aggregated rules.
package clash

import (
	"fmt"
	"sort"

	"github.com/creamcroissant/subconv/internal/node"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Document is the root of the emitted configuration. Field order is the
// emitted key order.
type Document struct {
	MixedPort          int              `yaml:"mixed-port"`
	AllowLAN           bool             `yaml:"allow-lan"`
	BindAddress        string           `yaml:"bind-address"`
	Mode               string           `yaml:"mode"`
	LogLevel           string           `yaml:"log-level"`
	ExternalController string           `yaml:"external-controller"`
	Proxies            []node.ProxyNode `yaml:"proxies"`
	ProxyGroups        []ProxyGroup     `yaml:"proxy-groups"`
	RuleProviders      *Providers       `yaml:"rule-providers,omitempty"`
	Rules              []string         `yaml:"rules"`
}

// HealthCheck drives latency based selection.
type HealthCheck struct {
	URL      string
	Interval int // seconds
}

// ProxyGroup is one entry of proxy-groups. Extra carries user declared keys
// that have no field of their own; they are emitted after the known keys.
type ProxyGroup struct {
	Name        string
	Type        string
	Proxies     []string
	HealthCheck *HealthCheck
	Extra       map[string]any
}

func (g ProxyGroup) MarshalYAML() (any, error) {
	m := yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	add := func(key string, value any) error {
		var v yaml.Node
		if err := v.Encode(value); err != nil {
			return fmt.Errorf("group %q: encode %s: %w", g.Name, key, err)
		}
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, &v)
		return nil
	}
	proxies := g.Proxies
	if proxies == nil {
		proxies = []string{}
	}
	if err := add("name", g.Name); err != nil {
		return nil, err
	}
	if err := add("type", g.Type); err != nil {
		return nil, err
	}
	if err := add("proxies", proxies); err != nil {
		return nil, err
	}
	if hc := g.HealthCheck; hc != nil {
		if err := add("url", hc.URL); err != nil {
			return nil, err
		}
		if err := add("interval", hc.Interval); err != nil {
			return nil, err
		}
	}
	keys := make([]string, 0, len(g.Extra))
	for k := range g.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := add(k, g.Extra[k]); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// RuleProvider is an emitted rule-provider declaration.
type RuleProvider struct {
	Type     string         `yaml:"type,omitempty"`
	Behavior string         `yaml:"behavior,omitempty"`
	URL      string         `yaml:"url,omitempty"`
	Path     string         `yaml:"path,omitempty"`
	Interval int            `yaml:"interval"`
	Extra    map[string]any `yaml:",inline"`
}

// Providers keeps rule providers in declaration order.
type Providers struct {
	m *orderedmap.OrderedMap[string, RuleProvider]
}

// NewProviders returns an empty provider set.
func NewProviders() *Providers {
	return &Providers{m: orderedmap.New[string, RuleProvider]()}
}

// Set adds or replaces a provider; a replaced provider keeps its position.
func (p *Providers) Set(name string, rp RuleProvider) { p.m.Set(name, rp) }

// Get returns the named provider.
func (p *Providers) Get(name string) (RuleProvider, bool) { return p.m.Get(name) }

// Len returns the number of providers.
func (p *Providers) Len() int {
	if p == nil || p.m == nil {
		return 0
	}
	return p.m.Len()
}

// Names returns provider names in declaration order.
func (p *Providers) Names() []string {
	if p.Len() == 0 {
		return nil
	}
	names := make([]string, 0, p.m.Len())
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

func (p *Providers) MarshalYAML() (any, error) {
	m := yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if p.Len() == 0 {
		return &m, nil
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		var v yaml.Node
		if err := v.Encode(pair.Value); err != nil {
			return nil, fmt.Errorf("rule provider %q: %w", pair.Key, err)
		}
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key}, &v)
	}
	return &m, nil
}
