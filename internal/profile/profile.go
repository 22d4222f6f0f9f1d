// 文件路径: internal/profile/profile.go
// 模块说明: 用户规则配置（rules.yaml）的解析，声明代理组模板与 rule-providers。
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidProfile 表示用户规则文件存在但无法解析。
var ErrInvalidProfile = errors.New("profile: invalid rule configuration / 规则配置无效")

// Error 携带出错的文件路径。
type Error struct {
	Path  string
	Cause error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", ErrInvalidProfile.Error(), e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", ErrInvalidProfile.Error(), e.Path, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is 让 errors.Is(err, ErrInvalidProfile) 成立。
func (e *Error) Is(target error) bool { return target == ErrInvalidProfile }

// DefaultProviderInterval applies to rule providers that omit interval.
const DefaultProviderInterval = 3600

// Profile is the user rule configuration.
type Profile struct {
	ProxyGroups   []GroupTemplate
	RuleProviders *orderedmap.OrderedMap[string, Provider]
}

// GroupTemplate is a user declared proxy group. Hosts lists rule-list URLs
// whose rules target this group; Hosts and Default are never emitted.
type GroupTemplate struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	Proxies  []string       `yaml:"proxies"`
	Default  bool           `yaml:"default"`
	Hosts    []string       `yaml:"hosts"`
	URL      string         `yaml:"url"`
	Interval int            `yaml:"interval"`
	Extra    map[string]any `yaml:",inline"`
}

// Provider is a rule-provider declaration. Proxy is the RULE-SET target and
// is stripped from the emitted provider.
type Provider struct {
	Proxy    string         `yaml:"proxy"`
	Type     string         `yaml:"type"`
	Behavior string         `yaml:"behavior"`
	URL      string         `yaml:"url"`
	Path     string         `yaml:"path"`
	Interval *int           `yaml:"interval"`
	Extra    map[string]any `yaml:",inline"`
}

// Target returns the RULE-SET target, DIRECT when unset.
func (p Provider) Target() string {
	if strings.TrimSpace(p.Proxy) == "" {
		return "DIRECT"
	}
	return p.Proxy
}

// RefreshInterval returns the declared interval or DefaultProviderInterval.
func (p Provider) RefreshInterval() int {
	if p.Interval == nil {
		return DefaultProviderInterval
	}
	return *p.Interval
}

type rawProfile struct {
	ProxyGroups   []GroupTemplate `yaml:"proxy_groups"`
	RuleProviders yaml.Node       `yaml:"rule-providers"`
}

// Empty returns a profile with no groups and no providers.
func Empty() *Profile {
	return &Profile{RuleProviders: orderedmap.New[string, Provider]()}
}

// Parse decodes a rule configuration document. An empty document yields an
// empty profile.
func Parse(data []byte) (*Profile, error) {
	var raw rawProfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Cause: err}
	}

	p := Empty()
	for i, g := range raw.ProxyGroups {
		g.Name = strings.TrimSpace(g.Name)
		if g.Name == "" {
			return nil, &Error{Cause: fmt.Errorf("proxy_groups[%d]: name is required", i)}
		}
		if g.Type == "" {
			g.Type = "select"
		}
		p.ProxyGroups = append(p.ProxyGroups, g)
	}

	n := &raw.RuleProviders
	switch n.Kind {
	case 0:
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			name := n.Content[i].Value
			var prov Provider
			if err := n.Content[i+1].Decode(&prov); err != nil {
				return nil, &Error{Cause: fmt.Errorf("rule-providers.%s: %w", name, err)}
			}
			p.RuleProviders.Set(name, prov)
		}
	case yaml.ScalarNode:
		if n.ShortTag() != "!!null" {
			return nil, &Error{Cause: errors.New("rule-providers must be a mapping")}
		}
	default:
		return nil, &Error{Cause: errors.New("rule-providers must be a mapping")}
	}
	return p, nil
}

// MatchTarget returns the group the terminal MATCH rule points at: the last
// group flagged default, else the first declared group. ok is false when the
// profile declares no groups.
func (p *Profile) MatchTarget() (name string, ok bool) {
	if p == nil || len(p.ProxyGroups) == 0 {
		return "", false
	}
	name = p.ProxyGroups[0].Name
	for _, g := range p.ProxyGroups {
		if g.Default {
			name = g.Name
		}
	}
	return name, true
}

// HostURLs returns every rule-list URL of every group, in declaration order.
func (p *Profile) HostURLs() []string {
	if p == nil {
		return nil
	}
	var urls []string
	for _, g := range p.ProxyGroups {
		urls = append(urls, g.Hosts...)
	}
	return urls
}
