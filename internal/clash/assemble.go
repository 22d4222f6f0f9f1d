package clash

import (
	"bytes"
	"fmt"

	"github.com/creamcroissant/subconv/internal/classify"
	"github.com/creamcroissant/subconv/internal/node"
	"github.com/creamcroissant/subconv/internal/profile"
	"gopkg.in/yaml.v3"
)

// Input is everything one conversion feeds into Assemble.
type Input struct {
	Proxies    []node.ProxyNode
	Classified classify.Result
	// Profile may be nil.
	Profile *profile.Profile
	// GroupRules maps a declared group name to its aggregated rules.
	GroupRules map[string][]string
}

// Assemble builds the document. Rules are emitted in this order: the reject
// and private head rules, RULE-SET references, the LAN allowlist, the per
// group rules in declaration order, the keyword tail and finally MATCH.
func Assemble(in Input) *Document {
	prof := in.Profile
	if prof == nil {
		prof = profile.Empty()
	}
	proxies := in.Proxies
	if proxies == nil {
		proxies = []node.ProxyNode{}
	}
	doc := &Document{
		MixedPort:          DefaultMixedPort,
		AllowLAN:           true,
		BindAddress:        DefaultBindAddress,
		Mode:               DefaultMode,
		LogLevel:           DefaultLogLevel,
		ExternalController: DefaultExternalController,
		Proxies:            proxies,
		ProxyGroups:        MergeGroups(prof.ProxyGroups, in.Classified),
	}

	rules := append([]string(nil), headRules[:]...)
	if prof.RuleProviders != nil && prof.RuleProviders.Len() > 0 {
		providers := NewProviders()
		for pair := prof.RuleProviders.Oldest(); pair != nil; pair = pair.Next() {
			spec := pair.Value
			providers.Set(pair.Key, RuleProvider{
				Type:     spec.Type,
				Behavior: spec.Behavior,
				URL:      spec.URL,
				Path:     spec.Path,
				Interval: spec.RefreshInterval(),
				Extra:    spec.Extra,
			})
			rules = append(rules, fmt.Sprintf("RULE-SET,%s,%s", pair.Key, spec.Target()))
		}
		doc.RuleProviders = providers
	}
	rules = append(rules, localNetworkRules[:]...)
	emitted := make(map[string]bool, len(prof.ProxyGroups))
	for _, g := range prof.ProxyGroups {
		if emitted[g.Name] {
			continue
		}
		emitted[g.Name] = true
		rules = append(rules, in.GroupRules[g.Name]...)
	}
	rules = append(rules, tailRules[:]...)
	rules = append(rules, "MATCH,"+matchTarget(prof, doc.ProxyGroups))
	doc.Rules = rules
	return doc
}

func matchTarget(prof *profile.Profile, groups []ProxyGroup) string {
	if name, ok := prof.MatchTarget(); ok {
		return name
	}
	if len(groups) > 0 {
		return groups[0].Name
	}
	return targetDirect
}

// Encode renders the document as block style YAML with two space indent.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}
