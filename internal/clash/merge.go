package clash

import (
	"strings"

	"github.com/creamcroissant/subconv/internal/classify"
	"github.com/creamcroissant/subconv/internal/profile"
)

// Member placeholders accepted in user group templates.
const (
	PlaceholderAll     = "@全部节点"
	PlaceholderCountry = "@国家节点"
)

// ClassifiedGroups converts classification buckets into proxy groups.
func ClassifiedGroups(res classify.Result) []ProxyGroup {
	groups := make([]ProxyGroup, 0, len(res.Groups))
	for _, g := range res.Groups {
		pg := ProxyGroup{
			Name:    g.Name,
			Type:    string(g.Kind),
			Proxies: append([]string(nil), g.Members...),
		}
		if g.Kind == classify.KindURLTest {
			pg.HealthCheck = defaultHealthCheck()
		}
		groups = append(groups, pg)
	}
	return groups
}

func defaultHealthCheck() *HealthCheck {
	return &HealthCheck{URL: HealthCheckURL, Interval: HealthCheckInterval}
}

// needsHealthCheck lists group types that probe their members.
func needsHealthCheck(kind string) bool {
	switch strings.ToLower(kind) {
	case "url-test", "fallback", "load-balance":
		return true
	}
	return false
}

// MergeGroups expands user templates and places them before the classified
// groups. Templates named DIRECT or REJECT, or with no members, are dropped.
func MergeGroups(templates []profile.GroupTemplate, res classify.Result) []ProxyGroup {
	out := make([]ProxyGroup, 0, len(templates)+len(res.Groups))
	for _, t := range templates {
		if len(t.Proxies) == 0 || t.Name == targetDirect || t.Name == targetReject {
			continue
		}
		pg := ProxyGroup{Name: t.Name, Type: t.Type, Proxies: expandMembers(t.Proxies, res)}
		if needsHealthCheck(t.Type) {
			hc := defaultHealthCheck()
			if t.URL != "" {
				hc.URL = t.URL
			}
			if t.Interval > 0 {
				hc.Interval = t.Interval
			}
			pg.HealthCheck = hc
		}
		if len(t.Extra) > 0 {
			pg.Extra = make(map[string]any, len(t.Extra))
			for k, v := range t.Extra {
				pg.Extra[k] = v
			}
		}
		out = append(out, pg)
	}
	return append(out, ClassifiedGroups(res)...)
}

func expandMembers(members []string, res classify.Result) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		switch m {
		case PlaceholderAll:
			out = append(out, res.AllNames...)
		case PlaceholderCountry:
			out = append(out, res.AutoNames...)
		default:
			out = append(out, m)
		}
	}
	return out
}
