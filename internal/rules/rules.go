// Package rules turns downloaded rule-list text into clash rule lines bound to
// a proxy group.
package rules

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

const noResolve = "no-resolve"

// Contribution is what one rule-list file adds for a group. IPRules are kept
// apart because they must follow every other rule of the group.
type Contribution struct {
	Rules   []string
	IPRules []string
}

// Len returns the number of parsed lines.
func (c Contribution) Len() int { return len(c.Rules) + len(c.IPRules) }

// ParseLines keeps DOMAIN*, SOURCE*, GEOIP* and IP-CIDR* lines and appends
// group as the target. A trailing no-resolve on an IP-CIDR line is moved
// after the group. Prefixes are matched before trimming, so indented lines
// are ignored.
func ParseLines(group, text string) Contribution {
	var c Contribution
	for _, line := range strings.Split(text, "\n") {
		switch {
		case hasAnyPrefix(line, "DOMAIN", "SOURCE", "GEOIP"):
			c.Rules = append(c.Rules, strings.TrimSpace(line)+","+group)
		case strings.HasPrefix(line, "IP-CIDR"):
			c.IPRules = append(c.IPRules, ipRule(group, line))
		}
	}
	return c
}

func ipRule(group, line string) string {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if fields[len(fields)-1] == noResolve {
		return strings.Join(fields[:len(fields)-1], ",") + "," + group + "," + noResolve
	}
	return strings.TrimSpace(line) + "," + group
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Merge combines contributions of one group: duplicates are removed, the
// non-IP rules are sorted, then the sorted IP rules are appended.
func Merge(parts ...Contribution) []string {
	var plain, ip []string
	for _, p := range parts {
		plain = append(plain, p.Rules...)
		ip = append(ip, p.IPRules...)
	}
	plain = lo.Uniq(plain)
	ip = lo.Uniq(ip)
	slices.Sort(plain)
	slices.Sort(ip)
	return append(plain, ip...)
}

// Aggregate parses every text for group and merges the result.
func Aggregate(group string, texts ...string) []string {
	parts := lo.Map(texts, func(text string, _ int) Contribution {
		return ParseLines(group, text)
	})
	return Merge(parts...)
}
