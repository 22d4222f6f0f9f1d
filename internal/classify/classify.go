// Package classify sorts proxy names into country, test and surcharge groups.
package classify

import (
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"
)

const (
	GroupTest      = "测试线路"
	GroupSurcharge = "多倍扣费"
	GroupOther     = "其它"

	suffixDiscount  = "优惠"
	suffixDedicated = "专线"
)

// Kind is the selector strategy of a group.
type Kind string

const (
	KindSelect  Kind = "select"
	KindURLTest Kind = "url-test"
)

// Group is one non-empty classification bucket. Members are sorted.
type Group struct {
	Name    string
	Kind    Kind
	Members []string
}

// Result is the outcome of Classify.
type Result struct {
	Groups []Group
	// AllNames lists every member in group order.
	AllNames []string
	// AutoNames lists the groups eligible for meta selectors: all groups
	// except GroupOther.
	AutoNames []string
}

// discountPattern matches rate hints such as "0.5".
var discountPattern = regexp.MustCompile(`0\.\d+?`)

type tag struct {
	rank   int // 0 test pass, 1..n country passes, n+1 leftovers
	bucket string
}

// Classify assigns every distinct name to exactly one bucket. Matching is a
// sequence of exclusive passes: the test pass, then one pass per country in
// table order, then the leftovers. Buckets are created in pass order and,
// within a pass, in input order.
func Classify(names []string) Result {
	names = lo.Uniq(names)
	tags := make([]tag, len(names))
	for i, name := range names {
		tags[i] = tagOf(name)
	}

	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return tags[a].rank - tags[b].rank })

	var bucketOrder []string
	buckets := make(map[string][]string)
	for _, i := range order {
		b := tags[i].bucket
		if _, ok := buckets[b]; !ok {
			bucketOrder = append(bucketOrder, b)
		}
		buckets[b] = append(buckets[b], names[i])
	}

	res := Result{}
	for _, name := range bucketOrder {
		members := buckets[name]
		slices.Sort(members)
		g := Group{Name: name, Kind: kindOf(name), Members: members}
		res.Groups = append(res.Groups, g)
		res.AllNames = append(res.AllNames, members...)
		if name != GroupOther {
			res.AutoNames = append(res.AutoNames, name)
		}
	}
	return res
}

func tagOf(name string) tag {
	if strings.Contains(name, "test") || strings.Contains(name, "测试") {
		return tag{rank: 0, bucket: GroupTest}
	}
	for i, c := range countries {
		if !strings.Contains(name, c.Name) {
			continue
		}
		t := tag{rank: i + 1}
		switch {
		case discountPattern.MatchString(name):
			t.bucket = c.Label() + suffixDiscount
		case strings.Contains(name, suffixDedicated):
			t.bucket = c.Label() + suffixDedicated
		case strings.Contains(name, "倍扣"):
			t.bucket = GroupSurcharge
		default:
			t.bucket = c.Label()
		}
		return t
	}
	return tag{rank: len(countries) + 1, bucket: GroupOther}
}

func kindOf(bucket string) Kind {
	switch bucket {
	case GroupTest, GroupSurcharge, GroupOther:
		return KindSelect
	default:
		return KindURLTest
	}
}
