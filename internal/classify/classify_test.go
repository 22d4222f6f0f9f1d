package classify

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupNames(r Result) []string {
	return lo.Map(r.Groups, func(g Group, _ int) string { return g.Name })
}

func TestClassifyBuckets(t *testing.T) {
	names := []string{
		"香港 02",
		"日本 专线 01",
		"香港 0.5倍",
		"美国 3倍扣",
		"香港 01",
		"香港 测试",
		"Argentina",
		"test-node",
		"日本 2倍扣",
	}
	r := Classify(names)

	assert.Equal(t, []string{
		"测试线路",
		"🇭🇰香港",
		"🇭🇰香港优惠",
		"🇯🇵日本专线",
		"多倍扣费",
		"其它",
	}, groupNames(r))

	byName := lo.KeyBy(r.Groups, func(g Group) string { return g.Name })
	assert.Equal(t, []string{"test-node", "香港 测试"}, byName["测试线路"].Members)
	assert.Equal(t, []string{"香港 01", "香港 02"}, byName["🇭🇰香港"].Members)
	assert.Equal(t, []string{"日本 2倍扣", "美国 3倍扣"}, byName["多倍扣费"].Members)
	assert.Equal(t, []string{"Argentina"}, byName["其它"].Members)

	assert.Equal(t, KindSelect, byName["测试线路"].Kind)
	assert.Equal(t, KindSelect, byName["多倍扣费"].Kind)
	assert.Equal(t, KindSelect, byName["其它"].Kind)
	assert.Equal(t, KindURLTest, byName["🇭🇰香港"].Kind)
	assert.Equal(t, KindURLTest, byName["🇯🇵日本专线"].Kind)

	assert.Equal(t, []string{"测试线路", "🇭🇰香港", "🇭🇰香港优惠", "🇯🇵日本专线", "多倍扣费"}, r.AutoNames)
	assert.Equal(t, []string{
		"test-node", "香港 测试",
		"香港 01", "香港 02",
		"香港 0.5倍",
		"日本 专线 01",
		"日本 2倍扣", "美国 3倍扣",
		"Argentina",
	}, r.AllNames)
}

func TestClassifyPartition(t *testing.T) {
	names := []string{"香港 01", "香港 01", "台湾 新加坡", "美国 测试", "荷兰 专线", "x", "日本0.1"}
	r := Classify(names)

	seen := map[string]string{}
	for _, g := range r.Groups {
		require.NotEmpty(t, g.Members)
		for _, m := range g.Members {
			prev, dup := seen[m]
			assert.False(t, dup, "%q in both %q and %q", m, prev, g.Name)
			seen[m] = g.Name
		}
	}
	assert.ElementsMatch(t, lo.Uniq(names), lo.Keys(seen))
	assert.Equal(t, "🇨🇳台湾", seen["台湾 新加坡"], "earlier country wins")
	assert.Equal(t, "测试线路", seen["美国 测试"], "test pass takes precedence")
}

func TestClassifyIdempotent(t *testing.T) {
	first := Classify([]string{"香港 01", "日本 专线", "美国 0.2", "德国 2倍扣", "misc"})
	again := Classify(first.AllNames)
	assert.Equal(t, first, again)

	// group labels classify back into the country they name
	for _, c := range Countries() {
		r := Classify([]string{c.Label()})
		require.Len(t, r.Groups, 1)
		assert.Equal(t, c.Label(), r.Groups[0].Name)
	}
}

func TestCountriesIsACopy(t *testing.T) {
	list := Countries()
	list[0].Name = "changed"
	assert.Equal(t, "香港", Countries()[0].Name)
	assert.Len(t, list, 17)
}

func TestClassifyEmpty(t *testing.T) {
	r := Classify(nil)
	assert.Empty(t, r.Groups)
	assert.Empty(t, r.AllNames)
	assert.Empty(t, r.AutoNames)
}
