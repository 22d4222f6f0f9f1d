package classify

// Country is one entry of the ordered matching table.
type Country struct {
	Name string // Chinese label searched for in node names
	Flag string // emoji flag
}

// Label is the group name used for the country, e.g. "🇭🇰香港".
func (c Country) Label() string { return c.Flag + c.Name }

// countries are matched in this order; earlier entries win.
var countries = [...]Country{
	{"香港", "🇭🇰"},
	{"台湾", "🇨🇳"},
	{"新加坡", "🇸🇬"},
	{"日本", "🇯🇵"},
	{"韩国", "🇰🇷"},
	{"印度", "🇮🇳"},
	{"美国", "🇺🇸"},
	{"俄罗斯", "🇷🇺"},
	{"德国", "🇩🇪"},
	{"澳大利亚", "🇦🇺"},
	{"阿联酋", "🇦🇪"},
	{"波兰", "🇵🇱"},
	{"土耳其", "🇹🇷"},
	{"加拿大", "🇨🇦"},
	{"法国", "🇫🇷"},
	{"英国", "🇬🇧"},
	{"荷兰", "🇳🇱"},
}

// Countries returns a copy of the matching table.
func Countries() []Country {
	out := make([]Country, len(countries))
	copy(out, countries[:])
	return out
}
