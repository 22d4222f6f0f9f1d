package clash

// Fixed network settings of every document.
const (
	DefaultMixedPort          = 7890
	DefaultBindAddress        = "*"
	DefaultMode               = "rule"
	DefaultLogLevel           = "info"
	DefaultExternalController = "127.0.0.1:9090"
)

// Default health check for url-test groups.
const (
	HealthCheckURL      = "http://www.gstatic.com/generate_204"
	HealthCheckInterval = 300
)

const (
	targetDirect = "DIRECT"
	targetReject = "REJECT"
)

var headRules = [...]string{
	"IP-CIDR,198.18.0.1/16,REJECT,no-resolve",
	"GEOIP,private,DIRECT,no-resolve",
}

// localNetworkRules keep router admin pages and LAN names off the proxy.
var localNetworkRules = [...]string{
	"DOMAIN-SUFFIX,ip6-localhost,DIRECT",
	"DOMAIN-SUFFIX,ip6-loopback,DIRECT",
	"DOMAIN-SUFFIX,lan,DIRECT",
	"DOMAIN-SUFFIX,local,DIRECT",
	"DOMAIN-SUFFIX,localhost,DIRECT",
	"DOMAIN,instant.arubanetworks.com,DIRECT",
	"DOMAIN,setmeup.arubanetworks.com,DIRECT",
	"DOMAIN,router.asus.com,DIRECT",
	"DOMAIN-SUFFIX,hiwifi.com,DIRECT",
	"DOMAIN-SUFFIX,leike.cc,DIRECT",
	"DOMAIN-SUFFIX,miwifi.com,DIRECT",
	"DOMAIN-SUFFIX,my.router,DIRECT",
	"DOMAIN-SUFFIX,p.to,DIRECT",
	"DOMAIN-SUFFIX,peiluyou.com,DIRECT",
	"DOMAIN-SUFFIX,phicomm.me,DIRECT",
	"DOMAIN-SUFFIX,router.ctc,DIRECT",
	"DOMAIN-SUFFIX,routerlogin.com,DIRECT",
	"DOMAIN-SUFFIX,tendawifi.com,DIRECT",
	"DOMAIN-SUFFIX,zte.home,DIRECT",
	"DOMAIN-SUFFIX,tplogin.cn,DIRECT",
}

var tailRules = [...]string{
	"DOMAIN-KEYWORD,aria2,DIRECT",
	"DOMAIN-KEYWORD,xunlei,DIRECT",
	"DOMAIN-KEYWORD,yunpan,DIRECT",
	"DOMAIN-KEYWORD,Thunder,DIRECT",
	"DOMAIN-KEYWORD,XLLiveUD,DIRECT",
	"GEOIP,CN,DIRECT",
}

// LocalNetworkRules returns a copy of the LAN allowlist.
func LocalNetworkRules() []string {
	return append([]string(nil), localNetworkRules[:]...)
}
