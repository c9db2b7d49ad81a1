package contact

import (
	_ "embed"
	"fmt"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed disposable_domains.yaml
var disposableDomainsYAML []byte

var disposableDomains = mustLoadDisposableDomains()

func mustLoadDisposableDomains() map[string]struct{} {
	var domains []string
	if err := yaml.Unmarshal(disposableDomainsYAML, &domains); err != nil {
		panic(fmt.Sprintf("contact: parsing embedded disposable domain list: %v", err))
	}
	return lo.SliceToMap(domains, func(d string) (string, struct{}) {
		return d, struct{}{}
	})
}

// IsDisposableDomain reports whether the given (lowercased) email domain
// belongs to a known throwaway provider.
func IsDisposableDomain(domain string) bool {
	_, found := disposableDomains[domain]
	return found
}
