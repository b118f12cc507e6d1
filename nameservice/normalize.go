package nameservice

import (
	"strings"

	"github.com/ruteri/secret-dns/interfaces"
)

// TLD is the pseudo top-level domain names are registered under.
const TLD = "enigma"

// NormalizeDomain maps "Example.Enigma." and "example" to the registry key "example".
func NormalizeDomain(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, ".")
	name = strings.TrimSuffix(name, "."+TLD)
	if name == "" || name == TLD {
		return "", interfaces.ErrInvalidDomain
	}
	return name, nil
}
