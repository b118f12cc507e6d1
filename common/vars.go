package common

// Version is overridden at build time with -ldflags "-X github.com/ruteri/secret-dns/common.Version=...".
var Version = "dev"

// PackageName prefixes the Prometheus metrics exported by the binaries.
const PackageName = "secretdns"
