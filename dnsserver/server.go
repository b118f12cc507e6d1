// Package dnsserver answers DNS queries for registered names from the secret
// name registry. It is authoritative for a single zone, "enigma." by default.
package dnsserver

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"

	"github.com/ruteri/secret-dns/interfaces"
	"github.com/ruteri/secret-dns/metrics"
	"github.com/ruteri/secret-dns/nameservice"
)

type Config struct {
	// ListenAddr is served over both UDP and TCP.
	ListenAddr string

	// Zone is the domain the server is authoritative for.
	Zone string

	// TTL of every answer, in seconds.
	TTL uint32

	// LookupTimeout bounds the registry lookup behind one query.
	LookupTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:    "127.0.0.1:5353",
		Zone:          nameservice.TLD + ".",
		TTL:           60,
		LookupTimeout: 3 * time.Second,
	}
}

// Resolver looks up the target of a registry name. *nameservice.Client implements it.
type Resolver interface {
	ResolveTarget(ctx context.Context, domain string) (string, error)
}

type Server struct {
	cfg      Config
	zone     string
	resolver Resolver
	log      *slog.Logger
	metrics  *metrics.Metrics

	udp *dns.Server
	tcp *dns.Server
}

func New(cfg Config, resolver Resolver, log *slog.Logger, m *metrics.Metrics) *Server {
	s := &Server{
		cfg:      cfg,
		zone:     dns.CanonicalName(cfg.Zone),
		resolver: resolver,
		log:      log,
		metrics:  m,
	}

	s.udp = &dns.Server{Addr: cfg.ListenAddr, Net: "udp", Handler: s}
	s.tcp = &dns.Server{Addr: cfg.ListenAddr, Net: "tcp", Handler: s}
	return s
}

// ListenAndServe blocks until both listeners stop.
func (s *Server) ListenAndServe() error {
	s.log.Info("Starting DNS server",
		slog.String("listenAddress", s.cfg.ListenAddr),
		slog.String("zone", s.zone))

	var g errgroup.Group
	g.Go(s.udp.ListenAndServe)
	g.Go(s.tcp.ListenAndServe)
	return g.Wait()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return errors.Join(s.udp.ShutdownContext(ctx), s.tcp.ShutdownContext(ctx))
}

func (s *Server) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	m := s.answer(r)
	if err := w.WriteMsg(m); err != nil {
		s.log.Debug("Could not write DNS response", "err", err)
	}
}

func (s *Server) answer(r *dns.Msg) *dns.Msg {
	m := new(dns.Msg)
	m.SetReply(r)
	m.Compress = true

	if len(r.Question) != 1 {
		return s.finish(m, dns.TypeNone, dns.RcodeFormatError)
	}
	q := r.Question[0]
	qname := dns.CanonicalName(q.Name)

	if q.Qclass != dns.ClassINET || !dns.IsSubDomain(s.zone, qname) {
		return s.finish(m, q.Qtype, dns.RcodeRefused)
	}
	m.Authoritative = true

	if qname == s.zone {
		if q.Qtype == dns.TypeSOA || q.Qtype == dns.TypeANY {
			m.Answer = append(m.Answer, s.soa())
		} else {
			m.Ns = append(m.Ns, s.soa())
		}
		return s.finish(m, q.Qtype, dns.RcodeSuccess)
	}

	name := strings.TrimSuffix(qname, "."+s.zone)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.LookupTimeout)
	defer cancel()

	target, err := s.resolver.ResolveTarget(ctx, name)
	switch {
	case errors.Is(err, interfaces.ErrInvalidDomain):
		m.Ns = append(m.Ns, s.soa())
		return s.finish(m, q.Qtype, dns.RcodeNameError)
	case err != nil:
		s.log.Warn("DNS lookup failed", slog.String("name", name), "err", err)
		m.Authoritative = false
		return s.finish(m, q.Qtype, dns.RcodeServerFailure)
	case target == "" || target == interfaces.UnsetTarget:
		m.Ns = append(m.Ns, s.soa())
		return s.finish(m, q.Qtype, dns.RcodeNameError)
	}

	if rr := s.record(qname, q.Qtype, target); rr != nil {
		m.Answer = append(m.Answer, rr)
	} else {
		m.Ns = append(m.Ns, s.soa())
	}
	return s.finish(m, q.Qtype, dns.RcodeSuccess)
}

// record returns the answer for target, or nil when the name has no record
// of the queried type. Hostname targets are answered with a CNAME for every type.
func (s *Server) record(qname string, qtype uint16, target string) dns.RR {
	hdr := func(rrtype uint16) dns.RR_Header {
		return dns.RR_Header{Name: qname, Rrtype: rrtype, Class: dns.ClassINET, Ttl: s.cfg.TTL}
	}

	addr, err := netip.ParseAddr(target)
	if err != nil {
		return &dns.CNAME{Hdr: hdr(dns.TypeCNAME), Target: dns.Fqdn(target)}
	}

	switch {
	case addr.Is4() && (qtype == dns.TypeA || qtype == dns.TypeANY):
		return &dns.A{Hdr: hdr(dns.TypeA), A: addr.AsSlice()}
	case addr.Is6() && (qtype == dns.TypeAAAA || qtype == dns.TypeANY):
		return &dns.AAAA{Hdr: hdr(dns.TypeAAAA), AAAA: addr.AsSlice()}
	default:
		return nil
	}
}

func (s *Server) soa() dns.RR {
	return &dns.SOA{
		Hdr:     dns.RR_Header{Name: s.zone, Rrtype: dns.TypeSOA, Class: dns.ClassINET, Ttl: s.cfg.TTL},
		Ns:      "ns." + s.zone,
		Mbox:    "hostmaster." + s.zone,
		Serial:  1,
		Refresh: 3600,
		Retry:   600,
		Expire:  86400,
		Minttl:  s.cfg.TTL,
	}
}

func (s *Server) finish(m *dns.Msg, qtype uint16, rcode int) *dns.Msg {
	m.Rcode = rcode
	s.metrics.DNSQuery(dns.TypeToString[qtype], dns.RcodeToString[rcode])
	return m
}
