package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/urfave/cli/v2"

	"github.com/ruteri/secret-dns/api"
	"github.com/ruteri/secret-dns/api/clients"
	"github.com/ruteri/secret-dns/cmd/flags"
	"github.com/ruteri/secret-dns/common"
	"github.com/ruteri/secret-dns/nameservice"
)

var flagServerAddr = &cli.StringFlag{
	Name:    "server-addr",
	Value:   "http://127.0.0.1:8080",
	Usage:   "secretdns API address",
	EnvVars: []string{"SECRETDNS_SERVER_ADDR"},
}
var flagTimeout = &cli.DurationFlag{
	Name:  "timeout",
	Value: 3 * time.Minute,
	Usage: "how long to wait for the registry to answer",
}
var flagOwner = &cli.StringFlag{
	Name:     "owner",
	Required: true,
	Usage:    "owner of the domain",
}
var flagDNSServer = &cli.StringFlag{
	Name:  "dns-server",
	Value: "127.0.0.1:5353",
	Usage: "secretdns DNS listener to query",
}
var flagDNSType = &cli.StringFlag{
	Name:  "type",
	Value: "A",
	Usage: "record type to ask for (A, AAAA, CNAME, ANY)",
}
var flagTCP = &cli.BoolFlag{
	Name:  "tcp",
	Usage: "query over TCP instead of UDP",
}

func main() {
	app := &cli.App{
		Name:    "secretdns-cli",
		Usage:   "Register and resolve .enigma names",
		Version: common.Version,
		Flags: append([]cli.Flag{
			flagServerAddr,
			flagTimeout,
			flags.LogServiceFlagFn("secretdns-cli"),
		}, flags.CommonFlags...),
		Commands: []*cli.Command{
			{
				Name:      "register",
				Usage:     "claim a domain for an owner",
				ArgsUsage: "<domain>",
				Flags:     []cli.Flag{flagOwner},
				Action: func(cCtx *cli.Context) error {
					domain, err := domainArg(cCtx)
					if err != nil {
						return err
					}
					ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration(flagTimeout.Name))
					defer cancel()

					status, err := newClient(cCtx).RegisterStatus(ctx, domain, cCtx.String(flagOwner.Name))
					if err != nil {
						return err
					}
					return printJSON(api.NewStatusResponse(status))
				},
			},
			{
				Name:      "set-target",
				Usage:     "point an owned domain at an address or hostname",
				ArgsUsage: "<domain> <target>",
				Flags:     []cli.Flag{flagOwner},
				Action: func(cCtx *cli.Context) error {
					domain, err := domainArg(cCtx)
					if err != nil {
						return err
					}
					target := cCtx.Args().Get(1)
					if target == "" {
						return errors.New("missing target argument")
					}
					ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration(flagTimeout.Name))
					defer cancel()

					status, err := newClient(cCtx).SetTargetStatus(ctx, domain, target, cCtx.String(flagOwner.Name))
					if err != nil {
						return err
					}
					return printJSON(api.NewStatusResponse(status))
				},
			},
			{
				Name:      "resolve",
				Usage:     "read the target of a domain from the registry",
				ArgsUsage: "<domain>",
				Action: func(cCtx *cli.Context) error {
					domain, err := domainArg(cCtx)
					if err != nil {
						return err
					}
					ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration(flagTimeout.Name))
					defer cancel()

					target, err := newClient(cCtx).ResolveTarget(ctx, domain)
					if err != nil {
						return err
					}
					if target == "" {
						return fmt.Errorf("%s does not resolve", domain)
					}
					return printJSON(api.ResolveResponse{Domain: domain, Target: target})
				},
			},
			{
				Name:      "lookup",
				Usage:     "query the secretdns DNS listener",
				ArgsUsage: "<domain>",
				Flags:     []cli.Flag{flagDNSServer, flagDNSType, flagTCP},
				Action:    lookup,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(cCtx *cli.Context) *clients.NameServiceClient {
	return clients.NewNameServiceClient(cCtx.String(flagServerAddr.Name), cCtx.Duration(flagTimeout.Name), flags.SetupLogger(cCtx))
}

func domainArg(cCtx *cli.Context) (string, error) {
	domain := cCtx.Args().First()
	if domain == "" {
		return "", errors.New("missing domain argument")
	}
	return nameservice.NormalizeDomain(domain)
}

func lookup(cCtx *cli.Context) error {
	domain, err := domainArg(cCtx)
	if err != nil {
		return err
	}

	qtype, ok := dns.StringToType[strings.ToUpper(cCtx.String(flagDNSType.Name))]
	if !ok {
		return fmt.Errorf("unknown record type %q", cCtx.String(flagDNSType.Name))
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain+"."+nameservice.TLD), qtype)

	client := &dns.Client{Timeout: cCtx.Duration(flagTimeout.Name)}
	if cCtx.Bool(flagTCP.Name) {
		client.Net = "tcp"
	}

	resp, _, err := client.ExchangeContext(cCtx.Context, msg, cCtx.String(flagDNSServer.Name))
	if err != nil {
		return fmt.Errorf("DNS query failed: %w", err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return fmt.Errorf("%s: %s", msg.Question[0].Name, dns.RcodeToString[resp.Rcode])
	}

	for _, rr := range resp.Answer {
		fmt.Println(rr.String())
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
