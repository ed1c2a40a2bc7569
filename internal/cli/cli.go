// Package cli wires the diggeo command line to the lookup pipeline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TomasB/diggeo/internal/config"
	"github.com/TomasB/diggeo/internal/data"
	"github.com/TomasB/diggeo/internal/handler/lookup"
	"github.com/TomasB/diggeo/internal/input"
	"github.com/TomasB/diggeo/internal/resolve"
)

const examples = `  diggeo 8.8.8.8 1.1.1.1
  cat ips.txt | diggeo
  diggeo --dig example.com`

const usage = "Usage examples:\n" + examples + "\n"

// Env is the process environment a command runs in.
type Env struct {
	Stdin           io.Reader
	Stdout          io.Writer
	Stderr          io.Writer
	StdinIsTerminal bool

	// Resolver overrides the resolver chosen from the settings.
	Resolver resolve.Resolver
}

// reportedError marks an error whose message was already written to stderr.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// NewRootCmd returns the diggeo command.
func NewRootCmd(env Env) *cobra.Command {
	vip := newViper()

	cmd := &cobra.Command{
		Use:   "diggeo [--dig domain] [ip ...]",
		Short: "Print the country of IP addresses",
		Long: `diggeo looks up the country of each IP address with the ipgeolocation.io API
and prints one "ip:country" line per address.

Addresses are taken from the arguments, from the IPv4 records of --dig,
or line by line from piped standard input.

The API key is read from the api_key entry of ` + config.DefaultPath + `.`,
		Example:       examples,
		Version:       version(),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(vip, cmd.Flags())
			if err != nil {
				return err
			}

			dig, _ := cmd.Flags().GetString("dig")

			return run(cmd.Context(), env, s, input.Source{
				Domain:          dig,
				DomainSet:       cmd.Flags().Changed("dig"),
				IPs:             args,
				Stdin:           env.Stdin,
				StdinIsTerminal: env.StdinIsTerminal,
			})
		},
	}

	cmd.SetIn(env.Stdin)
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)

	cmd.Flags().String("dig", "", "domain name to resolve; its IPv4 addresses are looked up")
	addSettingsFlags(cmd.Flags())

	return cmd
}

// Execute runs diggeo with args and returns the process exit code.
func Execute(ctx context.Context, env Env, args []string) int {
	cmd := NewRootCmd(env)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		}

		return 1
	}

	return 0
}

func run(ctx context.Context, env Env, s Settings, src input.Source) error {
	newLogger(env.Stderr, s.LogLevel)

	cfg, err := config.Load(s.ConfigPath)
	if err != nil {
		slog.Debug("config load failed", "path", s.ConfigPath, "error", err)
		return report(env.Stderr, err, "Error reading API key: %v\n", err)
	}

	ips, err := collect(ctx, env, s, src)
	if err != nil {
		return err
	}

	client, err := data.NewIPGeolocation(s.Endpoint, cfg.APIKey, s.Timeout)
	if err != nil {
		return err
	}
	defer client.Close()

	start := time.Now()
	sum := lookup.NewHandler(client).Run(ctx, ips, env.Stdout, env.Stderr)

	slog.Info("run finished",
		"mode", src.Mode(),
		"total", sum.Total,
		"succeeded", sum.Succeeded,
		"failed", sum.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

func collect(ctx context.Context, env Env, s Settings, src input.Source) ([]string, error) {
	if s.Timeout > 0 && src.DomainSet {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	ips, err := input.Collect(ctx, src, resolverFor(env, s))

	switch {
	case err == nil:
		return ips, nil
	case errors.Is(err, input.ErrNoInput):
		return nil, report(env.Stderr, err, "%s", usage)
	case errors.Is(err, input.ErrNoIPv4):
		return nil, report(env.Stderr, err, "No IPv4 addresses found for domain: %s\n", src.Domain)
	case errors.Is(err, resolve.ErrResolve):
		return nil, report(env.Stderr, err, "Failed to resolve domain %s: %s\n", src.Domain, cause(err, resolve.ErrResolve))
	case errors.Is(err, input.ErrReadInput):
		return nil, report(env.Stderr, err, "Error reading piped input: %s\n", cause(err, input.ErrReadInput))
	default:
		return nil, err
	}
}

func resolverFor(env Env, s Settings) resolve.Resolver {
	switch {
	case env.Resolver != nil:
		return env.Resolver
	case s.DNSServer != "":
		return resolve.NewDNSClient(s.DNSServer, s.Timeout)
	default:
		return net.DefaultResolver
	}
}

func report(w io.Writer, err error, format string, args ...any) error {
	fmt.Fprintf(w, format, args...)
	return reportedError{err: err}
}

// cause drops the sentinel's text from the front of err's message.
func cause(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
