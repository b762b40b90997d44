package main

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/fpbrowser/internal/domain"
)

func init() {
	proxyCmd := &cobra.Command{
		Use:     "proxy",
		Aliases: []string{"proxies"},
		Short:   "Manage and test proxies",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List proxies",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := connect(cmd.Context(), cmd, true)
			if err != nil {
				return err
			}
			defer o.Close()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tSTATUS\tIP\tLATENCY\tLOCATION")
			for _, p := range o.State.Proxies() {
				fmt.Fprintf(tw, "%s\t%s\t%s://%s:%d\t%s\t%s\t%dms\t%s\n",
					p.ID, p.Name, p.Type, p.Host, p.Port, p.Status, p.IPAddress, p.Latency, p.Location)
			}
			return tw.Flush()
		},
	}

	testCmd := &cobra.Command{
		Use:   "test <id|url>...",
		Short: "Test saved proxies by id, or an unsaved proxy URL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := connect(cmd.Context(), cmd, true)
			if err != nil {
				return err
			}
			defer o.Close()

			if len(args) == 1 && strings.Contains(args[0], "://") {
				pc, err := parseProxyURL(args[0])
				if err != nil {
					return err
				}
				res, err := o.Proxies.TestConfig(cmd.Context(), pc.Type, pc.Host, pc.Port, pc.Username, pc.Password)
				if err != nil {
					return err
				}
				return printChecks(cmd.OutOrStdout(), []domain.ProxyCheckResult{res})
			}
			results, err := o.Proxies.BatchTest(cmd.Context(), args)
			if err != nil {
				return err
			}
			return printChecks(cmd.OutOrStdout(), results)
		},
	}

	testAllCmd := &cobra.Command{
		Use:   "test-all",
		Short: "Test every saved proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := connect(cmd.Context(), cmd, true)
			if err != nil {
				return err
			}
			defer o.Close()
			results, err := o.Proxies.TestAll(cmd.Context())
			if err != nil {
				return err
			}
			return printChecks(cmd.OutOrStdout(), results)
		},
	}

	proxyCmd.AddCommand(listCmd, testCmd, testAllCmd)
	rootCmd.AddCommand(proxyCmd)
}

func printChecks(w io.Writer, results []domain.ProxyCheckResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROXY\tRESULT\tIP\tLATENCY\tLOCATION")
	failed := 0
	for _, r := range results {
		id := r.ProxyID
		if id == "" {
			id = "(adhoc)"
		}
		if !r.Success {
			failed++
			fmt.Fprintf(tw, "%s\tFAIL: %s\t\t\t\n", id, r.Error)
			continue
		}
		loc := r.Location
		if loc == "" {
			loc = strings.Trim(r.City+", "+r.Country, ", ")
		}
		fmt.Fprintf(tw, "%s\tOK\t%s\t%dms\t%s\n", id, r.IP, r.Latency, loc)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d proxies failed", failed, len(results))
	}
	return nil
}

// parseProxyURL 解析 scheme://[user:pass@]host:port 形式的代理地址。
func parseProxyURL(raw string) (*domain.ProxyConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}
	pc := &domain.ProxyConfig{Type: domain.ProxyType(strings.ToLower(u.Scheme)), Host: u.Hostname()}
	switch pc.Type {
	case domain.ProxyHTTP, domain.ProxyHTTPS, domain.ProxySOCKS5:
	case "socks":
		pc.Type = domain.ProxySOCKS5
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if pc.Host == "" || u.Port() == "" {
		return nil, fmt.Errorf("proxy url %q needs host and port", raw)
	}
	if pc.Port, err = strconv.Atoi(u.Port()); err != nil {
		return nil, fmt.Errorf("invalid proxy port %q", u.Port())
	}
	if u.User != nil {
		pc.Username = u.User.Username()
		pc.Password, _ = u.User.Password()
	}
	return pc, nil
}
