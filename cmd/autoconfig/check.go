package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yanizio/autoconfig/internal/autoconfig"
	"github.com/yanizio/autoconfig/internal/layer"
	"github.com/yanizio/autoconfig/internal/logger"
	"github.com/yanizio/autoconfig/internal/server"
)

// CheckLocalPart builds the address checked for each domain.
const CheckLocalPart = "postmaster"

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve every configured domain and user",
	Long: `Load the configured source and resolve one address per served domain,
per domain override, and per user override.  Unresolved or cyclic
references are reported and the command exits non-zero.

Run this in CI before deploying a changed domains file.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := logger.Console("warn")
	if err != nil {
		return err
	}

	store, closeFn, err := loadOnce(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	snap, err := store.Current()
	if err != nil {
		return err
	}

	results := checkAll(snap.Raw)
	if failed := report(cmd.OutOrStdout(), results); failed > 0 {
		return fmt.Errorf("%d of %d addresses failed", failed, len(results))
	}
	return nil
}

type checkResult struct {
	Address string
	Outcome string
	Err     error
}

// checkAddresses lists the addresses check resolves, sorted and de-duplicated.
func checkAddresses(rc *layer.RawConfig) []string {
	seen := make(map[string]struct{})
	for _, d := range rc.ServedDomains() {
		seen[CheckLocalPart+"@"+d] = struct{}{}
	}
	for d := range rc.Domain {
		seen[CheckLocalPart+"@"+d] = struct{}{}
	}
	for u := range rc.User {
		seen[u] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func checkAll(rc *layer.RawConfig) []checkResult {
	addrs := checkAddresses(rc)
	out := make([]checkResult, 0, len(addrs))
	for _, a := range addrs {
		_, err := autoconfig.Resolve(rc, a)
		out = append(out, checkResult{Address: a, Outcome: server.Outcome(err), Err: err})
	}
	return out
}

// report prints one line per address and returns the failure count.
func report(w io.Writer, results []checkResult) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "FAIL  %-40s %s: %v\n", r.Address, r.Outcome, r.Err)
			continue
		}
		fmt.Fprintf(w, "ok    %s\n", r.Address)
	}
	return failed
}
