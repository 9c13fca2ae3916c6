package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dev-mohitbeniwal/echo-portal/config"
	"github.com/dev-mohitbeniwal/echo-portal/model"
	"github.com/dev-mohitbeniwal/echo-portal/pdp/engine"
	pdp_model "github.com/dev-mohitbeniwal/echo-portal/pdp/model"
	helper_util "github.com/dev-mohitbeniwal/echo-portal/util/helper"
)

type evaluateOptions struct {
	Identity model.Identity
	Resource string
	At       string
	Address  string
	Purpose  string
}

var evalOpts evaluateOptions

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file>",
	Short: "Dry-run an access request against a policy file",
	Long: `Dry-run an access request against the policies in a YAML file.

Nothing is read from or written to the stores and no audit record is
produced. Timezone and office networks come from the config.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policies, err := readPolicyFile(args[0])
		if err != nil {
			return err
		}
		office, err := engine.NewOfficeNetwork(config.GetStringSlice("policy.officeNetworks"))
		if err != nil {
			return err
		}
		loc, err := config.Location()
		if err != nil {
			return err
		}
		evaluator := engine.NewPolicyEvaluator(engine.NewStaticRepository(policies), office, loc)
		_, err = dryRun(cmd.Context(), evaluator, policies, evalOpts, time.Now, cmd.OutOrStdout())
		return err
	},
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evalOpts.Resource, "resource", "", "resource to request")
	f.StringVar(&evalOpts.Identity.Role, "role", "", "requester role")
	f.Int64Var(&evalOpts.Identity.ID, "user-id", 0, "requester id")
	f.StringVar(&evalOpts.Identity.Username, "username", "", "requester username")
	f.StringVar(&evalOpts.Identity.Department, "department", "", "requester department")
	f.StringVar(&evalOpts.At, "at", "", "request time, RFC 3339 (default now)")
	f.StringVar(&evalOpts.Address, "ip", "127.0.0.1", "request source address")
	f.StringVar(&evalOpts.Purpose, "purpose", "", "declared purpose")
	_ = evaluateCmd.MarkFlagRequired("resource")
	_ = evaluateCmd.MarkFlagRequired("role")
}

// dryRun prints each policy on the resource with the condition that failed,
// then the overall decision.
func dryRun(ctx context.Context, evaluator *engine.PolicyEvaluator, policies []*model.Policy, opts evaluateOptions, now func() time.Time, out io.Writer) (pdp_model.Decision, error) {
	var at time.Time
	if opts.At == "" {
		at = now()
	} else {
		var err error
		if at, err = helper_util.ParseTime(opts.At); err != nil {
			return pdp_model.Decision{}, fmt.Errorf("invalid --at: %w", err)
		}
	}
	actx := pdp_model.AccessContext{Timestamp: at, SourceAddress: opts.Address}

	for _, p := range policies {
		if p.Resource != opts.Resource {
			continue
		}
		res := evaluator.EvaluatePolicy(opts.Identity, p, actx, opts.Purpose)
		if res.Matched {
			fmt.Fprintf(out, "  %s %s %s\n", okFmt("match"), p.PolicyID, dimFmt(p.Name))
			continue
		}
		fmt.Fprintf(out, "  %s %s %s: %s\n", warnFmt("skip "), p.PolicyID, dimFmt(string(res.Failed)), res.Reason)
	}

	decision := evaluator.EvaluateAccess(ctx, opts.Identity, opts.Resource, actx, opts.Purpose)
	if decision.Allowed {
		fmt.Fprintf(out, "%s %s\n", okFmt("ALLOW"), decision.Reason)
	} else {
		fmt.Fprintf(out, "%s %s\n", errFmt("DENY"), decision.Reason)
	}
	return decision, nil
}
