package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/echo-portal/dao"
	"github.com/dev-mohitbeniwal/echo-portal/db"
	echo_errors "github.com/dev-mohitbeniwal/echo-portal/errors"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/model"
)

var seedUpdate bool

var seedPoliciesCmd = &cobra.Command{
	Use:   "seed-policies <file>",
	Short: "Load policies from a YAML file into the policy store",
	Long: `Load policies from a YAML file into the policy store.

Existing policy ids are skipped unless --update is given. Seeding writes
directly to the store; running servers pick the change up on their next
evaluation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policies, err := readPolicyFile(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := db.InitNeo4j(ctx); err != nil {
			return err
		}
		defer db.CloseNeo4j()

		store := dao.NewPolicyDAO(db.Neo4jDriver)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		_, err = seedPolicies(ctx, store, policies, seedUpdate, cmd.OutOrStdout())
		return err
	},
}

func init() {
	seedPoliciesCmd.Flags().BoolVar(&seedUpdate, "update", false, "overwrite policies that already exist")
}

type policyWriter interface {
	CreatePolicy(ctx context.Context, policy *model.Policy) (*model.Policy, error)
	UpdatePolicy(ctx context.Context, policy *model.Policy) (*model.Policy, error)
}

type seedSummary struct {
	Created int
	Updated int
	Skipped int
}

func seedPolicies(ctx context.Context, store policyWriter, policies []*model.Policy, update bool, out io.Writer) (seedSummary, error) {
	var sum seedSummary
	for _, p := range policies {
		_, err := store.CreatePolicy(ctx, p)
		switch {
		case err == nil:
			sum.Created++
			fmt.Fprintf(out, "%s created %s %s\n", okFmt("✓"), p.PolicyID, dimFmt(p.Resource))
		case errors.Is(err, echo_errors.ErrPolicyConflict) && update:
			if _, err := store.UpdatePolicy(ctx, p); err != nil {
				return sum, fmt.Errorf("update %s: %w", p.PolicyID, err)
			}
			sum.Updated++
			fmt.Fprintf(out, "%s updated %s %s\n", okFmt("✓"), p.PolicyID, dimFmt(p.Resource))
		case errors.Is(err, echo_errors.ErrPolicyConflict):
			sum.Skipped++
			fmt.Fprintf(out, "%s skipped %s (exists)\n", warnFmt("-"), p.PolicyID)
		default:
			return sum, fmt.Errorf("create %s: %w", p.PolicyID, err)
		}
	}
	logger.Info("Policies seeded",
		zap.Int("created", sum.Created),
		zap.Int("updated", sum.Updated),
		zap.Int("skipped", sum.Skipped))
	return sum, nil
}
