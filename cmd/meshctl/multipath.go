package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driftmesh/overlay/pkg/multipath"
	"github.com/driftmesh/overlay/pkg/peerid"
)

func newMultipathCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "multipath",
		Short: "Build and print multipath trees",
		Long:  `Commands for constructing a multipath tree from linear id sequences and printing its structure.`,
	}

	cmd.AddCommand(newMultipathBuildCommand())
	cmd.AddCommand(newMultipathSpliceCommand())

	return cmd
}

func newMultipathBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build <id> [id...]",
		Short: "Build a linear path from the given ids and print it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := multipath.FromLinear(toIDs(args))
			if err != nil {
				return err
			}
			printPath(cmd, &path, 0)
			return nil
		},
	}
}

func newMultipathSpliceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "splice <base-id> [base-id...] -- <branch-id> [branch-id...]",
		Short: "Splice a second linear path onto a tree built from the first",
		Long: `Builds a tree from the ids before "--" and splices the ids after "--" into
it. The branch's first id must equal the base tree's root id.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			split := cmd.ArgsLenAtDash()
			if split < 0 {
				return fmt.Errorf("splice requires a -- separator between the base path and the branch")
			}
			base, branch := args[:split], args[split:]

			path, err := multipath.FromLinear(toIDs(base))
			if err != nil {
				return err
			}
			if ok := path.Splice(toIDs(branch)); !ok {
				return fmt.Errorf("branch root %q does not match base root %q", branch[0], base[0])
			}
			printPath(cmd, &path, 0)
			return nil
		},
	}
}

func toIDs(args []string) []peerid.ID {
	out := make([]peerid.ID, len(args))
	for i, a := range args {
		out[i] = peerid.ID(a)
	}
	return out
}

func printPath(cmd *cobra.Command, p *multipath.Path, depth int) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", strings.Repeat("  ", depth), p.ID())
	for _, child := range p.Children() {
		child := child
		printPath(cmd, &child, depth+1)
	}
}
