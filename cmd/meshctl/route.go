package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	internalrt "github.com/driftmesh/overlay/internal/routingtable"
	"github.com/driftmesh/overlay/pkg/peerid"
	"github.com/driftmesh/overlay/pkg/routingtable"
)

// stringHandle is the routingtable.Handle used when a file-described
// neighbor carries no richer transport handle than its own name.
type stringHandle string

func (h stringHandle) String() string { return string(h) }

func newRouteCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "route <edges-file>",
		Short: "Answer distance/first-hop queries against a plain-text edge list",
		Long: `Loads a routing table from a plain-text edge file and either prints the
shortest distance and first hop to --target, or, with no --target, dumps
every direct neighbor and its advertised indirect distances.

Edge file lines are one of:
  peer <id> <handle>                 a direct neighbor and its handle
  dist <last-hop> <origin> <n>       last-hop's advertised distance to origin
Blank lines and lines starting with # are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			tbl, err := loadTable(f)
			if err != nil {
				return err
			}

			if target != "" {
				return printDistance(cmd, tbl, peerid.ID(target))
			}
			dumpTable(cmd, tbl)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "print distance/first-hop to this id instead of dumping the whole table")

	return cmd
}

func loadTable(r io.Reader) (*internalrt.Table, error) {
	tbl := internalrt.New()
	scanner := bufio.NewScanner(r)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "peer":
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: want \"peer <id> <handle>\"", lineNum)
			}
			tbl.Put(peerid.ID(fields[1]), stringHandle(fields[2]))
		case "dist":
			if len(fields) != 4 {
				return nil, fmt.Errorf("line %d: want \"dist <last-hop> <origin> <n>\"", lineNum)
			}
			n, err := strconv.Atoi(fields[3])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			tbl.RecordDistance(peerid.ID(fields[1]), peerid.ID(fields[2]), n)
		default:
			return nil, fmt.Errorf("line %d: unrecognized directive %q", lineNum, fields[0])
		}
	}
	return tbl, scanner.Err()
}

func printDistance(cmd *cobra.Command, tbl routingtable.Table, target peerid.ID) error {
	out := cmd.OutOrStdout()
	distance, ok := tbl.DistanceTo(target)
	if !ok {
		fmt.Fprintf(out, "%s is unreachable\n", target)
		return nil
	}
	hop, handle, _ := tbl.ShortestFirstHop(target)
	fmt.Fprintf(out, "%s: distance %d via %s (%s)\n", target, distance, hop, handle.String())
	return nil
}

func dumpTable(cmd *cobra.Command, tbl *internalrt.Table) {
	out := cmd.OutOrStdout()
	neighbors := tbl.Neighbors()
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].Less(neighbors[j]) })
	for _, id := range neighbors {
		entry, _ := tbl.Entry(id)
		fmt.Fprintf(out, "%s (%s)\n", id, entry.Handle.String())
		origins := make([]peerid.ID, 0, len(entry.Distances))
		for origin := range entry.Distances {
			origins = append(origins, origin)
		}
		sort.Slice(origins, func(i, j int) bool { return origins[i].Less(origins[j]) })
		for _, origin := range origins {
			fmt.Fprintf(out, "  -> %s: %d\n", origin, entry.Distances[origin])
		}
	}
}
