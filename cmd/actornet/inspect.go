package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/actornet/config"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <scenario.yaml>",
		Short: "Build a scenario and print its actors and edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := config.LoadScenario(args[0])
			if err != nil {
				return err
			}

			network, err := config.Build(scenario, config.DefaultEnv())
			if err != nil {
				return err
			}

			topo := network.World.Topology()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "%s: %d actors, %d edges, %d ticks\n",
				network.World.Name(), topo.NumNodes(), topo.NumEdges(),
				network.Ticks)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EDGE\tA\tB")

			for _, actorID := range topo.Nodes() {
				for _, e := range topo.EdgesOf(actorID) {
					edge, ok := topo.Endpoints(e)
					if !ok || edge.A != actorID {
						continue
					}

					fmt.Fprintf(tw, "%d\t%s\t%s\n", edge.ID,
						network.NameOf(edge.A), network.NameOf(edge.B))
				}
			}

			return tw.Flush()
		},
	}
}
