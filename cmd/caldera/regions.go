package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"caldera/internal/config"
	"caldera/internal/heap"
	"caldera/internal/snapshot"
)

var regionsCmd = &cobra.Command{
	Use:   "regions <snapshot>",
	Short: "Print the region table of a heap snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegions,
}

func runRegions(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	applyColorMode(colorFlag, cfg.Output.Color)

	m, err := snapshot.Read(args[0])
	if err != nil {
		return err
	}

	g := m.Geometry()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IDX\tRANGE\tSTATE\tUSED\tOBJECTS\tCSET")
	for i := 0; i < m.RegionCount(); i++ {
		r := m.Region(i)
		cset := ""
		if m.InCollectionSet(r.Start) {
			cset = color.New(color.FgRed).Sprint("cset")
		}
		fmt.Fprintf(w, "%d\t[%s:%s)\t%s\t%d/%d\t%d\t%s\n",
			i, r.Start, r.End, stateLabel(r), r.Used, g.RegionWords, len(m.ObjectsIn(i)), cset)
	}
	return w.Flush()
}

func stateLabel(r *heap.Region) string {
	s := r.State.String()
	switch r.State {
	case heap.RegionActive:
		return color.New(color.FgGreen).Sprint(s)
	case heap.RegionHumongousStart, heap.RegionHumongousCont:
		return color.New(color.FgYellow).Sprint(s)
	case heap.RegionTrash:
		return color.New(color.FgRed).Sprint(s)
	default:
		return s
	}
}
