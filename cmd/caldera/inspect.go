package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"caldera/internal/config"
	"caldera/internal/heap"
	"caldera/internal/snapshot"
	"caldera/internal/verify"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <snapshot>",
	Short: "Render one address of a heap snapshot as a diagnostic would",
	Long:  `Render a single address the way a failure report would, at a chosen safety level. Use --location to render the address as a raw memory slot instead of an object.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().String("addr", "", "address to render (decimal or 0x hex)")
	inspectCmd.Flags().String("level", "all", "safety level (unknown|object|object+fwd|all)")
	inspectCmd.Flags().Bool("location", false, "render as a raw memory slot, not an object")
	_ = inspectCmd.MarkFlagRequired("addr")
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	applyColorMode(colorFlag, cfg.Output.Color)

	addrStr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("failed to get addr flag: %w", err)
	}
	raw, err := strconv.ParseUint(addrStr, 0, 64)
	if err != nil {
		return fmt.Errorf("bad address %q: %w", addrStr, err)
	}
	addr := heap.Addr(raw)

	levelStr, err := cmd.Flags().GetString("level")
	if err != nil {
		return fmt.Errorf("failed to get level flag: %w", err)
	}
	level, ok := verify.ParseSafetyLevel(levelStr)
	if !ok {
		return fmt.Errorf("unknown safety level %q (unknown|object|object+fwd|all)", levelStr)
	}

	asLocation, err := cmd.Flags().GetBool("location")
	if err != nil {
		return fmt.Errorf("failed to get location flag: %w", err)
	}

	m, err := snapshot.Read(args[0])
	if err != nil {
		return err
	}

	r := verify.NewRenderer(m)
	var b strings.Builder
	if asLocation {
		r.Location(&b, addr)
	} else {
		r.Object(&b, level, addr)
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}
