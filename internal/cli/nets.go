package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

func newNetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "nets",
		Short: "List nets with their component and pad counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}
			nets := a.svc.Nets(cmd.Context())
			return a.emit(nets, func(w io.Writer) error {
				rows := make([][]string, 0, len(nets))
				for _, n := range nets {
					rows = append(rows, []string{n.Name, strconv.Itoa(n.ComponentCount), strconv.Itoa(n.PadCount)})
				}
				return table(w, []string{"NET", "COMPONENTS", "PADS"}, rows)
			})
		},
	}
}

func newComponentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "components <net>",
		Short: "List the components and pads attached to a net",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}
			comps := a.svc.ComponentsByNet(cmd.Context(), args[0])
			return a.emit(comps, func(w io.Writer) error {
				var rows [][]string
				for _, c := range comps {
					for _, p := range c.Pads {
						rows = append(rows, []string{c.Designator, p.Pad, fmt.Sprintf("(%.2f,%.2f)", p.Location.X, p.Location.Y), strconv.Itoa(p.Layer)})
					}
				}
				return table(w, []string{"COMPONENT", "PAD", "LOCATION", "LAYER"}, rows)
			})
		},
	}
}

func newNetReportCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "net-report <net>",
		Short: "Report pad-to-pad lengths, critical paths or copper details of a net",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}
			ctx, net := cmd.Context(), args[0]
			switch kind {
			case "lengths":
				pairs := a.svc.NetTraceLengths(ctx, net)
				return a.emit(pairs, func(w io.Writer) error {
					rows := make([][]string, 0, len(pairs))
					for _, p := range pairs {
						rows = append(rows, []string{p.From.String(), p.To.String(), mm(p.LengthMM)})
					}
					return table(w, []string{"FROM", "TO", "LENGTH_MM"}, rows)
				})
			case "critical":
				rep := a.svc.CriticalPaths(ctx, net)
				return a.emit(rep, func(w io.Writer) error {
					if rep == nil || rep.Longest == nil {
						_, err := fmt.Fprintf(w, "No traced paths on net %s\n", net)
						return err
					}
					fmt.Fprintf(w, "Net %s: longest %s -> %s (%s mm), total %s mm\n",
						rep.Net, rep.Longest.From, rep.Longest.To, mm(rep.Longest.LengthMM), mm(rep.TotalLengthMM))
					rows := make([][]string, 0, len(rep.Paths))
					for _, p := range rep.Paths {
						rows = append(rows, []string{p.From.String(), p.To.String(), mm(p.LengthMM)})
					}
					return table(w, []string{"FROM", "TO", "LENGTH_MM"}, rows)
				})
			case "details":
				d := a.svc.NetDetails(ctx, net)
				return a.emit(d, func(w io.Writer) error {
					if d == nil {
						_, err := fmt.Fprintf(w, "Net %s not found\n", net)
						return err
					}
					fmt.Fprintf(w, "Net %s: %d pads, %d segments, %d vias\n", d.Net, len(d.Pads), len(d.Segments), len(d.Vias))
					if d.Connection != nil {
						fmt.Fprintf(w, "Connection %s -> %s: %s mm\n", d.Connection.From, d.Connection.To, mm(d.Connection.LengthMM))
					}
					return nil
				})
			default:
				return fmt.Errorf("unknown report kind %q; expected lengths, critical or details", kind)
			}
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "critical", "report kind (lengths, critical, details)")
	return cmd
}
