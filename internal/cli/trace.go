package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/signalsfoundry/pcb-trace-analyzer/core"
	"github.com/signalsfoundry/pcb-trace-analyzer/model"
	"github.com/spf13/cobra"
)

func newLengthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "length <from> <to>",
		Short: "Print the trace length in mm between two pads (e.g. U1.11 R66.1)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRefs(args)
			if err != nil {
				return err
			}
			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}
			res, err := a.svc.Trace(cmd.Context(), from, to)
			if err != nil {
				return fmt.Errorf("%s to %s: %w", from, to, err)
			}
			return a.emit(core.PairLength{From: from, To: to, LengthMM: res.LengthMM}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s mm\n", mm(res.LengthMM))
				return err
			})
		},
	}
}

func newPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Describe the path between two pads element by element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRefs(args)
			if err != nil {
				return err
			}
			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}
			res := a.svc.TracePath(cmd.Context(), from, to)
			return a.emit(res, func(w io.Writer) error {
				if !res.Exists {
					_, err := fmt.Fprintf(w, "No path from %s to %s: %s\n", from, to, res.Reason)
					return err
				}
				fmt.Fprintf(w, "%s (net %s, strategy %s)\n", res.Description, res.Net, res.Strategy)
				rows := make([][]string, 0, len(res.Elements))
				for _, e := range res.Elements {
					rows = append(rows, []string{strconv.Itoa(e.Index), e.Type, describeElement(e), strconv.Itoa(e.Layer), mm(e.LengthMM)})
				}
				return table(w, []string{"#", "TYPE", "WHERE", "LAYER", "LENGTH_MM"}, rows)
			})
		},
	}
}

func describeElement(e core.PathElement) string {
	switch {
	case e.Component != "":
		return e.Component + "." + e.Pad
	case e.Start != nil && e.End != nil:
		return fmt.Sprintf("(%.2f,%.2f)-(%.2f,%.2f)", e.Start.X, e.Start.Y, e.End.X, e.End.Y)
	case e.Location != nil:
		return fmt.Sprintf("(%.2f,%.2f) L%d-L%d", e.Location.X, e.Location.Y, e.FromLayer, e.ToLayer)
	default:
		return ""
	}
}

func newImpedanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "impedance <from> <to>",
		Short: "Estimate the characteristic impedance along the path between two pads",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRefs(args)
			if err != nil {
				return err
			}
			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}
			res, err := a.svc.Impedance(cmd.Context(), from, to)
			if err != nil {
				return fmt.Errorf("%s to %s: %w", from, to, err)
			}
			return a.emit(res, func(w io.Writer) error {
				fmt.Fprintf(w, "Impedance %s to %s: %.2f ohm (min %.2f, max %.2f) over %s mm\n",
					from, to, res.ImpedanceOhms, res.MinImpedance, res.MaxImpedance, mm(res.TotalLengthMM))
				rows := make([][]string, 0, len(res.Segments))
				for _, s := range res.Segments {
					rows = append(rows, []string{
						strconv.Itoa(s.Index),
						strconv.Itoa(s.Layer),
						fmt.Sprintf("%.2f", s.Width),
						mm(s.LengthMM),
						fmt.Sprintf("%.2f", s.EffectiveDielectric),
						fmt.Sprintf("%.2f", s.ImpedanceOhms),
					})
				}
				return table(w, []string{"#", "LAYER", "WIDTH", "LENGTH_MM", "ER_EFF", "OHMS"}, rows)
			})
		},
	}
}

func newMultiNetCmd(a *app) *cobra.Command {
	var jumperFlags []string
	cmd := &cobra.Command{
		Use:   "multinet <from> <to>",
		Short: "Find a path between pads that may cross nets through jumpers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRefs(args)
			if err != nil {
				return err
			}
			jumpers, err := parseJumpers(jumperFlags)
			if err != nil {
				return err
			}
			if err := a.loadBoard(cmd.Context()); err != nil {
				return err
			}
			res, err := a.svc.MultiNet(cmd.Context(), from, to, jumpers...)
			if err != nil {
				return fmt.Errorf("%s to %s: %w", from, to, err)
			}
			return a.emit(res, func(w io.Writer) error {
				fmt.Fprintf(w, "Path %s (%s mm, %d jumpers)\n", joinRefs(res.Path), mm(res.TotalLengthMM), len(res.Jumpers))
				rows := make([][]string, 0, len(res.NetSegments))
				for _, s := range res.NetSegments {
					rows = append(rows, []string{s.Net, joinRefs(s.Pads), mm(s.LengthMM)})
				}
				return table(w, []string{"NET", "PADS", "LENGTH_MM"}, rows)
			})
		},
	}
	cmd.Flags().StringArrayVar(&jumperFlags, "jumper", nil, "explicit jumper as PAD=PAD (repeatable), e.g. R10.1=R10.2")
	return cmd
}

func parseJumpers(flags []string) ([]core.Jumper, error) {
	jumpers := make([]core.Jumper, 0, len(flags))
	for _, f := range flags {
		left, right, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid jumper %q: expected PAD=PAD", f)
		}
		ja, err := model.ParsePadRef(left)
		if err != nil {
			return nil, fmt.Errorf("invalid jumper %q: %w", f, err)
		}
		jb, err := model.ParsePadRef(right)
		if err != nil {
			return nil, fmt.Errorf("invalid jumper %q: %w", f, err)
		}
		jumpers = append(jumpers, core.Jumper{A: ja, B: jb})
	}
	return jumpers, nil
}
