package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/signalsfoundry/pcb-trace-analyzer/model"
)

// emit writes v as indented JSON when -o json is set, otherwise calls text.
func (a *app) emit(v any, text func(w io.Writer) error) error {
	if a.opts.OutputFormat == "json" {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(a.out)
}

func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

func mm(v float64) string { return fmt.Sprintf("%.5f", v) }

func joinRefs(refs []model.PadRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, " -> ")
}

func parseRefs(args []string) (model.PadRef, model.PadRef, error) {
	a, err := model.ParsePadRef(args[0])
	if err != nil {
		return model.PadRef{}, model.PadRef{}, err
	}
	b, err := model.ParsePadRef(args[1])
	if err != nil {
		return model.PadRef{}, model.PadRef{}, err
	}
	return a, b, nil
}
