package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/history"
	"github.com/aretw0/history/internal/presentation/graph"
	"github.com/aretw0/history/internal/presentation/tui"
	"github.com/aretw0/history/pkg/script"
	"github.com/muesli/termenv"
)

// Report formats for script runs.
const (
	FormatMarkdown = "markdown"
	FormatMermaid  = "mermaid"
	FormatJSON     = "json"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	ScriptPath string
	SessionID  string
	Headless   bool
	Pretty     bool
	Format     string
	Input      io.Reader
	Output     io.Writer
}

// Execute handles the 'run' command logic, dispatching to Script or Runner mode.
func Execute(ctx context.Context, stack *Stack, opts RunOptions) error {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	if opts.ScriptPath != "" {
		if opts.SessionID != "" {
			return fmt.Errorf("--session cannot be used with a script")
		}
		return runScript(stack, opts)
	}
	return exitError(runInteractive(ctx, stack, opts))
}

func runScript(stack *Stack, opts RunOptions) error {
	s, err := script.Load(opts.ScriptPath)
	if err != nil {
		return err
	}

	report, err := script.Run(s, stack.HistoryOptions...)
	if err != nil {
		return err
	}

	switch opts.Format {
	case FormatMermaid:
		fmt.Fprint(opts.Output, graph.GenerateMermaid(report.Snapshot))
	case FormatJSON:
		if err := json.NewEncoder(opts.Output).Encode(newReportView(report)); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	default:
		md := report.Markdown()
		if opts.Pretty {
			rendered, err := tui.NewRenderer()(md)
			if err != nil {
				stack.Logger.Warn("markdown rendering failed, printing raw report", "err", err)
			} else {
				md = rendered
			}
		}
		fmt.Fprint(opts.Output, md)
	}

	return report.Err()
}

type stepView struct {
	Index    int              `json:"index"`
	Command  history.Command  `json:"command"`
	Location history.Location `json:"location"`
	Error    string           `json:"error,omitempty"`
}

type reportView struct {
	Name   string           `json:"name,omitempty"`
	Steps  []stepView       `json:"steps"`
	Final  history.Location `json:"final"`
	Failed int              `json:"failed"`
}

func newReportView(r *script.Report) reportView {
	v := reportView{Name: r.Name, Final: r.Final, Failed: len(r.Failed()), Steps: []stepView{}}
	for _, s := range r.Steps {
		sv := stepView{Index: s.Index, Command: s.Command, Location: s.Location}
		if s.Err != nil {
			sv.Error = s.Err.Error()
		}
		v.Steps = append(v.Steps, sv)
	}
	return v
}

func runInteractive(ctx context.Context, stack *Stack, opts RunOptions) error {
	var (
		h   *history.History
		err error
	)
	if opts.SessionID != "" {
		h, err = stack.Sessions().Open(ctx, opts.SessionID)
		if err != nil {
			return fmt.Errorf("failed to open session: %w", err)
		}
		if !opts.Headless {
			notice(opts.Output, "Session '%s' active.", opts.SessionID)
		}
	} else {
		h, err = stack.NewHistory()
		if err != nil {
			return err
		}
	}

	if !opts.Headless {
		tui.PrintBanner(opts.Output, history.Version)
	}

	r := history.NewRunner()
	r.Input = contextReader{ctx: ctx, r: opts.Input}
	r.Output = opts.Output
	r.Headless = opts.Headless
	if !opts.Headless {
		r.Renderer = tui.NewLocationRenderer(termenv.ColorProfile())
	}

	runErr := r.Run(h)

	if opts.SessionID != "" {
		// Persist whatever the runner reached, even after an error.
		if _, err := stack.Sessions().Do(context.WithoutCancel(ctx), opts.SessionID, func(*history.History) error { return nil }); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		if !opts.Headless {
			notice(opts.Output, "Session '%s' saved at '%s'.", opts.SessionID, h.Location().Path())
		}
	}
	return runErr
}
