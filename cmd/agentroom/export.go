package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/dusk-indust/agentroom/internal/export"
	"github.com/dusk-indust/agentroom/internal/llm"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		render bool
		style  string
	)
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Print a session transcript as JSON, Markdown or a Mermaid diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices(a.cfg, llm.OSEnv(), a.logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			se, err := export.ExportSession(cmd.Context(), svc.sessions, args[0])
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			if render {
				return writeRendered(a.stdout, se, style)
			}
			return writeExport(a.stdout, se, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, markdown or mermaid")
	cmd.Flags().BoolVar(&render, "render", false, "render the Markdown transcript for the terminal")
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style for --render: auto, dark, light or notty")
	return cmd
}

func writeExport(w io.Writer, se *export.SessionExport, format string) error {
	switch format {
	case "json":
		out, err := json.MarshalIndent(se, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = w.Write(append(out, '\n'))
		return err
	case "markdown", "md":
		_, err := io.WriteString(w, export.Markdown(se))
		return err
	case "mermaid":
		_, err := io.WriteString(w, export.GenerateMermaid(se.Messages))
		return err
	default:
		return fmt.Errorf("unknown format %q (want json, markdown or mermaid)", format)
	}
}

// writeRendered renders the Markdown export with glamour.
func writeRendered(w io.Writer, se *export.SessionExport, style string) error {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(80)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := renderer.Render(export.Markdown(se))
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
