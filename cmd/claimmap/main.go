package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-claimmap/internal/project"
	"github.com/joeblew999/plat-claimmap/internal/server"
)

// Options defines all CLI flags and env vars for the claimmap server.
// Flags: --host, --port, --config, --web-dir
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_CONFIG, SERVICE_WEB_DIR
type Options struct {
	Host   string `doc:"Host to bind to" default:"0.0.0.0"`
	Port   int    `doc:"Port to listen on" short:"p" default:"8087"`
	Config string `doc:"Path to a YAML or JSON config file"`
	WebDir string `doc:"Template directory overriding the embedded templates"`
}

func newServer(opts *Options) *server.Server {
	srv, err := server.New(server.Options{
		Host:       opts.Host,
		Port:       fmt.Sprintf("%d", opts.Port),
		ConfigFile: opts.Config,
		WebDir:     opts.WebDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting claimmap: %v\n", err)
		os.Exit(1)
	}
	return srv
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var httpServer *http.Server

		hooks.OnStart(func() {
			srv := newServer(opts)
			defer srv.Close()
			log := srv.Logger()

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			log.Info().
				Str("url", baseURL).
				Str("editor", baseURL+"/editor").
				Str("docs", baseURL+"/docs").
				Str("openapi", baseURL+"/openapi.json").
				Msg("claimmap server starting")

			httpServer = &http.Server{Addr: addr, Handler: srv}
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("server error")
			}
		})

		hooks.OnStop(func() {
			if httpServer != nil {
				httpServer.Shutdown(context.Background())
			}
		})
	})

	cli.Root().Use = "claimmap"
	cli.Root().Short = "Map property incidents and cameras, export PDF claim reports"
	cli.Root().Version = "1.0.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(opts)
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// render subcommand: build a PDF report from a saved project file
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render a PDF report from a saved project file",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			in, _ := cmd.Flags().GetString("project")
			out, _ := cmd.Flags().GetString("out")
			style, _ := cmd.Flags().GetString("style")
			autoFit, _ := cmd.Flags().GetBool("auto-fit")

			if err := render(opts, in, out, style, autoFit); err != nil {
				fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Report written to %s\n", out)
		}),
	}
	renderCmd.Flags().String("project", "", "Saved project JSON file")
	renderCmd.Flags().StringP("out", "o", "report.pdf", "Output PDF path")
	renderCmd.Flags().String("style", "", "Tile style, defaults to the configured default")
	renderCmd.Flags().Bool("auto-fit", false, "Frame the markers instead of the saved viewport")
	renderCmd.MarkFlagRequired("project")
	cli.Root().AddCommand(renderCmd)

	cli.Run()
}

func render(opts *Options, in, out, style string, autoFit bool) error {
	srv := newServer(opts)
	defer srv.Close()
	svc := srv.Service()

	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := project.Decode(f, svc.State().Snapshot())
	if err != nil {
		return err
	}
	pdf, err := svc.RenderProject(context.Background(), p, style, autoFit)
	if err != nil {
		return err
	}
	return os.WriteFile(out, pdf, 0o644)
}
