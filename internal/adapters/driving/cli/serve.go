package cli

import (
	"github.com/spf13/cobra"

	"github.com/abhinay-x/studymate-sub000/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves search and document management as a JSON API.

Endpoints:
  POST   /v1/documents        add a document
  GET    /v1/documents        list documents
  DELETE /v1/documents/{id}   remove a document
  POST   /v1/search           search
  GET    /v1/stats            index statistics
  DELETE /v1/index            clear the index
  GET    /health              embedding service health
  GET    /metrics             Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	svc, err := requireRetrieval()
	if err != nil {
		return err
	}

	addr := appSettings.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	var opts []httpapi.Option
	if metricsRegistry != nil {
		opts = append(opts, httpapi.WithMetrics(appMetrics, metricsRegistry))
	}
	if embeddingService != nil {
		opts = append(opts, httpapi.WithHealthCheck(embeddingService))
	}

	server := httpapi.New(svc, httpapi.Config{
		Addr:           addr,
		RequestTimeout: requestTimeout(),
		Defaults:       searchDefaults(),
	}, opts...)

	cmd.Printf("StudyMate API listening on %s\n", addr)
	return server.Run(cmd.Context())
}
