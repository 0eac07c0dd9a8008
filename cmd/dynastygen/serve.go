package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/dynasty-gen/internal/api"
	"github.com/talgya/dynasty-gen/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve saved runs over HTTP",
	Long: `Serve exposes the run database given by --db as a read-only JSON API with
GEDCOM and CK3 downloads. When DYNASTYGEN_ADMIN_KEY is set, POST
/api/v1/generate accepts a JSON run configuration (merged onto the
effective config) from clients presenting it as a bearer token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := config.Load(v)
		if err != nil {
			return err
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		limit, _ := cmd.Flags().GetInt("generate-limit")
		srv := &api.Server{
			DB:            db,
			Addr:          v.GetString("serve.addr"),
			AdminKey:      v.GetString("admin_key"),
			Base:          base,
			GenerateLimit: limit,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Int("generate-limit", 30, "generate requests allowed per client per hour")
	v.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}
