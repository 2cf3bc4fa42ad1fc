// Package main is the concierge entrypoint: the API server plus the
// offline indexing and evaluation commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/retailsense/concierge/internal/profile"
	"github.com/retailsense/concierge/pipeline/evaluator"
	"github.com/retailsense/concierge/pipeline/indexer"
	"github.com/retailsense/concierge/plugin/nlp/intent"
	"github.com/retailsense/concierge/plugin/nlp/slot"
	"github.com/retailsense/concierge/server"
	"github.com/retailsense/concierge/server/retrieval"
	"github.com/retailsense/concierge/store"
	"github.com/retailsense/concierge/store/db"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Conversational NLP service for retail analytics",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p, err := loadProfile()
		if err != nil {
			return err
		}
		setupLogger(p)

		st, err := openStore(ctx, p)
		if err != nil {
			return err
		}

		srv, err := server.NewServer(ctx, p, st)
		if err != nil {
			_ = st.Close()
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			slog.Error("server failed", slog.Any("error", err))
			srv.Shutdown(ctx)
			return err
		case sig := <-shutdown:
			slog.Info("shutting down", slog.String("signal", sig.String()))
			srv.Shutdown(ctx)
		}
		return nil
	},
}

var indexCmd = &cobra.Command{
	Use:   "index <documents.json>",
	Short: "Load knowledge base documents and build their embeddings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := loadProfile()
		if err != nil {
			return err
		}
		setupLogger(p)

		st, err := openStore(ctx, p)
		if err != nil {
			return err
		}
		defer st.Close()

		var embedder retrieval.Embedder
		if p.EmbeddingAPIKey != "" {
			embedder, err = retrieval.NewEmbedder(p)
			if err != nil {
				return err
			}
		}

		workers, _ := cmd.Flags().GetInt("workers")
		ix, err := indexer.New(st, embedder, workers)
		if err != nil {
			return err
		}
		defer ix.Release()

		created, err := ix.LoadDocuments(ctx, args[0])
		if err != nil {
			return err
		}
		embedded, err := ix.EmbedMissing(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("loaded %d documents, embedded %d\n", created, embedded)
		return nil
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval <labeled.csv>",
	Short: "Evaluate intent and slot quality against a labeled query set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := loadProfile()
		if err != nil {
			return err
		}
		setupLogger(p)

		samples, err := evaluator.LoadSamples(args[0])
		if err != nil {
			return err
		}

		// The evaluation skips the LLM layer so results are
		// deterministic and reproducible without a model backend.
		ev := evaluator.New(
			intent.NewService(
				intent.NewRuleClassifier(),
				nil,
				intent.NewKeywordClassifier(p.IntentConfidenceThreshold),
			),
			slot.NewService(slot.NewRuleFiller(), nil),
		)
		report, err := ev.Run(ctx, samples)
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if output != "" {
			if err := evaluator.WriteReport(report, output); err != nil {
				return err
			}
		}
		fmt.Printf("intent accuracy %.4f, slot f1 %.4f, ece %.4f\n",
			report.Metrics.IntentAccuracy, report.Metrics.SlotF1, report.Metrics.CalibrationECE)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("mode", "dev", `mode of the server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of the server")
	rootCmd.PersistentFlags().Int("port", 8080, "port of the server")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")

	for _, flag := range []string{"mode", "addr", "port", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("concierge")
	viper.AutomaticEnv()

	indexCmd.Flags().Int("workers", 0, "embedding worker count, 0 picks a default")
	evalCmd.Flags().String("output", "", "path to write the JSON evaluation report")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(evalCmd)
}

func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version,
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func setupLogger(p *profile.Profile) {
	var handler slog.Handler
	if p.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	driver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, err
	}
	st := store.New(driver, p)
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
