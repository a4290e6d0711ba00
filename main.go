package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/va6996/tooldispatch/bootstrap"
	"github.com/va6996/tooldispatch/config"
	"github.com/va6996/tooldispatch/log"
)

// defaultQueries run when no query is given on the command line
var defaultQueries = []string{
	"What is the current time and date?",
	"Tell me a joke",
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		configPath string
		model      string
	)

	cmd := &cobra.Command{
		Use:   "tooldispatch [query...]",
		Short: "Send queries to an LLM and run the local tools it asks for",
		Long: `Sends each query to the configured chat-completion endpoint together with the
local tool definitions. Tool calls returned by the model are executed locally and
their output printed; plain answers are printed as-is.

Requires GROQ_API_KEY (environment, .env or config file).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg.LLM.SetModel(model)
			if err := log.Init(cfg.Log.Level); err != nil {
				return err
			}

			app, err := bootstrap.Setup(ctx, cfg, out)
			if err != nil {
				return err
			}

			queries := args
			if len(queries) == 0 {
				queries = defaultQueries
			}

			_, err = app.Dispatcher.Run(ctx, queries)
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config file (optional)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name for the selected provider, overrides LLM_MODEL / OLLAMA_MODEL")
	return cmd
}

func main() {
	if err := log.Init("info"); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		log.Errorf(context.Background(), "%v", err)
		stop()
		os.Exit(1)
	}
}
