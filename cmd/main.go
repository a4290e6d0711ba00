// Command toolctl lists and runs the registered tools locally, without a
// model or credentials. Useful for checking a tool's output and argument
// handling in isolation.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/va6996/tooldispatch/bootstrap"
	"github.com/va6996/tooldispatch/log"
)

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "toolctl",
		Short:         "Inspect and invoke local tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := bootstrap.NewRegistry()
			if err != nil {
				return err
			}
			for _, def := range registry.Definitions() {
				fmt.Fprintf(out, "%s\t%s\n", def.Name, def.Description)
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "invoke <tool> [json-args]",
		Short: "Invoke a tool with an optional JSON argument payload",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := bootstrap.NewRegistry()
			if err != nil {
				return err
			}
			payload := ""
			if len(args) == 2 {
				payload = args[1]
			}
			result, err := registry.Invoke(cmd.Context(), args[0], payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, result)
			return nil
		},
	})

	return root
}

func main() {
	if err := log.Init("info"); err != nil {
		panic(err)
	}
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		log.Errorf(context.Background(), "%v", err)
		os.Exit(1)
	}
}
