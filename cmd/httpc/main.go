// Command httpc sends a single HTTP/1.1 request from the command line and
// prints the response.
//
//	httpc get -v https://example.com/
//	httpc post -H 'Content-Type: application/json' -d '{"x":1}' https://api.example.com/things
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/httpwire/httpc/pkg/cli"
	"github.com/httpwire/httpc/pkg/client"
	"github.com/httpwire/httpc/pkg/constants"
	"github.com/httpwire/httpc/pkg/output"
)

func main() {
	inv, err := cli.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "httpc: %v\n", err)
		fmt.Fprintln(os.Stderr, `run "httpc help" for usage`)
		os.Exit(2)
	}

	switch inv.Action {
	case cli.ActionHelp:
		fmt.Print(cli.Usage())
	case cli.ActionVersion:
		fmt.Println(constants.Version)
	default:
		if err := run(inv); err != nil {
			fmt.Fprintf(os.Stderr, "httpc: %v\n", err)
			os.Exit(1)
		}
	}
}

func run(inv *cli.Invocation) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	chain, err := client.New().Do(ctx, inv.Request, inv.Options)
	if err != nil {
		return err
	}
	defer chain.Close()

	renderer := output.NewRenderer(os.Stdout, os.Stderr, inv.Verbosity, inv.ColorMode)
	if inv.OutputFile != "" {
		renderer.RenderMeta(chain)
		return output.WriteFile(chain.Final(), inv.OutputFile)
	}
	return renderer.Render(chain)
}
