package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/effective-security/pkcs10/cmd/csr-tool/cli"
	"github.com/effective-security/pkcs10/internal/version"
	"github.com/effective-security/x/ctl"
)

type app struct {
	cli.Cli

	Csr cli.CsrCmd `cmd:"" help:"Certificate request commands"`
	Key cli.KeyCmd `cmd:"" help:"Key commands"`
}

func main() {
	realMain(os.Args, os.Stdin, os.Stdout, os.Stderr, os.Exit)
}

func realMain(args []string, in io.Reader, out io.Writer, errout io.Writer, exit func(int)) {
	cl := app{
		Cli: cli.Cli{},
	}
	cl.Cli.WithReader(in).
		WithErrWriter(errout).
		WithWriter(out)

	parser, err := kong.New(&cl,
		kong.Name("csr-tool"),
		kong.Description("PKCS#10 certificate request tool"),
		kong.Writers(out, errout),
		kong.Exit(exit),
		ctl.BoolPtrMapper,
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version.Current().String(),
		})
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args[1:])
	parser.FatalIfErrorf(err)

	if ctx != nil {
		if cl.Debug {
			// in DEBUG more print command line
			_, _ = fmt.Fprintf(ctx.Stdout, "#\n# %s\n#\n", strings.Join(args, " "))
		}
		err = ctx.Run(&cl.Cli)
		ctx.FatalIfErrorf(err)
	}
}
