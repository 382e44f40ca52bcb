// Command vulnscan disassembles a native executable and reports patterns
// indicative of unsafe library calls, heap overflows, and command
// injection risks.
//
// Usage: vulnscan <binary>
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"vulnscan"
)

func main() {
	app := &cli.App{
		Name:      "vulnscan",
		Usage:     "static vulnerability scanner for native executables",
		ArgsUsage: "<binary>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log pipeline debug detail to stderr"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "suppress warnings (errors only)"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	configureLogging(c)

	if c.Args().Len() != 1 {
		return cli.Exit(fmt.Sprintf("Usage: %s <binary>", c.App.Name), 1)
	}

	path := c.Args().First()
	fmt.Printf("Analyzing binary: %s\n", path)

	report := vulnscan.Analyze(path)
	fmt.Println(report.String())

	return nil
}

func configureLogging(c *cli.Context) {
	switch {
	case c.Bool("verbose"):
		logrus.SetLevel(logrus.DebugLevel)
	case c.Bool("quiet"):
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}
}
