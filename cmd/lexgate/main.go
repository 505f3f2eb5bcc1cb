// Copyright 2026 Athena Law
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command lexgate is the legal-data tool gateway CLI.
//
// Usage:
//
//	lexgate serve --config lexgate.yaml
//	lexgate tools
//	lexgate call court_search '{"query": "стягнення заборгованості"}'
//	lexgate ingest "оренда землі" --max-pages 5
//	lexgate chain 757/1234/24 --group
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"

	"github.com/athenalaw/lexgate/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the HTTP tool-serving gateway."`
	Tools   ToolsCmd   `cmd:"" help:"List all available tools, local and remote."`
	Call    CallCmd    `cmd:"" help:"Execute one tool by name."`
	Ingest  IngestCmd  `cmd:"" help:"Run a bulk court-decision ingestion."`
	Chain   ChainCmd   `cmd:"" help:"Build the document chain of one case."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("lexgate version %s\n", version)
	return nil
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("lexgate"),
		kong.Description("Gateway between AI agents and legal-data providers."),
		kong.UsageOnError(),
	)

	output := os.Stderr
	var closeLog func()
	if cli.LogFile != "" {
		file, closer, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
			os.Exit(1)
		}
		output = file
		closeLog = closer
	}
	logger.Init(logger.ParseLevel(cli.LogLevel), output, cli.LogFormat)
	if closeLog != nil {
		defer closeLog()
	}

	if err := kctx.Run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "lexgate: %v\n", err)
		if closeLog != nil {
			closeLog()
		}
		os.Exit(1)
	}
}
