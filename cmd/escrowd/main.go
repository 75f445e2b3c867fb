package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/weave-escrow"
	escrowd "github.com/iov-one/weave-escrow/cmd/escrowd/app"
	"github.com/iov-one/weave-escrow/commands"
	"github.com/iov-one/weave-escrow/commands/server"
	"github.com/tendermint/tendermint/libs/cli/flags"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	flagHome     = "home"
	flagLogLevel = "log_level"
	varHome      *string
	varLogLevel  *string
)

func init() {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".escrowd")
	varHome = flag.String(flagHome, defaultHome, "directory to store files under")
	varLogLevel = flag.String(flagLogLevel, "*:info", "log level, for example state:debug,*:error")

	flag.CommandLine.Usage = helpMessage
}

func helpMessage() {
	fmt.Println("escrowd")
	fmt.Println("          Relayer mediated escrow node")
	fmt.Println("")
	fmt.Println("help      Print this message")
	fmt.Println("init      Initialize app options in genesis file")
	fmt.Println("start     Run the abci server")
	fmt.Println("validate  Check that genesis files can be loaded")
	fmt.Println("getblock  Extract a block from blockstore.db")
	fmt.Println("testgen   Write example encodings into a directory")
	fmt.Println("version   Print the app version")
	fmt.Println(`
  -home string
        directory to store files under (default "$HOME/.escrowd")
  -log_level string
        log level (default "*:info")`)
}

func main() {
	flag.Parse()

	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout))
	logger, err := flags.ParseLogLevel(*varLogLevel, logger, "info")
	if err != nil {
		fmt.Printf("Error: %+v\n", err)
		os.Exit(1)
	}
	logger = logger.With("module", "escrow")

	if flag.NArg() == 0 {
		fmt.Println("Missing command:")
		helpMessage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]

	switch cmd {
	case "help":
		helpMessage()
	case "init":
		err = server.InitCmd(escrowd.GenInitOptions, logger, *varHome, rest)
	case "start":
		err = server.StartCmd(escrowd.GenerateApp, logger, *varHome, rest)
	case "validate":
		err = server.ValidateGenesis(escrowd.Initializers(), rest)
	case "getblock":
		err = server.GetBlockCmd(os.Stdout, rest)
	case "testgen":
		err = commands.TestGenCmd(escrowd.Examples(), rest)
	case "version":
		fmt.Println(weave.Version())
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		fmt.Printf("Error: %+v\n\n", err)
		helpMessage()
		os.Exit(1)
	}
}
