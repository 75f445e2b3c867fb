package server

import (
	"flag"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagBind  = "bind"
	flagDebug = "debug"
)

// StartOptions are the flags understood by the start command.
type StartOptions struct {
	Bind  string
	Debug bool
}

func parseStartArgs(args []string) (StartOptions, error) {
	opts := StartOptions{}
	startFlags := flag.NewFlagSet("start", flag.ContinueOnError)
	startFlags.StringVar(&opts.Bind, flagBind, "tcp://localhost:26658", "address server listens on")
	startFlags.BoolVar(&opts.Debug, flagDebug, false, "call stack returned on error")
	if err := startFlags.Parse(args); err != nil {
		return opts, errors.Wrap(errors.ErrInput, err.Error())
	}
	return opts, nil
}

// AppGenerator lets us lazily initialize app, using home dir
// and logger potentially initialized with other flags
type AppGenerator func(home string, logger log.Logger, debug bool) (abci.Application, error)

// StartCmd initializes the application and serves it over an ABCI socket
// until the process receives a termination signal.
func StartCmd(gen AppGenerator, logger log.Logger, home string, args []string) error {
	opts, err := parseStartArgs(args)
	if err != nil {
		return err
	}

	// Generate the app in the proper dir
	app, err := gen(home, logger, opts.Debug)
	if err != nil {
		return err
	}

	svr, err := newServer(app, logger, opts.Bind)
	if err != nil {
		return err
	}
	if err := svr.Start(); err != nil {
		return errors.Wrap(err, "cannot start abci server")
	}
	logger.Info("Started ABCI app", "bind", opts.Bind)

	// Stop the server on a termination signal. TrapSignal exits the
	// process once the callback returns.
	cmn.TrapSignal(logger, func() {
		if err := svr.Stop(); err != nil {
			logger.Error("Cannot stop server", "err", err)
		}
	})

	// Wait forever
	select {}
}

func newServer(app abci.Application, logger log.Logger, bind string) (cmn.Service, error) {
	svr, err := server.NewServer(bind, "socket", app)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot create listener: %s", err)
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	return svr, nil
}
