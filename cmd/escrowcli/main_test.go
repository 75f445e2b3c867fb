package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iov-one/weave-escrow/client"
	escrowd "github.com/iov-one/weave-escrow/cmd/escrowd/app"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/tendermint/tendermint/libs/log"
	nm "github.com/tendermint/tendermint/node"
	rpctest "github.com/tendermint/tendermint/rpc/test"
	tm "github.com/tendermint/tendermint/types"
)

var (
	// tmURL is the RPC address of the node all tests talk to.
	tmURL string

	// relayerKeyPath points to the key of the account that is both the
	// relayer and the owner of all genesis funds.
	relayerKeyPath string
	// payerKeyPath points to the key of an account without funds.
	payerKeyPath string
)

func TestMain(m *testing.M) {
	os.Exit(runTestMain(m))
}

// we need to do setup in a separate function, so cleanup is properly called
// os.Exit(code) above will never call defer
func runTestMain(m *testing.M) int {
	keysDir, err := ioutil.TempDir("", "escrowcli")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(keysDir)

	relayer := crypto.GenPrivKeyEd25519()
	relayerKeyPath = filepath.Join(keysDir, "relayer.key")
	payerKeyPath = filepath.Join(keysDir, "payer.key")
	if err := ioutil.WriteFile(relayerKeyPath, relayer.Ed25519, 0600); err != nil {
		panic(err)
	}
	if err := ioutil.WriteFile(payerKeyPath, crypto.GenPrivKeyEd25519().Ed25519, 0600); err != nil {
		panic(err)
	}

	config := rpctest.GetConfig()
	config.Moniker = "EscrowCliTest"
	tmURL = "http://localhost" + config.RPC.ListenAddress[strings.LastIndex(config.RPC.ListenAddress, ":"):]

	if err := initGenesis(config.GenesisFile(), relayer.PublicKey().Address().String()); err != nil {
		panic(err)
	}
	app, err := escrowd.GenerateApp(config.RootDir, log.NewNopLogger(), false)
	if err != nil {
		panic(err)
	}
	return client.TestWithTendermint(app, func(*nm.Node) {}, m)
}

func initGenesis(filename string, operator string) error {
	doc, err := tm.GenesisDocFromFile(filename)
	if err != nil {
		return err
	}
	appState, err := escrowd.GenInitOptions([]string{operator})
	if err != nil {
		return fmt.Errorf("app state: %s", err)
	}
	doc.AppState = appState
	return doc.SaveAs(filename)
}
