// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	"github.com/wzj13456/shardeum/log"
	cli "gopkg.in/urfave/cli.v1"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "statedb")

	stopMetrics func()
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "statedb",
		Usage:   "Run transactions against the sharded state and inspect it",
		Flags: []cli.Flag{
			dataDirFlag,
			configFlag,
			verbosityFlag,
			jsonLogsFlag,
			metricsAddrFlag,
			cacheFlag,
		},
		Before: func(ctx *cli.Context) error {
			initLogger(ctx)
			var err error
			stopMetrics, err = startMetricsServer(ctx)
			return err
		},
		After: func(*cli.Context) error {
			if stopMetrics != nil {
				stopMetrics()
			}
			return nil
		},
		Commands: []cli.Command{
			{
				Name:      "apply",
				Usage:     "execute a transaction fixture and commit its writes",
				ArgsUsage: "<tx.yaml>",
				Flags:     []cli.Flag{blobInFlag, blobOutFlag, accountCacheFlag, dryRunFlag},
				Action:    applyAction,
			},
			{
				Name:      "account",
				Usage:     "print a committed account",
				ArgsUsage: "<address>",
				Action:    accountAction,
			},
			{
				Name:      "storage",
				Usage:     "print a committed storage value",
				ArgsUsage: "<address> <key>",
				Action:    storageAction,
			},
			{
				Name:   "root",
				Usage:  "print the world trie root",
				Action: rootAction,
			},
			{
				Name:      "prove",
				Usage:     "print and verify the merkle proof of a storage slot",
				ArgsUsage: "<address> <key>",
				Action:    proveAction,
			},
			{
				Name:      "inspect",
				Usage:     "dump an account with its raw encoding",
				ArgsUsage: "<address>",
				Action:    inspectAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
