// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the state database",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the shard config (YAML), single shard if omitted",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "log-json",
		Usage: "output logs in JSON format",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "serve prometheus metrics on this address, disabled if empty",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 64,
		Usage: "megabytes of read cache for the database",
	}
	blobOutFlag = cli.StringFlag{
		Name:  "blob-out",
		Usage: "write the encoded transfer blob to this file",
	}
	blobInFlag = cli.StringFlag{
		Name:  "blob-in",
		Usage: "preload first reads from a transfer blob written by --blob-out",
	}
	accountCacheFlag = cli.IntFlag{
		Name:  "account-cache",
		Value: 4096,
		Usage: "number of decoded accounts to keep in memory",
	}
	dryRunFlag = cli.BoolFlag{
		Name:  "dry-run",
		Usage: "execute without committing",
	}
)
