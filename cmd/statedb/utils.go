// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"github.com/wzj13456/shardeum/cmd/statedb/httpserver"
	"github.com/wzj13456/shardeum/log"
	"github.com/wzj13456/shardeum/metrics"
	"github.com/wzj13456/shardeum/muxdb"
	"github.com/wzj13456/shardeum/shard"
	cli "gopkg.in/urfave/cli.v1"
)

func initLogger(ctx *cli.Context) {
	lvl := log.FromVerbosity(ctx.GlobalInt(verbosityFlag.Name))

	var handler slog.Handler
	if ctx.GlobalBool(jsonLogsFlag.Name) {
		handler = log.JSONHandler(os.Stderr, lvl)
	} else {
		handler = log.NewTerminalHandler(os.Stderr, lvl)
	}
	log.SetDefault(handler)
}

// startMetricsServer serves prometheus metrics when --metrics-addr is set.
// The returned func stops the server, it is nil when metrics are disabled.
func startMetricsServer(ctx *cli.Context) (func(), error) {
	addr := ctx.GlobalString(metricsAddrFlag.Name)
	if addr == "" {
		return nil, nil
	}
	metrics.InitializePrometheusMetrics()

	url, closeFunc, err := httpserver.StartMetricsServer(addr)
	if err != nil {
		return nil, err
	}
	logger.Info("metrics server started", "url", url)
	return func() {
		logger.Info("stopping metrics server...")
		closeFunc()
	}, nil
}

func openMainDB(ctx *cli.Context) (*muxdb.MuxDB, error) {
	dir := ctx.GlobalString(dataDirFlag.Name)
	if dir == "" {
		return nil, errors.New("unable to infer default data dir, use -data-dir to specify")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir %v", dir)
	}
	path := filepath.Join(dir, "main.db")
	db, err := muxdb.Open(path, &muxdb.Options{
		OpenFilesCacheCapacity: 256,
		ReadCacheMB:            ctx.GlobalInt(cacheFlag.Name),
		WriteBufferMB:          16,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", path)
	}
	logger.Debug("main database opened", "path", path)
	return db, nil
}

func loadShardConfig(ctx *cli.Context) (*shard.Config, error) {
	path := ctx.GlobalString(configFlag.Name)
	if path == "" {
		return shard.DefaultConfig(), nil
	}
	return shard.LoadConfig(path)
}

// copy from go-ethereum
func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "shardeum-statedb")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "shardeum-statedb")
		default:
			return filepath.Join(home, ".shardeum-statedb")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
