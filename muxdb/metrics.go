// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import (
	"github.com/wzj13456/shardeum/metrics"
)

var (
	metricTrieCommitCount = metrics.LazyLoadCounter("muxdb_trie_commit_count")
	metricScopeCommitMs   = metrics.LazyLoadHistogram("muxdb_scope_commit_duration_ms", metrics.BucketCommitMs)
	metricOpenTries       = metrics.LazyLoadGauge("muxdb_open_tries")
)
