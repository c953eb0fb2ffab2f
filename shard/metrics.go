// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shard

import "github.com/wzj13456/shardeum/metrics"

var metricFetchCount = metrics.LazyLoadCounterVec("shard_fetch_count", []string{"target", "result"})
