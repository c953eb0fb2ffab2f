// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/wzj13456/shardeum/metrics"

var (
	metricReadCount      = metrics.LazyLoadCounterVec("state_read_count", []string{"source"})
	metricDeniedCount    = metrics.LazyLoadCounterVec("state_involvement_denied_count", []string{"target"})
	metricCommitDuration = metrics.LazyLoadHistogram("state_commit_duration_ms", metrics.BucketCommitMs)
)
