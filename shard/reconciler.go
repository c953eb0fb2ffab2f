// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shard

import "github.com/wzj13456/shardeum/state"

// NewReconciler picks the state root reconciliation for the topology.
// A single shard owns every storage slot and can apply writes locally,
// otherwise proofs are forwarded for remote recomputation.
func NewReconciler(cfg *Config) state.Reconciler {
	if cfg.Topology == MultiShard {
		return state.ProofReconciler{Concurrency: cfg.ProofConcurrency}
	}
	return state.LocalReconciler{}
}
