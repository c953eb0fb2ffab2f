// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state mediates account and contract storage access of one transaction.
// It follows the flow as bellow:
//
//	        [ execution engine ]
//	                 |
//	[ write cache ] -> [ first reads ] -> ( oracle ) -> [ world / storage trie ]
//	                                                          |
//	                                                   ( miss callbacks )
//
//	[ write cache ] -> ... -> [ pending commits ] -> CommitAccount -> [ muxdb scope ]
//
// Reads are answered by the caches first. A cache miss must be authorized by the
// involvement oracle before any trie is touched, and the first value seen for each
// account or slot is kept unchanged for cross-shard transfer.
// Writes stay in memory until CommitAccount flushes a contract's pending storage and
// then the account itself, so the stored state root always matches the storage trie.
package state
