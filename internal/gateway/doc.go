// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package gateway implements the client side of the SyncLite DB gateway
// protocol: one JSON envelope POSTed per operation to a single endpoint, one
// JSON object back.
//
// The package is split the way the protocol is: Request and its options build
// envelopes, Transport performs the HTTP exchange, Decode validates replies
// into a Result, and ResultSet exposes returned rows. Client ties them
// together.
//
// Three kinds of failure are kept apart. A *TransportError means the exchange
// itself failed, a *ProtocolError means the gateway broke the envelope
// contract, and a Result with OK=false is the gateway reporting that the
// operation did not succeed. Only the first two are returned as errors.
//
// Transaction handles are never cached by the Client. The caller threads the
// handle from Begin into later calls, either directly or through a Txn value.
package gateway
