// Package ubus calls OpenWrt ubus objects over the rpcd JSON-RPC endpoint
// (usually http://<router>/ubus).
//
// Every call is a JSON-RPC 2.0 "call" whose params are
// [session, object, method, args]. rpcd answers with a result array whose
// first element is a ubus status code and whose optional second element is
// the method's reply:
//
//	--> {"jsonrpc":"2.0","id":"…","method":"call",
//	     "params":["<session>","umap","get_topology",{}]}
//	<-- {"jsonrpc":"2.0","id":"…","result":[0,{"devices":[…]}]}
//
// A session comes from "session login" and is cached in a [session.Store]
// until it expires. When rpcd rejects a cached session the client logs in
// again once and repeats the call.
package ubus
