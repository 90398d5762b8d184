package ubus

import (
	"encoding/json"
	"fmt"
)

// NullSession is the session id rpcd grants unauthenticated access to.
const NullSession = "00000000000000000000000000000000"

// rpcd JSON-RPC error codes.
const (
	codeAccessDenied  = -32002
	codeMethodMissing = -32601
)

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Result  []json.RawMessage `json:"result"`
	Error   *rpcError         `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("json-rpc error %d: %s", e.Code, e.Message)
}

// loginReply is the data of a successful "session login".
type loginReply struct {
	Session string `json:"ubus_rpc_session"`
	Timeout int    `json:"timeout"`
	Expires int    `json:"expires"`
}
