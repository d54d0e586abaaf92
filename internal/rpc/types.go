package rpc

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// BundleResponse is the response from sendBundle
type BundleResponse struct {
	Result string    `json:"result"`
	Error  *RPCError `json:"error"`
}

// BundleStatus is one entry of getBundleStatuses
type BundleStatus struct {
	BundleID           string      `json:"bundle_id"`
	Transactions       []string    `json:"transactions"`
	Slot               uint64      `json:"slot"`
	ConfirmationStatus string      `json:"confirmation_status"`
	Err                BundleError `json:"err"`
}

// BundleError mirrors the {"Ok": null} / {"Err": ...} result envelope
type BundleError struct {
	Ok  interface{} `json:"Ok,omitempty"`
	Err interface{} `json:"Err,omitempty"`
}

// Failed reports whether the bundle landed with an error
func (e BundleError) Failed() bool {
	return e.Err != nil
}

// BundleStatusesResponse is the response from getBundleStatuses
type BundleStatusesResponse struct {
	Result struct {
		Value []*BundleStatus `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// BlockhashResponse is the response from getLatestBlockhash
type BlockhashResponse struct {
	Result struct {
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// AccountInfoResponse is the response from getAccountInfo
type AccountInfoResponse struct {
	Result struct {
		Value *struct {
			Lamports uint64   `json:"lamports"`
			Owner    string   `json:"owner"`
			Data     []string `json:"data"`
		} `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// BalanceResponse is the response from getBalance
type BalanceResponse struct {
	Result struct {
		Value uint64 `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}
