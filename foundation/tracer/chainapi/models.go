package chainapi

// Address represents the blockchain.info view of a single address and
// its most recent transactions.
type Address struct {
	Address       string `json:"address"`
	TxCount       int    `json:"n_tx"`
	TotalReceived int64  `json:"total_received"`
	TotalSent     int64  `json:"total_sent"`
	FinalBalance  int64  `json:"final_balance"`
	Txs           []Tx   `json:"txs"`
}

// Tx represents a single transaction with its inputs and outputs.
type Tx struct {
	Hash    string   `json:"hash"`
	Time    int64    `json:"time"`
	Fee     int64    `json:"fee"`
	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"out"`
}

// Input represents a transaction input. The API reports the output
// being spent under prev_out.
type Input struct {
	PrevOut Output `json:"prev_out"`
}

// Output represents a transaction output. Addr can be empty for
// non-standard scripts.
type Output struct {
	Addr  string `json:"addr"`
	Value int64  `json:"value"`
}

// =============================================================================

// multiAddr represents the response of the multiaddr batch endpoint.
// Only the fields the scanner needs are decoded.
type multiAddr struct {
	Addresses []multiAddrInfo `json:"addresses"`
}

type multiAddrInfo struct {
	Address string `json:"address"`
	TxCount int    `json:"n_tx"`
}
