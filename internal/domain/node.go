package domain

// NodeInstance represents a local nodeos instance
type NodeInstance struct {
	Name      string   `json:"name"`
	Binary    string   `json:"binary"`
	HTTPAddr  string   `json:"httpAddr"`
	DataDir   string   `json:"dataDir"`
	ConfigDir string   `json:"configDir"`
	Args      []string `json:"args,omitempty"`
	PidFile   string   `json:"pidFile"`
	LogFile   string   `json:"logFile"`
}

// URL returns the base URL of the instance's HTTP API
func (n *NodeInstance) URL() string {
	return "http://" + n.HTTPAddr
}

// NodeStatus represents the status of a nodeos instance
type NodeStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid,omitempty"`
	URL          string `json:"url,omitempty"`
	LogFile      string `json:"logFile"`
	RPCHealthy   bool   `json:"rpcHealthy"`
	HeadBlockNum uint32 `json:"headBlockNum,omitempty"`
	ChainID      string `json:"chainId,omitempty"`
	Error        string `json:"error,omitempty"`
}
