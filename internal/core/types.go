package core

// SumRequest is the body accepted by POST /sum.
type SumRequest struct {
	Numbers []int64 `json:"numbers"`
}

// SumResponse is returned by POST /sum.
type SumResponse struct {
	Sum    int64 `json:"sum"`
	Cached bool  `json:"cached"`
}

// RecordResponse describes a stored computation.
type RecordResponse struct {
	Fingerprint string  `json:"fingerprint"`
	RawInput    []int64 `json:"raw_input"`
	Result      int64   `json:"result"`
	CreatedAt   string  `json:"created_at"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
