package api

const taskRequestMaxSize = 64 * 1024 // 64 KiB

// Error body shape read by clients.
type errorResponse struct {
	Message string `json:"message"`
}
