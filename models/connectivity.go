package models

// ConnectivityState is a snapshot of the process-wide connectivity monitor.
type ConnectivityState struct {
	// PlatformReportsConnected is the raw signal from the OS network-interface layer.
	PlatformReportsConnected bool `json:"platform_reports_connected"`
	// IsConnected is the confirmed usable connectivity.
	IsConnected bool `json:"is_connected"`
	// ConsecutiveFailures counts request failures since the last success.
	ConsecutiveFailures int `json:"consecutive_failures"`
}
