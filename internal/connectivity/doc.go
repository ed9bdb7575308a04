// Package connectivity decides whether network calls should be attempted.
//
// A single [Monitor] is created per process and injected into every
// component that needs it. It combines two inputs: what the operating system
// reports about network interfaces, and what actual requests to the remote
// service experienced. The platform can take connectivity away immediately
// but can never grant it on its own. Background polling goes through
// [Monitor.PollPlatform]; only an explicit [Monitor.CheckConnectivity] or a
// successful request marks the monitor connected again.
package connectivity
