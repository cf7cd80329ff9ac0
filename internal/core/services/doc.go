// Package services implements the driving port interfaces.
// Services contain the sync engine's business logic and orchestrate
// calls to driven ports (adapters): the sync orchestrator and its
// conflict queue, the repositories over the local stores, settings
// and the background scheduler.
package services
