// Package supervisor owns the lifecycle of a single llama.cpp server
// subprocess. It is structured into small files by concern:
//
//   - process.go: Launcher/Process and the exec-backed launcher.
//   - startup.go: line Classifier and the StartupMonitor.
//   - health.go: HealthPoller.
//   - supervisor.go: Supervisor, Start/Stop/Active.
//   - chat.go: request dispatch against the active server.
//   - config.go: Config, package defaults and Options.
//   - errors.go: typed errors and Is* helpers.
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go, status.go, sanity.go, ports.go: reporting helpers.
//
// At most one server is active at a time. Liveness is verified on demand
// (exit status plus one health probe before each request); there is no
// background watchdog, so between checks the active handle may be stale.
package supervisor
