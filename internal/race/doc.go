// Package race is the race progression engine: the checkpoint sequencer, the
// Waiting/Playing/Respawning/Finished state machine and the controller that
// wires them together behind the checkpoint and collision events.
//
// Everything here is synchronous and tick-driven. Nothing blocks or performs
// I/O, and nothing is safe for concurrent use; callers on other threads go
// through the session inbox.
package race
