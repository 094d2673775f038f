// Package persistence stores the per-request delegation event trail.
//
// The event trail is the sole durable record of a request: every hop,
// failure, breaker trip, escalation, and terminal transition lands here
// when a store sink is wired into the control loop.
//
// Supported backends:
//   - Memory: for development and testing (default)
//   - Redis: for distributed deployments
//   - Database: any GORM-supported relational database
package persistence
