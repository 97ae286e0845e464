// Package core contains the verification domain (user statuses, domain error
// kinds, the wire result code table and the attempt state machine) and the
// coordinator that drives a single attempt against the remote service.
// Transport and device adapters depend on this package; core must not depend
// on them.
package core
