// Package dispatch turns due scheduled emails into sent or failed ones.
//
// For each pending record the engine resolves the client and template,
// renders the content in the effective language, hands the message to the
// transport and records the outcome. Failures local to a record end up in
// its error message and never reach the caller, so one bad record cannot
// stop a batch.
//
// Two guards protect against duplicate or unwanted sends. The record's
// status is re-read right before the transport call, so an email cancelled
// after the tick fetched it is not sent. After a successful send a mark is
// written to the send-mark cache before any bookkeeping; a pending record
// that already carries a mark is completed without calling the transport
// again.
package dispatch
