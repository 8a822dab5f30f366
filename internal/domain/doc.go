// Package domain holds the entities shared by the scheduling, dispatch and
// storage layers: clients, multilingual templates, scheduled emails and the
// append-only email log.
//
// Clients and templates are independent aggregates. Scheduled emails and
// log entries reference them by id only, so either side may disappear
// without the other being touched.
package domain
