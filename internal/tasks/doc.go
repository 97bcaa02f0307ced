// Package tasks holds the page-level list logic and the operations that span
// several backend calls.
//
// # Lists
//
// The filter and sort helpers ([FilterEquipment], [FilterLoans], [SortLoans], ...)
// reproduce what each page does client-side before rendering. They never mutate
// their input.
//
// # Engine
//
// [LendingEngine] wraps a [services.Service] and, for admins, a [services.AdminService]:
//
//  1. [LendingEngine.LoadDashboard] : equipment, loans and reservations loaded concurrently
//  2. [LendingEngine.ReturnAll] : every active loan returned on a rate limited worker pool
//  3. [LendingEngine.Overview] : admin dump of every list; failing endpoints are collected
//  4. [LendingEngine.BulkExport] : datasets written to a directory with a manifest.json
//
// # Progress Reporting
//
// Long operations accept a ProgressUpdate channel. Sends never block; a full
// channel drops the update.
package tasks
