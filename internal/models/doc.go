// Package models defines the wire types exchanged with the lending backend.
//
// The backend speaks JSON with German field names (bezeichnung, ausleihe, benutzername, ...).
// The Go types use English names and keep the backend's keys in struct tags.
//
// Entities:
//   - [Equipment] : an inventory item with [EquipmentStatus], [EquipmentCategory] and [ConditionStatus]
//   - [Loan] : a member holding (or having held) an item
//   - [Reservation] : a future-dated borrow request awaiting admin confirmation
//   - [MaintenanceRecord] : a scheduled or completed service event
//   - [User] : a member or admin account
//
// Request types ([Credentials], [Registration], [ReservationRequest], [MaintenanceRequest], ...)
// carry a Validate method that runs the same checks the browser forms ran before submitting.
// Business rules (loan limits, overdue computation) stay on the backend.
package models
