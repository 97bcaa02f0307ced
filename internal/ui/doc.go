// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// Each page of the lending app is a view of the one [Model]:
//  - Login : username, password and optional 2FA code
//  - Dashboard : available equipment, stats and loans due soon (b borrows)
//  - Activity : my loans by tab (x returns one, X returns all)
//  - Reservations : my reservations (c cancels)
//  - Profile : the account details
//  - Admin overview, equipment, users, loans, maintenance (s/d) and reservations (a confirms)
//
// Every page change is resolved by [router.Guard], so an anonymous or expired
// session always lands on Login. A 401 from any call clears the session,
// pushes an error toast and returns to Login; after signing in again the user
// is sent back to the page they were on.
//
// Toasts come from a [notify.Queue] and are dismissed by a tea.Tick scheduled when they are pushed.
package ui
