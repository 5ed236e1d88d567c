// Package models defines the core domain models for the shared expense ledger.
//
// # Models
//
//   - Expense: a shared expense paid by one participant and split among many
//   - Group: a set of users who share expenses, with a cached running total
//   - User: a participant, created once per unique email
//   - Settlement: audit record of a participant settling out of their expenses
//
// # Design Principles
//
// 1. **IDs, not pointers**: relationships are expressed as ID strings
// 2. **Exact money**: amounts are decimal.Decimal, never float64
// 3. **Optimistic concurrency**: every persisted entity carries a Version;
// stores reject updates whose Version no longer matches
// 4. **Copies, not references**: the ledger core works on values read from the
// store and hands back new values; it never keeps store-owned pointers
package models
