// Package models defines the core domain models for splitledger.
//
// # Models
//
//   - User: a person who can join groups and take part in expenses
//   - Group: a set of members sharing expenses
//   - Expense: a payment by one member split among participants
//   - Balance: a directed debt edge between two members of a group
//   - SettlementResult: outcome of paying down a balance (not persisted)
//
// # Design Principles
//
// 1. **Cents everywhere**: amounts are money.Cents; decimals only exist at the API boundary
// 2. **IDs, not pointers**: relationships are expressed with ID strings
// 3. **Derived balances**: Balance rows exist only because of expenses and settlements
//
// # Balance invariant
//
// For any group and unordered pair {A, B} at most one Balance exists, either A→B or
// B→A, and its amount is strictly positive. A settled pair has no row at all.
package models
