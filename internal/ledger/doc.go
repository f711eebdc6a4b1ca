// Package ledger derives every balance, total and loan state from the raw
// transaction stream. Nothing here touches storage; all functions are pure
// and give the same answer for any ordering of their input.
package ledger
