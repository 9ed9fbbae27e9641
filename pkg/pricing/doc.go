// Package pricing keeps a history of awarded bid prices imported from BidTabs
// exports and answers unit price and contract lookups against it.
//
// Prices are stored in SQLite. A Store implements engine.PriceSource, so the
// recommendation engine can price pay items whose rules declare no unit cost.
package pricing
