// Package store loads rule files from disk and keeps the active rule set.
//
// A Loader turns a path into a validated *ast.RuleSet (the built-in
// defaults when the path is empty). A Registry holds the current set and
// swaps it wholesale on reload, so readers always see one consistent
// snapshot. A Watcher reloads the registry when the rule file changes, and
// Provenance records which git commit a rule file came from.
package store
