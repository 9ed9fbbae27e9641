// Package report renders a processed project as a markdown report or as
// console tables.
package report
