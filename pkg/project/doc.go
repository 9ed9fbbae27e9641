// Package project holds the roadway project model that erosion-control rules
// are evaluated against.
//
// A ProjectInput is loaded from YAML or JSON, validated, and flattened into a
// Facts mapping. Facts is the only view the rules engine sees: field names in
// rule conditions and quantity formulas refer to keys of that mapping, with
// dotted paths reaching into nested maps such as metadata.
package project
