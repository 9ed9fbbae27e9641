// Package parser turns erosion-control rule documents into ast.RuleSet values.
//
// A rule document is YAML (JSON is accepted as a YAML subset) with a top-level
// "rules" list:
//
//	rules:
//	  - id: SILT_FENCE_001
//	    name: Silt Fence for Perimeter
//	    source: EPA NPDES CGP
//	    priority: 10
//	    conditions:
//	      - field: total_disturbed_acres
//	        operator: gt
//	        value: 0
//	    action:
//	      practice_type: silt_fence
//	      is_temporary: true
//	      quantity_formula: total_disturbed_acres * 200
//	      unit: LF
//	      ...
//
// Conditions are leaves of the form {field, operator, value} or composites
// {and: [...]}, {or: [...]}, {not: cond}. A list of conditions is an implicit
// "and". The built-in default rules are embedded as a document and go through
// the same parser as user files.
package parser
