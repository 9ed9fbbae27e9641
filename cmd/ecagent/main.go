// ecagent recommends erosion-control practices and pay items for roadway
// projects from a declarative rule set, with a citation for every practice.
//
// Usage:
//
//	# Process a project with the built-in rules
//	ecagent process project.yaml
//
//	# Use a custom rule file and write JSON
//	ecagent process --rules rules.yaml --format json project.yaml
//
//	# Check a project and list the questions it leaves open
//	ecagent validate project.yaml
//
//	# Validate rule files
//	ecagent rules lint rules.yaml
//
//	# Import bid tab exports for unit price history
//	ecagent pricing import bidtabs-2024.csv
//
//	# Query the evidence trail
//	ecagent evidence query --project "SR 37 Widening"
//
//	# Reload rules on change and serve metrics
//	ecagent watch
package main

func main() {
	Execute()
}
