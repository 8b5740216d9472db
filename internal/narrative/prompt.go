package narrative

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every request
const SystemPrompt = "You are an expert macroeconomic analyst."

var analysisSections = []string{
	"Executive Summary",
	"Trend Analysis",
	"Multi-Year Transition Phases",
	"Key Drivers Behind the Trend",
	"Risk Classification (High/Med/Low)",
	"Structural Causes",
	"Policy Recommendations",
	"Investor Implications",
	"Sector Impact",
	"Forward-looking Forecast (12-24 months)",
	"Final Strategic Advisory",
}

// BuildPrompt wraps a dataset summary in the analyst instructions
func BuildPrompt(summary string) string {
	var b strings.Builder
	b.WriteString("You are an AI economic analyst reviewing balance-of-payments data.\n\n")
	b.WriteString("Your answer must be complete. If it is long, split it into numbered parts and continue until every section is written.\n\n")
	b.WriteString("Provide:\n")
	for i, section := range analysisSections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, section)
	}
	b.WriteString("\nDataset:\n")
	b.WriteString(summary)
	return b.String()
}
