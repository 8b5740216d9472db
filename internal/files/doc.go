// Package files finds and reads pipeline inputs.
//
// Discovery lists candidate input files in a directory. Loader reads a single
// CSV or Excel workbook into a domain.RawTable; cells are left as strings and
// typed later by the normalizer.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/data")
//	inputs, err := discovery.FindInputs("incoming")
//
//	loader := files.NewLoader("", logger)
//	table, err := loader.Load(ctx, inputs[0].Path)
package files
