// Package errors provides coded, actionable errors for the derivable
// command line tool, its config loader and the inspector.
//
// # Error Categories
//
//   - runtime: engine errors surfaced to the user (cycles, stopped loop)
//   - config: config and seed file errors
//   - cli: flag and server errors
//   - inspect: inspector API errors
//
// # Error Codes
//
// Each error has a unique code (e.g., "R001") that maps to a short
// message, a detailed explanation and an optional hint:
//
//   - R001-R099: runtime
//   - R100-R199: config
//   - R200-R299: CLI and inspector
//
// # Usage
//
//	err := errors.New("R101").
//	    WithLocation("derivable.yaml", 4, 3).
//	    Wrap(parseErr)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R101: Invalid config file
//	//
//	//   derivable.yaml:4:3
//	//
//	//   The config file could not be parsed.
//	//
//	//   Cause: yaml: line 4: mapping values are not allowed in this context
//
// Engine errors are mapped to their codes by FromError:
//
//	errors.FromError(&reactive.CycleError{ID: 3}, "R201").Code // "R001"
package errors
