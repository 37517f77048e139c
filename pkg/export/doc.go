// Package export writes classification history rows as JSON or CSV.
//
// The HTTP history endpoint and the history CLI command share these
// exporters, so a CSV downloaded from the API and one produced locally are
// byte-identical:
//
//	exp, err := export.ForFormat("csv", true)
//	if err != nil {
//	    return err
//	}
//	err = exp.Export(ctx, entries, os.Stdout)
//
// CSV columns are id, command_id, command_text, action and processed_time.
// Writer failures are returned as *ExportError.
package export
