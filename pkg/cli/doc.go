// Package cli holds the helpers shared by the creotrail subcommands: output
// formatting for --format, typed errors, a progress bar for the review loop
// and signal handling.
//
//	t := &cli.Table{Header: []string{"name", "last seen"}, Data: active}
//	for _, v := range active {
//		t.Append(v.Name, lastSeen(v))
//	}
//	return cli.Print(os.Stdout, format, t)
package cli
