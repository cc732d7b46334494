/*
Package cli provides helpers shared by the jobhook commands.

Output Formatting:

Results are rendered as text, JSON or CSV. Values implementing Table are
rendered as aligned columns in text mode and as rows in CSV mode:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(total)
	progress.Update(done)
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Errors:

ConfigError marks invalid flags or configuration; ExitCode maps it to exit
status 2 and every other error to 1.
*/
package cli
