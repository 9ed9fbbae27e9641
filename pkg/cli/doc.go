/*
Package cli provides command-line helpers for the ecagent command.

Output Formatting:

Command results can be written as text, JSON or YAML:

	formatter, err := cli.NewFormatter(cli.OutputFormat(flagValue))
	if err != nil {
		return err
	}
	return formatter.FormatTo(os.Stdout, output)

Text output uses the value's String method when it has one.

Progress Reporting:

Batch commands report progress on stderr:

	batch := cli.NewBatch(os.Stderr, len(files))
	for _, f := range files {
		batch.Done(f, process(f))
	}
	return batch.Finish()

Signal Handling:

Long-running commands stop on SIGINT or SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
