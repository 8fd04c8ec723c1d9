/*
Package operation implements the steps of a run.

	+-------------+      +-------------+
	|     Run     | ---> |    Clean    |
	| (Transfer)  |      |  (Staging)  |
	+------+------+      +-------------+
	       |
	+------+------+
	|   Archive   |
	| extract ->  |
	| rename  ->  |
	| upload      |
	+------+------+
	       |
	+------+------+
	|   Master    |
	|   Index     |
	+-------------+

🎯 Purpose:
- Retrieves archives from the transfer source
- Extracts, renames and uploads each archive in turn
- Aggregates the index files into one master index and uploads it
- Cleans the staging directories afterwards

🔄 Flow:
1. The uploader is created, then archives are retrieved
2. No archives ends the run with ErrNoArchives
3. Each archive lands in <extract_dir>/<archive stem>
4. Index files are renamed from, never uploaded
5. The master index is written to the consolidation dir and uploaded
6. Cleanup removes everything but the preserved names

⚡ Error Handling:
Only setup failures and ErrNoArchives are returned from the run operation.
Per-archive, per-row and per-upload failures are logged, tracked in the
status manager and skipped. Cleanup never fails.

🤝 Interfaces:
- transfer.Client: Archive source
- upload.Uploader: Destination folder
- status.StatusReporter: Outcome tracking
- log.Logger: Console output, read from the context with log.FromContext

🔍 Example:

	ctx = log.NewContext(ctx, console)
	opts := operation.Options{Config: cfg, StatusMgr: mgr}
	runner := operation.NewRunner(&logger)
	err := runner.Run(ctx,
		operation.NewRunOperation(opts),
		operation.NewCleanOperation(opts),
	)
*/
package operation
