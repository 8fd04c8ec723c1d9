/*
Package status tracks what happened to every file during a run.

	            +-------------+
	            |   Status    |
	            |  (Manager)  |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	| Outcomes  |           | Summary |
	| (Records) |           | (pterm) |
	+-----------+           +---------+

🎯 Purpose:
- Records one FileInfo per step a file goes through
- Counts outcomes (downloaded, extracted, renamed, uploaded, skipped, failed)
- Reports progress of long operations
- Prints the end of run summary

🔄 Flow:
1. The orchestrator tracks each download, extraction, rename and upload
2. Cleanup tracks each deleted and preserved entry
3. PrintSummary renders the counters and the failures

🤝 Interfaces:
- StatusReporter: Tracks outcomes and progress
- FileFormatter: Formats status messages

A file may be tracked more than once; ListFiles keeps the full history.
TrackFile is the one structured log event per file step.

🔍 Example:

	mgr := status.New(&logger)

	mgr.StartOperation(ctx, len(archives))
	mgr.TrackFile(ctx, "photo1.jpg", status.FileInfo{
		Outcome: status.OutcomeRenamed,
		Detail:  "Smith, Ann - 1.jpg",
	})
	mgr.UpdateProgress(ctx, 1)
	mgr.FinishOperation(ctx)

	_ = mgr.PrintSummary(ctx, os.Stdout)
*/
package status
