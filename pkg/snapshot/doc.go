/*
Package snapshot supplies the one concrete implementation of the three
collaborators a pkg/sync pipeline is injected with — download, parse,
cleanup — against CSV files on local disk, so cmd/syncd can run the
engine end to end without the out-of-scope upstream snapshot producer.

FileDownloader resolves "<kind>-<userID>.csv" (or "<kind>-shared.csv"
for products/prices) under a configured directory, stages a temp copy,
and hands that path to the pipeline; Cleanup removes the copy afterward.
The six ParseX functions decode that CSV into the sync.XRecord types
each pipeline expects, reading columns by header name so a snapshot
export can add columns without breaking older deployments.

# Design notes

There is no third-party CSV or XML library anywhere in the retrieval
pack this project draws from, so encoding/csv is used directly here —
the one place in this codebase where the standard library is the
grounded choice rather than a fallback.

# See Also

  - pkg/sync for the Parser/DownloadSnapshot contracts this satisfies
  - pkg/config for SnapshotDir
*/
package snapshot
