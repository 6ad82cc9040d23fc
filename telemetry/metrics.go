package telemetry

import "context"

// Nil-safe instrument helpers. CLI one-shot commands run without
// InitOTEL; recording is a no-op until the daemon initializes the
// providers.

// CountResourcesScanned adds to the scanned-resources counter.
func CountResourcesScanned(ctx context.Context, n int64) {
	if ResourcesScanned != nil {
		ResourcesScanned.Add(ctx, n)
	}
}

// CountFindings adds to the findings counter.
func CountFindings(ctx context.Context, n int64) {
	if FindingsDetected != nil {
		FindingsDetected.Add(ctx, n)
	}
}

// CountActionExecuted adds one executed mutating action.
func CountActionExecuted(ctx context.Context) {
	if ActionsExecuted != nil {
		ActionsExecuted.Add(ctx, 1)
	}
}

// CountActionSkipped adds one action skipped by dry-run or policy.
func CountActionSkipped(ctx context.Context) {
	if ActionsSkipped != nil {
		ActionsSkipped.Add(ctx, 1)
	}
}

// ObserveScanDuration records one scan duration in seconds.
func ObserveScanDuration(ctx context.Context, seconds float64) {
	if ScanDuration != nil {
		ScanDuration.Record(ctx, seconds)
	}
}

// RecordExposures sets the current exposure gauge.
func RecordExposures(ctx context.Context, n int64) {
	if ExposuresCurrent != nil {
		ExposuresCurrent.Record(ctx, n)
	}
}

// RecordStorageRevision sets the history revision gauge.
func RecordStorageRevision(ctx context.Context, rev int64) {
	if StorageRevision != nil {
		StorageRevision.Record(ctx, rev)
	}
}
