package auditlog

import (
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_RecordAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.jsonl")

	log, err := Open(path)
	require.NoError(t, err)

	detail := map[string]string{"vpc_id": "vpc-1"}
	require.NoError(t, log.Record(ActionCreateFlowLog, OutcomeDryRun, "eu-west-1", "vpc-1", detail))
	require.NoError(t, log.Record(ActionCreateFlowLog, OutcomeExecuted, "eu-west-1", "vpc-2", nil))
	require.NoError(t, log.RecordError(ActionDeleteSnapshot, "eu-west-1", "snap-1", nil, errors.New("snapshot in use")))
	require.NoError(t, log.Close())

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	first, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, ActionCreateFlowLog, first.Action)
	assert.Equal(t, OutcomeDryRun, first.Outcome)
	assert.Equal(t, "vpc-1", first.ResourceID)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(first.Detail, &decoded))
	assert.Equal(t, "vpc-1", decoded["vpc_id"])

	second, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Sequence)
	assert.Equal(t, OutcomeExecuted, second.Outcome)

	third, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, third.Outcome)
	assert.Equal(t, "snapshot in use", third.Error)

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestLog_AppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.jsonl")

	log, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Record(ActionReleaseEIP, OutcomeExecuted, "eu-west-1", "eipalloc-1", nil))
	require.NoError(t, log.Close())

	log, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Record(ActionReleaseEIP, OutcomeExecuted, "eu-west-1", "eipalloc-2", nil))
	require.NoError(t, log.Close())

	var sequences []int64
	err = Replay(path, time.Time{}, func(entry *Entry) error {
		sequences = append(sequences, entry.Sequence)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, sequences, "numbering continues across opens")
}

func TestOpen_RecoversSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.jsonl")

	log, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Record(ActionDeregisterAMI, OutcomeExecuted, "eu-west-1", "ami-1", nil))
	require.NoError(t, log.Record(ActionDeregisterAMI, OutcomeExecuted, "eu-west-1", "ami-2", nil))
	require.NoError(t, log.Close())

	log, err = Open(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), log.sequence)
	require.NoError(t, log.Record(ActionDeregisterAMI, OutcomeExecuted, "eu-west-1", "ami-3", nil))
	require.NoError(t, log.Close())

	reader, err := NewReader(path)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	var last *Entry
	for {
		entry, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		last = entry
	}
	require.NotNil(t, last)
	assert.Equal(t, int64(3), last.Sequence)
}

func TestReplay_Since(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.jsonl")

	log, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Record(ActionDeleteZone, OutcomeDryRun, "us-east-1", "Z1", nil))
	require.NoError(t, log.Close())

	var replayed int
	err = Replay(path, time.Now().Add(time.Hour), func(*Entry) error {
		replayed++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, replayed, "entries before the cutoff are skipped")
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "actions.jsonl")

	log, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, log.Record(ActionCreateEndpoint, OutcomeDryRun, "eu-west-1", "vpc-1", nil))
	require.NoError(t, log.Close())
}
