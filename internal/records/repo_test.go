package records

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tierlab/internal/store"
)

func openTables(t *testing.T) (*Tables, store.RecordStore) {
	t.Helper()
	rs, err := store.OpenSQLite(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rs.Close() })
	return New(rs), rs
}

func TestSubmission_RoundTrip(t *testing.T) {
	tables, _ := openTables(t)
	ctx := context.Background()

	ts := time.Date(2026, 3, 1, 10, 30, 0, 123, time.UTC)
	want := Submission{
		ID:              uuid.NewString(),
		UserID:          "S001",
		Group:           "experimental",
		TopicID:         "pH_SCALE",
		Tier1Answer:     "In the Electron Cloud",
		Tier2Confidence: "High",
		Tier3Reasoning:  "Because electrons orbit outside",
		Tier4Confidence: "Sure",
		Status:          StatusInitial,
		Timestamp:       ts,
	}
	require.NoError(t, tables.Submissions.Append(ctx, want))

	got, err := tables.Submissions.ForTopic(ctx, "S001", "pH_SCALE")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want.ID, got[0].ID)
	assert.Equal(t, want.Tier1Answer, got[0].Tier1Answer)
	assert.Equal(t, want.Tier2Confidence, got[0].Tier2Confidence)
	assert.Equal(t, want.Tier3Reasoning, got[0].Tier3Reasoning)
	assert.Equal(t, want.Tier4Confidence, got[0].Tier4Confidence)
	assert.Equal(t, want.Status, got[0].Status)
	assert.True(t, want.Timestamp.Equal(got[0].Timestamp))
}

func TestSubmissions_DeduplicateRetriedWrites(t *testing.T) {
	tables, _ := openTables(t)
	ctx := context.Background()

	s := Submission{ID: "fixed-id", UserID: "S001", TopicID: "pH_SCALE", Status: StatusInitial}
	require.NoError(t, tables.Submissions.Append(ctx, s))
	require.NoError(t, tables.Submissions.Append(ctx, s))

	all, err := tables.Submissions.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSubmissions_ToleratesHandEditedColumns(t *testing.T) {
	tables, rs := openTables(t)
	ctx := context.Background()

	require.NoError(t, rs.Append(ctx, TableSubmissions, store.Row{
		"User_ID":   " S009 ",
		"TOPIC_ID":  "ATOM",
		"Status":    "initial",
		"Timestamp": "2026-02-01 09:00:00",
		"Notes":     "entered by hand",
	}))

	got, err := tables.Submissions.ForTopic(ctx, "S009", "ATOM")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StatusInitial, got[0].Status)
	assert.Equal(t, "", got[0].Tier1Answer)
	assert.Equal(t, 2026, got[0].Timestamp.Year())
}

func TestModules_LaterRowReplacesEarlier(t *testing.T) {
	tables, _ := openTables(t)
	ctx := context.Background()

	require.NoError(t, tables.Modules.Append(ctx,
		Module{TopicID: "pH_SCALE", Title: "v1", Options: []string{"A", "B"}},
		Module{TopicID: "ATOM", Title: "atoms"},
	))
	require.NoError(t, tables.Modules.Append(ctx,
		Module{TopicID: "pH_SCALE", Title: "v2", ScaffoldGoal: "Relate pH to H+ concentration"},
	))

	all, err := tables.Modules.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "v2", all[0].Title)

	m, err := tables.Modules.Get(ctx, "pH_SCALE")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Relate pH to H+ concentration", m.ScaffoldGoal)

	missing, err := tables.Modules.Get(ctx, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestModule_OptionsRoundTrip(t *testing.T) {
	tables, _ := openTables(t)
	ctx := context.Background()

	require.NoError(t, tables.Modules.Append(ctx, Module{
		TopicID: "ATOM",
		Options: []string{"In the Nucleus", "In the Electron Cloud"},
	}))
	m, err := tables.Modules.Get(ctx, "ATOM")
	require.NoError(t, err)
	assert.Equal(t, []string{"In the Nucleus", "In the Electron Cloud"}, m.Options)
}

func TestAssignments_TopicsForGroup(t *testing.T) {
	tables, _ := openTables(t)
	ctx := context.Background()

	require.NoError(t, tables.Assignments.Append(ctx,
		Assignment{Group: "Experimental", TopicID: "pH_SCALE"},
		Assignment{Group: "control", TopicID: "ATOM"},
		Assignment{Group: "experimental", TopicID: "ATOM"},
		Assignment{Group: "experimental", TopicID: "pH_SCALE"},
	))

	topics, err := tables.Assignments.TopicsForGroup(ctx, "experimental")
	require.NoError(t, err)
	assert.Equal(t, []string{"pH_SCALE", "ATOM"}, topics)
}

func TestTraces_ForUser(t *testing.T) {
	tables, _ := openTables(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, tables.Traces.Append(ctx,
		Trace{UserID: "S001", EventType: EventChatTurn, Details: "hi", Timestamp: now},
		Trace{UserID: "S002", EventType: EventHintRequested, Timestamp: now},
		Trace{UserID: "S001", EventType: EventModuleSubmit, Timestamp: now.Add(time.Second)},
	))

	got, err := tables.Traces.ForUser(ctx, "S001")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, EventChatTurn, got[0].EventType)
	assert.Equal(t, EventModuleSubmit, got[1].EventType)
}

func TestLLMRequests_RecentAndUsage(t *testing.T) {
	tables, _ := openTables(t)
	ctx := context.Background()

	for i, purpose := range []string{"tutor-reply", "tutor-reply", "tutor-hint"} {
		require.NoError(t, tables.LLMRequests.Append(ctx, LLMRequest{
			Model:        "gpt-4o-mini",
			Purpose:      purpose,
			InputTokens:  100,
			OutputTokens: 10 * (i + 1),
			LatencyMs:    int64(100 * (i + 1)),
			Success:      true,
		}))
	}

	recent, err := tables.LLMRequests.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "tutor-hint", recent[0].Purpose)
	assert.True(t, recent[0].Success)

	all, err := tables.LLMRequests.Recent(ctx, 0)
	require.NoError(t, err)

	byPurpose := UsageByPurpose(all)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, "tutor-reply", byPurpose[0].Key)
	assert.Equal(t, 2, byPurpose[0].Calls)
	assert.Equal(t, 30, byPurpose[0].OutputTokens)
	assert.Equal(t, int64(150), byPurpose[0].AvgLatencyMs)

	byModel := UsageByModel(all)
	require.Len(t, byModel, 1)
	assert.Equal(t, 300, byModel[0].InputTokens)
}
