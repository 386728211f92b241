package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jobtracker/internal/classify"
	"github.com/nhle/jobtracker/internal/mailbox"
	"github.com/nhle/jobtracker/internal/model"
)

// fakeFetcher returns scripted raw messages.
type fakeFetcher struct {
	msgs  []mailbox.RawMessage
	err   error
	calls int
}

func (f *fakeFetcher) FetchRecent(
	_ context.Context, _, maxCount int,
) ([]mailbox.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if maxCount <= 0 {
		return nil, nil
	}
	if maxCount < len(f.msgs) {
		return f.msgs[:maxCount], nil
	}
	return f.msgs, nil
}

// fakeAI records batch sizes and fails on scripted batch indexes.
type fakeAI struct {
	batchSizes []int
	failOn     map[int]error
}

func (f *fakeAI) ClassifyBatch(
	_ context.Context, batch []model.NormalizedEmail,
) ([]model.ClassifiedRecord, error) {
	idx := len(f.batchSizes)
	f.batchSizes = append(f.batchSizes, len(batch))

	if err, ok := f.failOn[idx]; ok {
		return nil, err
	}

	records := make([]model.ClassifiedRecord, len(batch))
	for i, email := range batch {
		records[i] = model.ClassifiedRecord{
			Sender:          email.Sender,
			Subject:         email.Subject,
			Date:            email.Date,
			Category:        model.CategoryPositive,
			Summary:         "ai summary",
			SuggestedAction: "ai action",
		}
	}
	return records, nil
}

func rawMessages(n int) []mailbox.RawMessage {
	msgs := make([]mailbox.RawMessage, n)
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	for i := range msgs {
		msgs[i] = mailbox.RawMessage{
			UID:     uint32(n - i),
			Sender:  fmt.Sprintf("sender%d@example.com", i),
			Subject: fmt.Sprintf("subject %d", i),
			Date:    base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return msgs
}

func TestPipeline_HappyPathBatching(t *testing.T) {
	fetcher := &fakeFetcher{msgs: rawMessages(12)}
	ai := &fakeAI{}
	p := New(fetcher, ai, model.FetchConfig{WindowDays: 7, MaxCount: 30}, 5)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{5, 5, 2}, ai.batchSizes)
	require.Len(t, result.Records, 12)
	assert.Empty(t, result.ProviderFailures)
	assert.Equal(t, StateDone, p.State())

	// Output order equals fetch order.
	for i, r := range result.Records {
		assert.Equal(t, fmt.Sprintf("subject %d", i), r.Subject)
		assert.Contains(t, model.Categories(), r.Category)
	}
}

func TestPipeline_MalformedBatchFallsBackInIsolation(t *testing.T) {
	fetcher := &fakeFetcher{msgs: rawMessages(12)}
	ai := &fakeAI{failOn: map[int]error{
		1: &classify.ParseError{Reason: "expected 5 entries, got 4"},
	}}
	p := New(fetcher, ai, model.FetchConfig{WindowDays: 7, MaxCount: 30}, 5)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 12)
	require.Len(t, result.ProviderFailures, 1)

	// Batches 0 and 2 came from the AI path, batch 1 from the rules.
	for i, r := range result.Records {
		assert.Equal(t, fmt.Sprintf("subject %d", i), r.Subject, "order preserved across fallback")
		if i >= 5 && i < 10 {
			assert.NotEqual(t, "ai summary", r.Summary)
		} else {
			assert.Equal(t, "ai summary", r.Summary)
		}
		assert.NotEmpty(t, r.Summary)
		assert.NotEmpty(t, r.SuggestedAction)
	}
}

func TestPipeline_UnauthorizedDisablesAIPath(t *testing.T) {
	fetcher := &fakeFetcher{msgs: rawMessages(12)}
	ai := &fakeAI{failOn: map[int]error{
		0: &classify.UnauthorizedError{Err: fmt.Errorf("invalid api key")},
	}}
	p := New(fetcher, ai, model.FetchConfig{WindowDays: 7, MaxCount: 30}, 5)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Records, 12)

	assert.Len(t, ai.batchSizes, 1, "remaining batches must skip the AI call")
	assert.Len(t, result.ProviderFailures, 1, "only one provider error recorded")

	for _, r := range result.Records {
		assert.NotEmpty(t, r.Summary)
		assert.NotEmpty(t, r.SuggestedAction)
	}
}

func TestPipeline_MaxCountZeroSkipsProvider(t *testing.T) {
	fetcher := &fakeFetcher{msgs: rawMessages(12)}
	ai := &fakeAI{}
	p := New(fetcher, ai, model.FetchConfig{WindowDays: 7, MaxCount: 0}, 5)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Records)
	assert.Empty(t, ai.batchSizes, "classification provider must not be contacted")
}

func TestPipeline_FatalConnectionError(t *testing.T) {
	fetcher := &fakeFetcher{err: &mailbox.AuthError{
		Username: "you@example.com",
		Message:  "LOGIN failed",
	}}
	ai := &fakeAI{}
	p := New(fetcher, ai, model.FetchConfig{WindowDays: 7, MaxCount: 30}, 5)

	result, err := p.Run(context.Background())
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, mailbox.IsAuthError(err))
	assert.Equal(t, StateFailed, p.State())
	assert.Empty(t, ai.batchSizes)
}

func TestPipeline_DropsUnnormalizableMessages(t *testing.T) {
	msgs := rawMessages(3)
	msgs = append(msgs, mailbox.RawMessage{UID: 99}) // nothing decodable

	fetcher := &fakeFetcher{msgs: msgs}
	ai := &fakeAI{}
	p := New(fetcher, ai, model.FetchConfig{WindowDays: 7, MaxCount: 30}, 5)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Records, 3)
	assert.Equal(t, 1, result.Dropped)
}

func TestPipeline_SingleMessage(t *testing.T) {
	fetcher := &fakeFetcher{msgs: rawMessages(1)}
	ai := &fakeAI{}
	p := New(fetcher, ai, model.FetchConfig{WindowDays: 7, MaxCount: 30}, 5)

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ai.batchSizes)
	assert.Len(t, result.Records, 1)
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		size     int
		expected []int
	}{
		{"empty", 0, 5, nil},
		{"exact multiple", 10, 5, []int{5, 5}},
		{"remainder", 12, 5, []int{5, 5, 2}},
		{"single under size", 3, 5, []int{3}},
		{"size one", 3, 1, []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emails := make([]model.NormalizedEmail, tt.n)
			for i := range emails {
				emails[i].Subject = fmt.Sprintf("s%d", i)
			}

			batches := partition(emails, tt.size)

			var sizes []int
			var flattened []model.NormalizedEmail
			for _, b := range batches {
				sizes = append(sizes, len(b))
				flattened = append(flattened, b...)
			}
			assert.Equal(t, tt.expected, sizes)
			if tt.n == 0 {
				assert.Empty(t, flattened)
			} else {
				assert.Equal(t, emails, flattened, "concatenation reconstructs input order")
			}
		})
	}
}
