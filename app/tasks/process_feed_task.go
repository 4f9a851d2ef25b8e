package tasks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/zulip"
)

// ErrFirstMessageFailed aborts a run whose very first send attempt failed,
// which almost always means bad credentials or an unreachable server.
var ErrFirstMessageFailed = errors.New("first message of the run failed")

const (
	DefaultMaxAge         = 30 * 24 * time.Hour
	DefaultBootstrapLimit = 3
)

type Settings struct {
	MaxAge         time.Duration
	BootstrapLimit int
	Topic          string
	SenderEmail    string
	KeyMode        database.KeyMode
	Now            func() time.Time
}

func (s Settings) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Pipeline bundles the collaborators every feed of a run goes through.
type Pipeline struct {
	Feeds     FeedSource
	Repo      database.SeenRepository
	Sender    MessageSender
	Sanitizer *feed.Sanitizer
	Settings  Settings
}

// Selection is the outcome of filtering one feed's entries against its seen-set.
type Selection struct {
	Entries        []feed.Entry
	StopReason     StopReason
	SkippedStale   int
	SkippedUndated int
	SkippedInvalid int
}

// SelectEntries walks entries newest first and picks the ones to announce.
// The walk stops at the first already seen entry, or once bootstrapLimit
// entries are picked for a feed that had no seen-set yet.
func SelectEntries(entries []feed.Entry, seen database.SeenSet, now time.Time, maxAge time.Duration, bootstrapLimit int) Selection {
	var sel Selection
	bootstrap := seen.Len() == 0

	for _, entry := range entries {
		if entry.ID == "" {
			sel.SkippedInvalid++
			continue
		}

		timestamp, ok := entry.Timestamp()
		if !ok {
			sel.SkippedUndated++
			continue
		}

		if now.Sub(timestamp) > maxAge {
			sel.SkippedStale++
			continue
		}

		if seen.Has(entry.Hash) {
			sel.StopReason = StopSeen
			break
		}

		if bootstrap && len(sel.Entries) >= bootstrapLimit {
			sel.StopReason = StopBootstrapCap
			break
		}

		sel.Entries = append(sel.Entries, entry)
	}

	return sel
}

type ProcessFeedTask struct {
	Task
	Source   feed.Source
	Result   FeedResult
	state    *RunState
	pipeline Pipeline
}

func NewProcessFeedTask(source feed.Source, state *RunState, pipeline Pipeline) *ProcessFeedTask {
	return &ProcessFeedTask{
		Task:     NewTask(TaskTypeProcessFeed, source.URL),
		Source:   source,
		state:    state,
		pipeline: pipeline,
		Result: FeedResult{
			URL:    source.URL,
			Name:   source.DisplayName(nil),
			Status: FeedStatusOK,
		},
	}
}

// Execute announces the feed's new entries and records them as seen.
// Problems confined to this feed are logged and reported in Result; only
// errors that must stop the whole run are returned.
func (t *ProcessFeedTask) Execute(ctx context.Context) error {
	logger := t.state.Logger.With("feed", t.Source.URL)
	settings := t.pipeline.Settings

	key, err := database.FeedKey(t.Source.URL, settings.KeyMode)
	if err != nil {
		logger.Error("Failed to derive state key, skipping feed", "error", err)
		t.fail(FeedStatusLoadFailed, err)
		return nil
	}

	seen, err := t.pipeline.Repo.Load(ctx, key)
	if err != nil {
		logger.Error("Failed to load seen entries, skipping feed", "key", key, "error", err)
		t.fail(FeedStatusLoadFailed, err)
		return nil
	}

	metadata, entries, err := t.pipeline.Feeds.Run(ctx, t.Source.URL)
	if err != nil {
		logger.Error("Failed to fetch feed", "error", err)
		t.fail(FeedStatusFetchFailed, err)
		entries = nil
	}

	t.Result.Name = t.Source.DisplayName(metadata)
	stream := cmp.Or(t.Source.Stream, t.Result.Name)

	sel := SelectEntries(entries, seen, settings.now(), settings.MaxAge, settings.BootstrapLimit)
	t.Result.StopReason = sel.StopReason
	t.Result.SkippedStale = sel.SkippedStale
	t.Result.SkippedUndated = sel.SkippedUndated
	t.Result.SkippedInvalid = sel.SkippedInvalid

	if sel.SkippedUndated > 0 {
		logger.Warn("Skipped entries without a timestamp", "count", sel.SkippedUndated)
	}
	if sel.SkippedInvalid > 0 {
		logger.Warn("Skipped entries without an id or link", "count", sel.SkippedInvalid)
	}

	newHashes := make([]string, 0, len(sel.Entries))
	for _, entry := range sel.Entries {
		if err := ctx.Err(); err != nil {
			return t.interrupt(ctx, key, newHashes, err)
		}

		resp, err := t.pipeline.Sender.Send(ctx, t.composeMessage(stream, entry))
		if err != nil {
			// A send cut short by cancellation was never delivered, so its
			// hash stays out of the seen-set.
			if ctxErr := ctx.Err(); ctxErr != nil {
				logger.Warn("Send interrupted, entry left unseen", "entry", entry.ID, "error", err)
				return t.interrupt(ctx, key, newHashes, ctxErr)
			}
			if !t.state.Attempted() {
				logger.Error("Failed to send first message of the run", "entry", entry.ID, "error", err, "response", resp)
				t.fail(FeedStatusAborted, err)
				t.state.MarkAttempted()
				return fmt.Errorf("%w: %w", ErrFirstMessageFailed, err)
			}
			logger.Error("Failed to send message", "entry", entry.ID, "error", err, "response", resp)
			t.Result.SendErrors++
		} else {
			t.Result.Sent++
		}

		t.state.MarkAttempted()
		newHashes = append(newHashes, entry.Hash)
	}

	if err := t.persist(ctx, key, newHashes); err != nil {
		return err
	}

	logger.Info("Feed processed",
		"name", t.Result.Name,
		"duration", t.GetDuration(),
		"total", len(entries),
		"sent", t.Result.Sent,
		"send_errors", t.Result.SendErrors,
		"stale", sel.SkippedStale,
		"stop_reason", string(sel.StopReason))

	return nil
}

// interrupt records the hashes already attempted and returns cause.
func (t *ProcessFeedTask) interrupt(ctx context.Context, key string, hashes []string, cause error) error {
	if err := t.persist(context.WithoutCancel(ctx), key, hashes); err != nil {
		return err
	}
	return cause
}

func (t *ProcessFeedTask) persist(ctx context.Context, key string, hashes []string) error {
	if err := t.pipeline.Repo.Append(ctx, key, hashes); err != nil {
		t.fail(FeedStatusAborted, err)
		return fmt.Errorf("failed to persist seen entries: %w", err)
	}
	return nil
}

func (t *ProcessFeedTask) fail(status FeedStatus, err error) {
	t.Result.Status = status
	t.Result.Error = err.Error()
}

func (t *ProcessFeedTask) composeMessage(stream string, entry feed.Entry) zulip.Message {
	sanitizer := t.pipeline.Sanitizer
	content := fmt.Sprintf("**[%s](%s)**\n%s\n%s", entry.Title, entry.Link, sanitizer.Run(entry.Summary), entry.Link)

	return zulip.Message{
		Sender:  t.pipeline.Settings.SenderEmail,
		Stream:  stream,
		Topic:   t.pipeline.Settings.Topic,
		Content: sanitizer.EscapeMath(content),
	}
}
