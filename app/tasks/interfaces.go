package tasks

import (
	"context"

	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/zulip"
)

// FeedSource yields the entries of a feed, newest first.
type FeedSource interface {
	Run(ctx context.Context, url string) (*feed.Metadata, []feed.Entry, error)
}

// MessageSender delivers one chat message. On rejection the server's
// response is returned together with the error.
type MessageSender interface {
	Send(ctx context.Context, msg zulip.Message) (*zulip.Response, error)
}

// SourceLoader reads the configured feed list.
type SourceLoader interface {
	Run() ([]feed.Source, error)
}

// TaskSchedulerInterface drives repeated runs in daemon mode.
// Example usage:
//
//	scheduler, err := NewScheduler("*/15 * * * *", sourceList, pipeline)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	LastReport() *RunReport
}
