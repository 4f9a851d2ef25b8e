package api

import (
	"github.com/lysyi3m/rss-relay/app/tasks"
)

type Handler struct {
	scheduler tasks.TaskSchedulerInterface
	version   string
}
