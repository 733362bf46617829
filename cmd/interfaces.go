package cmd

import (
	"context"
)

// PollService is what run needs from the poller.
type PollService interface {
	Start(ctx context.Context) error
}
