package slack

import (
	"github.com/rakannimer/talk/internal/domain"
	"github.com/rakannimer/talk/internal/events"
)

// Matches decides whether a channel's trigger configuration subscribes it to
// the given event. First true wins:
//
//  1. allComments matches everything.
//  2. featuredComments matches featured-comment events.
//  3. reportedComments matches comments entering the reported queue.
//  4. pendingComments matches comments entering the pending queue.
//
// A channel with every flag off never matches.
func Matches(triggers domain.SlackTriggers, ev events.Event) bool {
	if triggers.AllComments {
		return true
	}

	switch ev.Kind {
	case events.KindCommentFeatured:
		return triggers.FeaturedComments

	case events.KindCommentEnteredModerationQueue:
		queue, ok := ev.Queue()
		if !ok {
			return false
		}
		switch queue {
		case domain.QueueReported:
			return triggers.ReportedComments
		case domain.QueuePending:
			return triggers.PendingComments
		}
	}

	return false
}
