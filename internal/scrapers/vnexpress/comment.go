package vnexpress

import (
	"fmt"
	"strings"
	"threadscrape/internal/scrape"
)

// Comment is a comment of an article along with its replies.
type Comment struct {
	User      string    `json:"user"`
	Message   string    `json:"message"`
	Timestamp string    `json:"timestamp"`
	Replies   []Comment `json:"replies"`
}

// Size returns the number of comments in the tree rooted at c.
func (c Comment) Size() int {
	size := 1
	for _, reply := range c.Replies {
		size += reply.Size()
	}
	return size
}

type CommentBuilder struct {
	user, message, timestamp          string
	hasUser, hasMessage, hasTimestamp bool
	replies                           []Comment
}

func (b *CommentBuilder) SetUser(user string) *CommentBuilder {
	b.user = user
	b.hasUser = true
	return b
}

func (b *CommentBuilder) SetMessage(message string) *CommentBuilder {
	b.message = message
	b.hasMessage = true
	return b
}

func (b *CommentBuilder) SetTimestamp(timestamp string) *CommentBuilder {
	b.timestamp = timestamp
	b.hasTimestamp = true
	return b
}

func (b *CommentBuilder) AddReply(reply Comment) *CommentBuilder {
	b.replies = append(b.replies, reply)
	return b
}

// Build fails with scrape.ErrInvalidRecord when a field was never set,
// empty values are fine.
func (b *CommentBuilder) Build() (Comment, error) {
	var missing []string
	if !b.hasUser {
		missing = append(missing, "user")
	}
	if !b.hasMessage {
		missing = append(missing, "message")
	}
	if !b.hasTimestamp {
		missing = append(missing, "timestamp")
	}
	if len(missing) > 0 {
		return Comment{}, fmt.Errorf("%w: comment is missing %s", scrape.ErrInvalidRecord, strings.Join(missing, ", "))
	}

	replies := make([]Comment, len(b.replies))
	copy(replies, b.replies)
	return Comment{
		User:      b.user,
		Message:   b.message,
		Timestamp: b.timestamp,
		Replies:   replies,
	}, nil
}
