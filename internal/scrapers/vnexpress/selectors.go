package vnexpress

import "threadscrape/internal/browser"

const (
	commentBox       = browser.Locator("div.box_comment_vne.width_common")
	commentContent   = browser.Locator("div.content-comment")
	loadMoreComments = browser.Locator(".view_more_coment")
	topLevelComment  = browser.Locator("div.comment_item.width_common:not(.sub_comment_item)")
	replyComment     = browser.Locator(".sub_comment_item.comment_item.width_common")
	loadMoreReplies  = browser.Locator("p.count-reply > a.view_all_reply")
	shrunkComment    = browser.Locator("div.content-comment > p.content_less > a.icon_show_full_comment")
	commentTime      = browser.Locator("span.time-com")
)

// markupVariant is the way a comment is rendered, long comments are cut
// short until their "show full comment" control is clicked, after which the
// user and the message live in different markup.
type markupVariant int

const (
	variantCollapsed markupVariant = iota
	variantExpanded
)

func (v markupVariant) String() string {
	if v == variantExpanded {
		return "expanded"
	}
	return "collapsed"
}

type commentLocators struct {
	user    browser.Locator
	message browser.Locator
}

func (v markupVariant) locators() commentLocators {
	switch v {
	case variantExpanded:
		return commentLocators{
			user:    ".content_more > .txt-name > .nickname > b",
			message: "div.content-comment > p.content_more",
		}
	default:
		return commentLocators{
			user:    "a.nickname > b",
			message: "div.content-comment > p.full_content",
		}
	}
}
