package facebook

import "threadscrape/internal/browser"

const DefaultLoginURL = "http://www.facebook.com"

// login flow
const (
	usernameInput    = browser.Locator("#email")
	passwordInput    = browser.Locator("#pass")
	loginButton      = browser.Locator("form[method=post] > div > button[name=login]")
	twoFactorInput   = browser.Locator("#approvals_code")
	checkpointSubmit = browser.Locator("#checkpointSubmitButton")
	twoFactorError   = browser.Locator("span[data-xui-error]")
	checkpointTitle  = browser.Locator("strong[id]")
	accountLandmark  = browser.Locator("html:nth-of-type(1) > body:nth-of-type(1) > div:nth-of-type(1) > div:nth-of-type(1) > div:nth-of-type(1) > div:nth-of-type(1) > div:nth-of-type(2) > div:nth-of-type(4) > div:nth-of-type(1) > div:nth-of-type(4) > a:nth-of-type(1) > div:nth-of-type(1) > div:nth-of-type(1) > :nth-of-type(1)")
)

const loginReviewTitle = "Review recent login"

// feed markup is obfuscated, only attributes and structure can be relied on.
const (
	postFormat = browser.LocatorFormat("div:nth-child(2) > div > div[role=main] > div > div:nth-child(%d)")

	// document level tooltip rendered while the time trigger is hovered
	timeTooltip   = browser.Locator("body > div > div > div[data-pagelet=root] > div > div:nth-child(6) > div > div > div:nth-child(2) > div > div > div > span[role=tooltip] > div > div > span")
	timeTrigger   = browser.Locator("div > div > div > div > div:nth-child(4) > div:nth-child(2) > div > div:nth-child(2) > div > div > div > div > div > div > div > div > div > div > div > div > div > div:nth-child(2) > div > div:nth-child(2) > div > div:nth-child(2) > div > div:nth-child(2) > span > span > span:nth-child(2)")
	postText      = browser.Locator("div > div > div > div > div:nth-child(4) > div:nth-child(2) > div > div:nth-child(2) > div > div > div > div > div > div > div > div > div > div > div > div > div > div:nth-child(2) > div > div:nth-child(3) > div")
	postLikes     = browser.Locator("div > div > div > div > div > div:nth-child(2) > div > div:nth-child(4) > div > div:nth-child(1) > div > div > div > div > div > div:nth-child(2) > span > div > span:nth-child(2)")
	shrunkMessage = browser.Locator(`div[role=article] > div > div > div > div > div > div:nth-child(2) > div > div:nth-child(3) > div[data-ad-preview=message] > div > div > span > div:last-child > div:last-child > div[tabindex="0"]`)
)
