package x

// DOM hooks of the X web client. They change without notice; keep them together.
const (
	// Login flow
	firstInputSelector    = `input`
	passwordInputSelector = `input[name="password"]`
	homeLandmarkSelector  = `[data-testid="AppTabBar_Home_Link"]`

	// Post page
	postTextSelector    = `[data-testid="tweetText"]`
	postArticleSelector = `article`

	// Repost list
	listOpenerSelector      = `a[role="link"], div[role="button"], span`
	repostButtonSelector    = `[data-testid="retweet"]`
	dialogSelector          = `[role="dialog"]`
	dialogContainerSelector = `[role="dialog"] [data-testid="sheetDialog"], [role="dialog"] div[aria-modal="true"]`

	// UserCellSelector matches one account record in the repost list
	UserCellSelector = `[data-testid="UserCell"]`

	// Inside a record
	profileLinkSelector  = `a[href]`
	displayNameSelector  = `div[dir="ltr"] span`
	bioSelector          = `div[dir="auto"][lang]`
	followButtonSelector = `[data-testid$="follow"], [data-testid$="unfollow"]`
)

// Labels of the control that opens the repost list, compared lower-cased
var listOpenerLabels = []string{"reposts", "리포스트", "재게시", "retweets"}

// Follow-button labels meaning the signed-in account already follows the record
var followingLabels = []string{"Following", "Unfollow", "팔로잉", "언팔로우"}

// First path segments that are site routes, never profile handles
var reservedRoutes = map[string]bool{
	"home":          true,
	"explore":       true,
	"search":        true,
	"notifications": true,
	"messages":      true,
	"settings":      true,
	"compose":       true,
	"hashtag":       true,
	"i":             true,
	"login":         true,
	"logout":        true,
	"tos":           true,
	"privacy":       true,
}
