// Package gelbooru is a small client for the Gelbooru image board API:
// post search, post lookup by id or md5 hash, tag search and comment
// listing, plus helpers for downloading a post's file.
package gelbooru

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// BaseURL is the fixed endpoint every request goes to.
const BaseURL = "https://gelbooru.com/index.php"

// PostsHardLimit is the most posts the API returns in a single request.
const PostsHardLimit = 1000

var (
	// ErrInvalidQuery wraps every invalid-argument error. These are
	// raised before any network call is made.
	ErrInvalidQuery = errors.New("gelbooru: invalid query")

	// ErrLimitExceeded is returned when a post search asks for more
	// than PostsHardLimit posts.
	ErrLimitExceeded = fmt.Errorf("gelbooru: at most %d posts per request", PostsHardLimit)

	// ErrNotFound is returned when a single-entity lookup matches
	// nothing.
	ErrNotFound = errors.New("gelbooru: not found")

	// ErrNotOK is returned when Gelbooru answers with a non-200 code.
	ErrNotOK = errors.New("gelbooru: non-200 status code")
)

// Client talks to the Gelbooru API. It is safe for concurrent use; every
// operation issues exactly one GET request.
type Client struct {
	http    *resty.Client
	baseURL string
	apiKey  string
	userID  int
	log     *logrus.Logger
}

// Options configures a Client. The zero value means anonymous access
// against the public endpoint.
type Options struct {
	// APIKey and UserID authenticate requests. Set both or neither;
	// anonymous access works but is rate limited more strictly.
	APIKey string
	UserID int

	// BaseURL overrides the endpoint, mainly for tests.
	BaseURL string

	// Logger receives response debug output. Defaults to the logrus
	// standard logger.
	Logger *logrus.Logger
}

// New creates a Client.
func New(options ...Options) (*Client, error) {
	var opts Options
	if len(options) > 0 {
		opts = options[0]
	}

	if (opts.APIKey != "") != (opts.UserID != 0) {
		return nil, fmt.Errorf("%w: api key and user id must be given together", ErrInvalidQuery)
	}

	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &Client{
		http:    resty.New(),
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		userID:  opts.UserID,
		log:     opts.Logger,
	}, nil
}

// Close releases the idle connections held by the underlying transport.
// It is idempotent; the client stays usable afterwards at the price of
// fresh connections.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

func (c *Client) request(ctx context.Context, s string) *resty.Request {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("page", "dapi").
		SetQueryParam("s", s).
		SetQueryParam("q", "index").
		SetQueryParam("json", "1")

	if c.apiKey != "" {
		req.SetQueryParam("api_key", c.apiKey)
		req.SetQueryParam("user_id", strconv.Itoa(c.userID))
	}

	return req
}

func (c *Client) do(req *resty.Request, action string) (*resty.Response, error) {
	resp, err := req.Get(c.baseURL)
	if err != nil {
		return nil, err
	}

	c.logResponse(resp, action)

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrNotOK, resp.StatusCode())
	}

	return resp, nil
}

func (c *Client) logResponse(resp *resty.Response, action string) {
	c.log.WithFields(logrus.Fields{
		"action": action,
		"code":   resp.StatusCode(),
	}).Debugf("response: %s", resp.Body())
}

// SearchOptions are the optional parameters of SearchPosts.
type SearchOptions struct {
	// ExcludeTags are tags the returned posts must not have.
	ExcludeTags []string

	// Limit caps the number of returned posts. It defaults to 1 to
	// keep accidental bulk fetches cheap; the API accepts up to
	// PostsHardLimit.
	Limit int

	// Page is the zero-based result page with respect to Limit.
	Page int

	// Random asks the server to shuffle the results.
	Random bool
}

// SearchPosts returns the posts matching the given tags, newest first
// unless Random is set. A search matching nothing returns an empty slice.
func (c *Client) SearchPosts(ctx context.Context, tags []string, options ...SearchOptions) ([]Post, error) {
	var opts SearchOptions
	if len(options) > 0 {
		opts = options[0]
	}

	if opts.Limit > PostsHardLimit {
		return nil, ErrLimitExceeded
	}
	if opts.Limit <= 0 {
		opts.Limit = 1
	}

	if opts.Random {
		tags = append(append([]string{}, tags...), "sort:random")
	}

	req := c.request(ctx, "post").
		SetQueryParam("tags", FormatTags(tags, opts.ExcludeTags)).
		SetQueryParam("limit", strconv.Itoa(opts.Limit))

	if opts.Page > 0 {
		req.SetQueryParam("pid", strconv.Itoa(opts.Page))
	}

	resp, err := c.do(req, "searchPosts")
	if err != nil {
		return nil, err
	}

	var body postResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, err
	}

	return lo.Map(body.Posts, func(p postJSON, _ int) Post {
		return p.post()
	}), nil
}

// GetPost fetches a single post by its id or its md5 hash. Exactly one of
// postID and md5 must be set. The result holds zero or one post; an md5
// hit whose hash differs from the requested one counts as no match.
func (c *Client) GetPost(ctx context.Context, postID int, md5 string) ([]Post, error) {
	if (postID != 0) == (md5 != "") {
		return nil, fmt.Errorf("%w: exactly one of post id and md5 must be given", ErrInvalidQuery)
	}

	req := c.request(ctx, "post")
	if md5 != "" {
		// There is no md5 parameter; the md5: meta tag is the way
		// to look a hash up.
		req.SetQueryParam("tags", "md5:"+md5)
	} else {
		req.SetQueryParam("id", strconv.Itoa(postID))
	}

	resp, err := c.do(req, "getPost")
	if err != nil {
		return nil, err
	}

	var body postResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, err
	}

	posts := lo.Map(body.Posts, func(p postJSON, _ int) Post {
		return p.post()
	})

	if md5 != "" && len(posts) > 0 && posts[0].MD5 != md5 {
		return []Post{}, nil
	}

	return posts, nil
}

// PostComments returns the comments on the given post in the order the
// API returns them. A post without comments returns an empty slice.
func (c *Client) PostComments(ctx context.Context, post Post) ([]Comment, error) {
	req := c.request(ctx, "comment").
		SetHeader("Accept", "application/xml").
		SetQueryParam("post_id", strconv.Itoa(post.ID))

	// The comment endpoint only speaks XML.
	req.QueryParam.Del("json")

	resp, err := c.do(req, "postComments")
	if err != nil {
		return nil, err
	}

	var body commentsXML
	if err := xml.Unmarshal(resp.Body(), &body); err != nil {
		return nil, err
	}

	return lo.Map(body.Comments, func(cm commentXML, _ int) Comment {
		return cm.comment()
	}), nil
}

// TagSearchOptions are the optional parameters of SearchTags.
type TagSearchOptions struct {
	// Limit caps the number of returned tags. It defaults to 1.
	Limit int

	// NamePattern is a wildcard search: _ matches a single character
	// and % any number of them. Exclusive with the names argument and
	// with AfterID.
	NamePattern string

	// AfterID restricts results to tags with an id above it.
	AfterID int

	// Order is "asc" or "desc".
	Order string

	// OrderBy sorts by "date", "count" or "name".
	OrderBy string
}

// SearchTags returns the tags matching the given names or, via options,
// a name pattern. Names are normalized like search tags.
func (c *Client) SearchTags(ctx context.Context, names []string, options ...TagSearchOptions) ([]Tag, error) {
	var opts TagSearchOptions
	if len(options) > 0 {
		opts = options[0]
	}
	opts.Order = strings.ToLower(opts.Order)

	if len(names) > 0 && opts.NamePattern != "" {
		return nil, fmt.Errorf("%w: names and name pattern are exclusive", ErrInvalidQuery)
	}
	if opts.NamePattern != "" && opts.AfterID != 0 {
		// The API itself rejects this combination.
		return nil, fmt.Errorf("%w: name pattern and after id are exclusive", ErrInvalidQuery)
	}
	if opts.Order != "" && opts.Order != "asc" && opts.Order != "desc" {
		return nil, fmt.Errorf("%w: order must be asc or desc, got %q", ErrInvalidQuery, opts.Order)
	}
	if opts.OrderBy != "" && !lo.Contains([]string{"date", "count", "name"}, opts.OrderBy) {
		return nil, fmt.Errorf("%w: order by must be date, count or name, got %q", ErrInvalidQuery, opts.OrderBy)
	}

	if opts.Limit <= 0 {
		opts.Limit = 1
	}

	req := c.request(ctx, "tag").
		SetQueryParam("limit", strconv.Itoa(opts.Limit))

	if len(names) > 0 {
		req.SetQueryParam("names", FormatTags(names, nil))
	}
	if opts.NamePattern != "" {
		req.SetQueryParam("name_pattern", opts.NamePattern)
	}
	if opts.AfterID != 0 {
		req.SetQueryParam("after_id", strconv.Itoa(opts.AfterID))
	}
	if opts.OrderBy != "" {
		req.SetQueryParam("orderby", opts.OrderBy)
	}
	if opts.Order != "" {
		req.SetQueryParam("order", opts.Order)
	}

	resp, err := c.do(req, "searchTags")
	if err != nil {
		return nil, err
	}

	var body tagResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, err
	}

	return lo.Map(body.Tags, func(t tagJSON, _ int) Tag {
		return t.tag()
	}), nil
}

// GetTag fetches a single tag by its name or its id. Exactly one of name
// and tagID must be set. ErrNotFound is returned when nothing matches.
func (c *Client) GetTag(ctx context.Context, name string, tagID int) (Tag, error) {
	if (name != "") == (tagID != 0) {
		return Tag{}, fmt.Errorf("%w: exactly one of tag name and tag id must be given", ErrInvalidQuery)
	}

	req := c.request(ctx, "tag")
	if name != "" {
		req.SetQueryParam("name", normalizeTag(name))
	} else {
		req.SetQueryParam("id", strconv.Itoa(tagID))
	}

	resp, err := c.do(req, "getTag")
	if err != nil {
		return Tag{}, err
	}

	var body tagResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return Tag{}, err
	}

	if len(body.Tags) == 0 {
		return Tag{}, ErrNotFound
	}

	return body.Tags[0].tag(), nil
}
