package gelbooru

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts used by the API: posts carry Ruby-style dates,
// comments a minute-resolution one.
const (
	postTimeLayout    = time.RubyDate
	commentTimeLayout = "2006-01-02 15:04"
)

// TagType is the numeric tag category code used by the API.
type TagType int

const (
	TagGeneral    TagType = 0
	TagArtist     TagType = 1
	TagCopyright  TagType = 3
	TagCharacter  TagType = 4
	TagMetadata   TagType = 5
	TagDeprecated TagType = 6
)

// Dimensions is the pixel size of a post's file.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type (
	// Post is a single media submission and its metadata.
	Post struct {
		ID            int       `json:"id"`
		CreatedAt     time.Time `json:"created_at"`
		Score         int       `json:"score"`
		Width         int       `json:"width"`
		Height        int       `json:"height"`
		MD5           string    `json:"md5"`
		Directory     string    `json:"directory"`
		FileName      string    `json:"image"`
		Rating        string    `json:"rating"`
		Source        string    `json:"source"`
		Change        int64     `json:"change"`
		Owner         string    `json:"owner"`
		CreatorID     int       `json:"creator_id"`
		ParentID      int       `json:"parent_id"`
		Sample        bool      `json:"sample"`
		PreviewHeight int       `json:"preview_height"`
		PreviewWidth  int       `json:"preview_width"`
		Tags          []string  `json:"tags"`
		Title         string    `json:"title"`
		HasNotes      bool      `json:"has_notes"`
		HasComments   bool      `json:"has_comments"`
		FileURL       string    `json:"file_url"`
		PreviewURL    string    `json:"preview_url"`
		SampleURL     string    `json:"sample_url"`
		SampleHeight  int       `json:"sample_height"`
		SampleWidth   int       `json:"sample_width"`
		Status        string    `json:"status"`
		PostLocked    bool      `json:"post_locked"`
		HasChildren   bool      `json:"has_children"`
	}

	// Tag is a searchable label attached to posts.
	Tag struct {
		ID        int     `json:"id"`
		Name      string  `json:"name"`
		Count     int     `json:"count"`
		Type      TagType `json:"type"`
		Ambiguous bool    `json:"ambiguous"`
	}

	// Comment is user-submitted text attached to a post.
	Comment struct {
		ID        int       `json:"id"`
		PostID    int       `json:"post_id"`
		Author    string    `json:"author"`
		AuthorID  int       `json:"author_id"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
	}
)

// Extension returns the extension of the post's file, including the dot.
func (p Post) Extension() string {
	return path.Ext(p.FileName)
}

// Dimensions returns the width and height of the post's file.
func (p Post) Dimensions() Dimensions {
	return Dimensions{Width: p.Width, Height: p.Height}
}

// String returns the post's file URL.
func (p Post) String() string {
	return p.FileURL
}

// IsMeta reports whether the tag is a metadata tag, like "sort:random".
func (t Tag) IsMeta() bool {
	return t.Type == TagMetadata
}

// String returns the tag's name.
func (t Tag) String() string {
	return t.Name
}

// String returns the comment as "author: content".
func (c Comment) String() string {
	return fmt.Sprintf("%s: %s", c.Author, c.Content)
}

// Wire shapes of the dapi responses. The API encodes booleans either as
// the strings "true"/"false" or as 0/1 integers depending on the field,
// tag lists as one space-separated string, and timestamps as strings; the
// conversions below map them onto the public types.
type (
	postResponse struct {
		Attributes responseAttributes `json:"@attributes"`
		Posts      []postJSON         `json:"post,omitempty"`
	}

	tagResponse struct {
		Attributes responseAttributes `json:"@attributes"`
		Tags       []tagJSON          `json:"tag,omitempty"`
	}

	responseAttributes struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
		Count  int `json:"count"`
	}

	postJSON struct {
		ID            int    `json:"id"`
		CreatedAt     string `json:"created_at"`
		Score         int    `json:"score"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		MD5           string `json:"md5"`
		Directory     string `json:"directory"`
		Image         string `json:"image"`
		Rating        string `json:"rating"`
		Source        string `json:"source"`
		Change        int64  `json:"change"`
		Owner         string `json:"owner"`
		CreatorID     int    `json:"creator_id"`
		ParentID      int    `json:"parent_id"`
		Sample        int    `json:"sample"`
		PreviewHeight int    `json:"preview_height"`
		PreviewWidth  int    `json:"preview_width"`
		Tags          string `json:"tags"`
		Title         string `json:"title"`
		HasNotes      string `json:"has_notes"`
		HasComments   string `json:"has_comments"`
		FileURL       string `json:"file_url"`
		PreviewURL    string `json:"preview_url"`
		SampleURL     string `json:"sample_url"`
		SampleHeight  int    `json:"sample_height"`
		SampleWidth   int    `json:"sample_width"`
		Status        string `json:"status"`
		PostLocked    int    `json:"post_locked"`
		HasChildren   string `json:"has_children"`
	}

	tagJSON struct {
		ID        int    `json:"id"`
		Name      string `json:"name"`
		Count     int    `json:"count"`
		Type      int    `json:"type"`
		Ambiguous int    `json:"ambiguous"`
	}

	commentsXML struct {
		Comments []commentXML `xml:"comment"`
	}

	commentXML struct {
		ID        int    `xml:"id,attr"`
		PostID    int    `xml:"post_id,attr"`
		Body      string `xml:"body,attr"`
		Creator   string `xml:"creator,attr"`
		CreatorID string `xml:"creator_id,attr"`
		CreatedAt string `xml:"created_at,attr"`
	}
)

func (p postJSON) post() Post {
	// Unparseable timestamps are left as the zero time.
	createdAt, _ := time.Parse(postTimeLayout, p.CreatedAt)

	return Post{
		ID:            p.ID,
		CreatedAt:     createdAt,
		Score:         p.Score,
		Width:         p.Width,
		Height:        p.Height,
		MD5:           p.MD5,
		Directory:     p.Directory,
		FileName:      p.Image,
		Rating:        p.Rating,
		Source:        p.Source,
		Change:        p.Change,
		Owner:         p.Owner,
		CreatorID:     p.CreatorID,
		ParentID:      p.ParentID,
		Sample:        p.Sample != 0,
		PreviewHeight: p.PreviewHeight,
		PreviewWidth:  p.PreviewWidth,
		Tags:          strings.Fields(p.Tags),
		Title:         p.Title,
		HasNotes:      p.HasNotes == "true",
		HasComments:   p.HasComments == "true",
		FileURL:       p.FileURL,
		PreviewURL:    p.PreviewURL,
		SampleURL:     p.SampleURL,
		SampleHeight:  p.SampleHeight,
		SampleWidth:   p.SampleWidth,
		Status:        p.Status,
		PostLocked:    p.PostLocked != 0,
		HasChildren:   p.HasChildren == "true",
	}
}

func (t tagJSON) tag() Tag {
	return Tag{
		ID:        t.ID,
		Name:      t.Name,
		Count:     t.Count,
		Type:      TagType(t.Type),
		Ambiguous: t.Ambiguous != 0,
	}
}

func (c commentXML) comment() Comment {
	createdAt, _ := time.Parse(commentTimeLayout, c.CreatedAt)

	// creator_id comes through as an empty attribute for anonymous
	// comments; those map to 0.
	authorID, _ := strconv.Atoi(c.CreatorID)

	return Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    c.Creator,
		AuthorID:  authorID,
		Content:   c.Body,
		CreatedAt: createdAt,
	}
}
