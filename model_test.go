package gelbooru

import (
	"testing"
	"time"
)

func TestPostString(t *testing.T) {
	post := Post{FileURL: "https://img3.gelbooru.com/images/f2/27/f227.jpg"}
	if got := post.String(); got != post.FileURL {
		t.Fatalf("Post.String() = %q, want the file url %q", got, post.FileURL)
	}
}

func TestPostExtension(t *testing.T) {
	cases := []struct {
		file string
		want string
	}{
		{"f227a3cfbbbcf0b4.jpg", ".jpg"},
		{"animation.webm", ".webm"},
		{"noext", ""},
	}

	for _, tc := range cases {
		post := Post{FileName: tc.file}
		if got := post.Extension(); got != tc.want {
			t.Fatalf("Extension() of %q = %q, want %q", tc.file, got, tc.want)
		}
	}
}

func TestPostDimensions(t *testing.T) {
	post := Post{Width: 1920, Height: 1080}
	want := Dimensions{Width: 1920, Height: 1080}
	if got := post.Dimensions(); got != want {
		t.Fatalf("Dimensions() = %+v, want %+v", got, want)
	}
}

func TestTagString(t *testing.T) {
	tag := Tag{Name: "blue_sky"}
	if got := tag.String(); got != "blue_sky" {
		t.Fatalf("Tag.String() = %q, want %q", got, "blue_sky")
	}
}

func TestTagIsMeta(t *testing.T) {
	if !(Tag{Type: TagMetadata}).IsMeta() {
		t.Fatal("metadata tag not reported as meta")
	}
	if (Tag{Type: TagGeneral}).IsMeta() {
		t.Fatal("general tag reported as meta")
	}
}

func TestCommentString(t *testing.T) {
	comment := Comment{Author: "Anonymous", Content: "nice"}
	if got := comment.String(); got != "Anonymous: nice" {
		t.Fatalf("Comment.String() = %q, want %q", got, "Anonymous: nice")
	}
}

func TestPostConversion(t *testing.T) {
	wire := postJSON{
		ID:          7208903,
		CreatedAt:   "Wed Oct 12 02:25:55 -0500 2022",
		Width:       1920,
		Height:      1080,
		MD5:         "f227a3cfbbbcf0b4a1ab6cc5ef7b2fb2",
		Image:       "f227a3cfbbbcf0b4a1ab6cc5ef7b2fb2.jpg",
		Tags:        "1girl blue_sky cloud",
		HasNotes:    "false",
		HasComments: "true",
		Sample:      1,
		PostLocked:  0,
		HasChildren: "false",
	}

	post := wire.post()

	wantTime := time.Date(2022, 10, 12, 2, 25, 55, 0, time.FixedZone("", -5*60*60))
	if !post.CreatedAt.Equal(wantTime) {
		t.Fatalf("CreatedAt = %v, want %v", post.CreatedAt, wantTime)
	}
	if post.FileName != wire.Image {
		t.Fatalf("FileName = %q, want %q", post.FileName, wire.Image)
	}
	if len(post.Tags) != 3 || post.Tags[1] != "blue_sky" {
		t.Fatalf("Tags = %v, want the split tag list", post.Tags)
	}
	if post.HasNotes {
		t.Fatal("HasNotes should be false")
	}
	if !post.HasComments {
		t.Fatal("HasComments should be true")
	}
	if !post.Sample {
		t.Fatal("Sample should be true")
	}
	if post.PostLocked {
		t.Fatal("PostLocked should be false")
	}
}

func TestPostConversionBadTimestamp(t *testing.T) {
	post := postJSON{ID: 1, CreatedAt: "not a date"}.post()
	if !post.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt = %v, want the zero time", post.CreatedAt)
	}
}

func TestTagConversion(t *testing.T) {
	tag := tagJSON{ID: 12, Name: "sky", Count: 42, Type: 0, Ambiguous: 1}.tag()

	if tag.Type != TagGeneral {
		t.Fatalf("Type = %v, want %v", tag.Type, TagGeneral)
	}
	if !tag.Ambiguous {
		t.Fatal("Ambiguous should be true")
	}
}

func TestCommentConversion(t *testing.T) {
	wire := commentXML{
		ID:        9000,
		PostID:    7208903,
		Body:      "nice",
		Creator:   "Anonymous",
		CreatorID: "",
		CreatedAt: "2022-10-12 09:04",
	}

	comment := wire.comment()

	if comment.AuthorID != 0 {
		t.Fatalf("AuthorID = %d, want 0 for an empty creator_id", comment.AuthorID)
	}
	want := time.Date(2022, 10, 12, 9, 4, 0, 0, time.UTC)
	if !comment.CreatedAt.Equal(want) {
		t.Fatalf("CreatedAt = %v, want %v", comment.CreatedAt, want)
	}
}
