package model

import "time"

// Post type constants. The compose form offers exactly these three.
const (
	PostTypeGeneral  = "general"
	PostTypeAcademic = "academic"
	PostTypeEvent    = "event"
)

// Post is a feed entry as returned by the UniChat API. The feed is
// ordered chronologically descending; likes are a set of user ids and
// comments an ordered sequence.
type Post struct {
	ID        string    `json:"_id"`
	Author    User      `json:"author"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	PostType  string    `json:"postType"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikedBy reports whether userID appears in the post's like set.
func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Comment is a single reply on a post.
type Comment struct {
	ID        string    `json:"_id"`
	User      User      `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
