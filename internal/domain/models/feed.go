package models

import (
	"strings"
	"time"
)

// FeedItem is a social post in feed.json
type FeedItem struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	UserAvatar string    `json:"userAvatar"`
	Content    string    `json:"content"`
	Images     []string  `json:"images"`
	Image      string    `json:"image,omitempty"` // first image, kept for older readers
	Timestamp  time.Time `json:"timestamp"`
	Likes      int       `json:"likes"`
	Comments   int       `json:"comments"`
	Shares     int       `json:"shares"`
	HasLiked   bool      `json:"hasLiked"`
	LikedBy    []string  `json:"likedBy,omitempty"`
}

// Normalize promotes the legacy single image into images and fills nil slices
func (f *FeedItem) Normalize() {
	if f.Images == nil {
		f.Images = []string{}
	}
	if len(f.Images) == 0 && f.Image != "" {
		f.Images = []string{f.Image}
	}
	f.SyncImage()
	f.LikedBy = dedupe(f.LikedBy)
}

// SyncImage keeps the legacy field pointing at the first image
func (f *FeedItem) SyncImage() {
	if len(f.Images) > 0 {
		f.Image = f.Images[0]
	} else {
		f.Image = ""
	}
}

// LikedByUser reports whether userID liked the post
func (f *FeedItem) LikedByUser(userID string) bool {
	for _, id := range f.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLike flips userID's like, adjusting the like count by one
func (f *FeedItem) ToggleLike(userID string) bool {
	if f.LikedByUser(userID) {
		f.LikedBy = remove(f.LikedBy, userID)
		if f.Likes > 0 {
			f.Likes--
		}
		return false
	}
	f.LikedBy = append(f.LikedBy, userID)
	f.Likes++
	return true
}

// ForViewer returns a copy with HasLiked computed for the viewer
func (f FeedItem) ForViewer(viewer string) FeedItem {
	f.Images = append([]string{}, f.Images...)
	f.LikedBy = append([]string{}, f.LikedBy...)
	f.HasLiked = viewer != "" && f.LikedByUser(viewer)
	return f
}

// AvatarFor is the uppercased first character of the user name
func AvatarFor(userName string) string {
	for _, r := range userName {
		return strings.ToUpper(string(r))
	}
	return "?"
}
