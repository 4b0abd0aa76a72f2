package models

import "time"

// List is a curated list as returned under itemContent.list
type List struct {
	ID              string    `json:"id"`
	GraphID         string    `json:"graph_id,omitempty"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Mode            string    `json:"mode,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	MemberCount     int64     `json:"member_count"`
	SubscriberCount int64     `json:"subscriber_count"`
	Following       bool      `json:"following"`
	IsMember        bool      `json:"is_member"`
	Muting          bool      `json:"muting"`
	Pinning         bool      `json:"pinning"`
	BannerURL       string    `json:"banner_url,omitempty"`
	Owner           *User     `json:"owner,omitempty"`
}

func NewList(obj map[string]any) (*List, bool) {
	id := str(obj, "id_str")
	if id == "" {
		return nil, false
	}
	l := &List{
		ID:              id,
		GraphID:         str(obj, "id"),
		Name:            str(obj, "name"),
		Description:     str(obj, "description"),
		Mode:            str(obj, "mode"),
		CreatedAt:       fromMillis(num(obj, "created_at")),
		MemberCount:     num(obj, "member_count"),
		SubscriberCount: num(obj, "subscriber_count"),
		Following:       boolean(obj, "following"),
		IsMember:        boolean(obj, "is_member"),
		Muting:          boolean(obj, "muting"),
		Pinning:         boolean(obj, "pinning"),
		BannerURL:       str(dig(obj, "custom_banner_media", "media_info"), "original_img_url"),
	}
	if l.BannerURL == "" {
		l.BannerURL = str(dig(obj, "default_banner_media", "media_info"), "original_img_url")
	}
	if owner, ok := NewUser(dig(obj, "user_results", "result")); ok {
		l.Owner = owner
	}
	return l, true
}
