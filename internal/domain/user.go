package domain

import "time"

// User 是本地账号。
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session 是登录/刷新后返回给客户端的令牌对。
type Session struct {
	User         User      `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// License 是激活后的授权信息。
type License struct {
	Key         string    `json:"key"`
	Valid       bool      `json:"valid"`
	ActivatedAt time.Time `json:"activatedAt,omitempty"`
}
