package domain

import "time"

type User struct {
	ID               string     `gorm:"size:64;primaryKey" json:"id"`
	Login            string     `gorm:"size:64;uniqueIndex;not null" json:"login"`
	Email            string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash     string     `gorm:"size:128;not null" json:"-"`
	ConfirmationCode *string    `gorm:"size:64;index" json:"-"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"-"`
}

type Post struct {
	ID        string    `gorm:"size:64;primaryKey" json:"id"`
	AuthorID  string    `gorm:"size:64;index;not null" json:"author_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Comment struct {
	ID        string    `gorm:"size:64;primaryKey" json:"id"`
	PostID    string    `gorm:"size:64;index;not null" json:"post_id"`
	AuthorID  string    `gorm:"size:64;index;not null" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
