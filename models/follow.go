package models

// Follow is a directed edge meaning "User follows Author". The composite
// unique index rules out duplicate edges; self-follows are rejected in
// the handler before a row is ever written.
type Follow struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"index;uniqueIndex:idx_follow_user_author;not null" json:"user_id"`
	AuthorID uint `gorm:"uniqueIndex:idx_follow_user_author;not null" json:"author_id"`
	User     User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Author   User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;" json:"-"`
}
