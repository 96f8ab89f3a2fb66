package models

import "time"

type Base struct {
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" bson:"updated_at" json:"updatedAt"`
}

func NewBase() Base {
	now := time.Now()
	return Base{
		CreatedAt: now,
		UpdatedAt: now,
	}
}
