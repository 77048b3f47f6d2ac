package models

import "time"

// User mirrors a registered user into the relational store.
type User struct {
	ID           string    `gorm:"column:user_id;primaryKey;type:varchar(50)"`
	Name         string    `gorm:"column:name;type:varchar(100);not null"`
	Email        string    `gorm:"column:email;type:varchar(255)"`
	Role         string    `gorm:"column:role;type:varchar(20);default:'student'"`
	LocationCode string    `gorm:"column:location_code;type:varchar(10);index"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`

	// Relationships
	Reservations []Reservation `gorm:"foreignKey:UserID"`
}
