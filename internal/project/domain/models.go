package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Project is a restoration job a document can be raised against.
type Project struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	OrgID             snowflake.ID `gorm:"column:org_id;not null;index"`
	Name              string       `gorm:"type:text;not null"`
	ClientName        string       `gorm:"column:client_name;type:text"`
	ClientEmail       string       `gorm:"column:client_email;type:text"`
	ClientPhoneNumber string       `gorm:"column:client_phone_number;type:text"`
	Location          string       `gorm:"type:text"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Project) TableName() string { return "projects" }
