package toolmentions

import "time"

// Category is the fixed taxonomy a canonical tool name maps into.
type Category string

const (
	CategoryOfficeSuite       Category = "office suite"
	CategoryCommunication     Category = "communication"
	CategorySocialMedia       Category = "social media"
	CategorySocialMediaMgmt   Category = "social media management"
	CategoryProjectManagement Category = "project management"
	CategoryCRM               Category = "crm"
	CategoryFinance           Category = "finance & accounting"
	CategoryDesign            Category = "design"
	CategoryVideoEditing      Category = "video editing"
	CategoryFormsSurveys      Category = "forms & surveys"
	CategoryCalendar          Category = "calendar & scheduling"
	CategoryDevelopment       Category = "development"
	CategoryFileStorage       Category = "file storage"
	CategoryAnalytics         Category = "analytics"
	CategoryEcommerce         Category = "e-commerce"
	CategoryHR                Category = "hr & recruiting"
	CategoryEmailMarketing    Category = "email marketing"
	CategoryOther             Category = "other"
)

// ToolStat is one row of the global tool table.
type ToolStat struct {
	Name              string    `json:"name"`
	Category          Category  `json:"category"`
	TotalMentions     int       `json:"total_mentions"`
	UserCount         int       `json:"user_count"`
	ConversationCount int       `json:"conversation_count"`
	Users             []string  `json:"users"`
	FirstSeen         time.Time `json:"first_seen"`
	LastSeen          time.Time `json:"last_seen"`
}

// CategoryGroup groups the global table by category.
type CategoryGroup struct {
	Category      Category   `json:"category"`
	ToolCount     int        `json:"tool_count"`
	TotalMentions int        `json:"total_mentions"`
	Tools         []ToolStat `json:"tools"`
}

// ConversationMentions is a per-conversation mention count inside a detail view.
type ConversationMentions struct {
	ConversationID string `json:"conversation_id"`
	Mentions       int    `json:"mentions"`
}

// UserMentions lists one user's mentions of a tool across their conversations.
type UserMentions struct {
	UserID        string                 `json:"user_id"`
	TotalMentions int                    `json:"total_mentions"`
	Conversations []ConversationMentions `json:"conversations"`
}

// ToolDetail is the drill-down view for a single named tool.
type ToolDetail struct {
	Name          string         `json:"name"`
	Category      Category       `json:"category"`
	TotalMentions int            `json:"total_mentions"`
	UserCount     int            `json:"user_count"`
	Users         []UserMentions `json:"users"`
}

// UserToolStat is one row of a single user's tool listing.
type UserToolStat struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Mentions int      `json:"mentions"`
}

// Stats summarizes one full aggregation run.
type Stats struct {
	ToolCount     int              `json:"tool_count"`
	CategoryCount int              `json:"category_count"`
	UserCount     int              `json:"user_count"`
	TotalMentions int              `json:"total_mentions"`
	ByCategory    map[Category]int `json:"by_category"`
	ScannedAt     time.Time        `json:"scanned_at"`
	DocumentsRead int              `json:"documents_read"`
}
