package models

// FAQEntry is a curated question/answer pair shown in the FAQ menu.
// Priority orders the menu (lowest first).
//
// Active carries no column default: GORM omits zero-valued fields on insert,
// so a default of true would silently resurrect rows created inactive.
type FAQEntry struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	Question string `gorm:"size:256;not null"`
	Answer   string `gorm:"type:text;not null"`
	Priority int    `gorm:"default:100"`
	Active   bool   `gorm:"index"`
}

// KnowledgeChunk is one tagged section of the knowledge base fed into the
// AI system prompt.
type KnowledgeChunk struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	Category string `gorm:"size:64"`
	Content  string `gorm:"type:text;not null"`
	Active   bool   `gorm:"index"`
}
