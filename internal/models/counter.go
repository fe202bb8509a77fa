package models

// Counter backs sequence allocation on databases without native sequences.
type Counter struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null;default:0"`
}

// TableName keeps counters next to the records they number.
func (Counter) TableName() string {
	return "craftid_counters"
}
