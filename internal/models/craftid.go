package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// PublicIDPrefix prefixes every formatted public identifier.
const PublicIDPrefix = "CID-"

// Artisan describes the maker submitting an onboarding request.
type Artisan struct {
	Name          string `json:"name" validate:"notblank,max=255"`
	Location      string `json:"location"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email" validate:"required,email"`
	AadhaarNumber string `json:"aadhaar_number"`
}

// Art describes the product being registered. Photo is an opaque encoded image.
type Art struct {
	Name        string `json:"name" validate:"notblank,max=255"`
	Description string `json:"description"`
	Photo       string `json:"photo"`
}

// OnboardingData is the caller supplied payload for issuing a CraftID.
type OnboardingData struct {
	Artisan Artisan `json:"artisan"`
	Art     Art     `json:"art"`
}

// CraftID is the persisted identity record. Records are written once and never mutated.
type CraftID struct {
	ID                     uint64                             `gorm:"primaryKey;autoIncrement" json:"-"`
	PublicID               string                             `gorm:"size:32;not null;uniqueIndex:idx_craftids_public_id" json:"public_id"`
	PrivateKey             string                             `gorm:"type:text;not null" json:"private_key"`
	PublicHash             string                             `gorm:"size:64;not null;index:idx_craftids_public_hash" json:"public_hash"`
	ArtName                string                             `gorm:"size:255;not null" json:"art_name"`
	ArtNameNorm            string                             `gorm:"size:255;not null;uniqueIndex:idx_craftids_art_name_norm" json:"art_name_norm"`
	OriginalOnboardingData datatypes.JSONType[OnboardingData] `gorm:"not null" json:"original_onboarding_data"`
	CreatedAt              time.Time                          `gorm:"not null;index:idx_craftids_created_at" json:"timestamp"`
}

// TableName pins the table name used by both the DDL bootstrap and queries.
func (CraftID) TableName() string {
	return "craftids"
}

// Onboarding returns the verbatim onboarding payload stored with the record.
func (c *CraftID) Onboarding() OnboardingData {
	if c == nil {
		return OnboardingData{}
	}
	return c.OriginalOnboardingData.Data()
}

// NormalizeArtName produces the uniqueness key for an art name.
func NormalizeArtName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FormatPublicID renders a sequence value as CID-NNNNN. Values above 99999 grow
// in width rather than wrapping.
func FormatPublicID(seq int64) string {
	return fmt.Sprintf("%s%05d", PublicIDPrefix, seq)
}
