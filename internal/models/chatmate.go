package models

import (
	"time"

	"github.com/google/uuid"
)

// Language is the closed set of languages a chatmate can be created for.
// Mirrors the original implementation's language enum rather than the
// illustrative subset named in passing elsewhere.
type Language string

const (
	LanguageEn Language = "en"
	LanguageEs Language = "es"
	LanguageTr Language = "tr"
	LanguageFr Language = "fr"
	LanguageDe Language = "de"
	LanguageIt Language = "it"
	LanguagePt Language = "pt"
	LanguageJa Language = "ja"
)

var languageNames = map[Language]string{
	LanguageEn: "English",
	LanguageEs: "Spanish",
	LanguageTr: "Turkish",
	LanguageFr: "French",
	LanguageDe: "German",
	LanguageIt: "Italian",
	LanguagePt: "Portuguese",
	LanguageJa: "Japanese",
}

// ParseLanguage validates a raw language tag against the closed set.
func ParseLanguage(raw string) (Language, bool) {
	lang := Language(raw)
	_, ok := languageNames[lang]
	return lang, ok
}

// Name returns the English display name used to parameterize generation prompts.
func (l Language) Name() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return string(l)
}

// CefrLevel is a Common European Framework proficiency level.
type CefrLevel string

const (
	CefrA1 CefrLevel = "A1"
	CefrA2 CefrLevel = "A2"
	CefrB1 CefrLevel = "B1"
	CefrB2 CefrLevel = "B2"
	CefrC1 CefrLevel = "C1"
	CefrC2 CefrLevel = "C2"
)

// DefaultCefrLevel is used whenever a user has no recorded level for a language.
const DefaultCefrLevel = CefrA1

// Chatmate is a single user's learning conversation in one language.
// Created on handshake, never mutated, at most one per (user, language).
type Chatmate struct {
	ID        uuid.UUID `db:"id"`
	UserID    string    `db:"user_id"`
	Language  Language  `db:"language"`
	CreatedAt time.Time `db:"created_at"`
}
