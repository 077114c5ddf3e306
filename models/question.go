package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question source types
const (
	SourceBoard       = "board"
	SourceAIGenerated = "ai"
	SourceInstitution = "institution"
)

// Curriculum levels and groups
const (
	LevelSSC = "ssc"
	LevelHSC = "hsc"

	GroupScience  = "science"
	GroupArts     = "arts"
	GroupCommerce = "commerce"
)

// BilingualText holds the same rich-text content in English and Bangla.
// Math is stored LaTeX-escaped inside the text.
type BilingualText struct {
	En string `json:"en" bson:"en"`
	Bn string `json:"bn" bson:"bn"`
}

// IsEmpty reports whether neither language carries content.
func (t BilingualText) IsEmpty() bool {
	return t.En == "" && t.Bn == ""
}

// QuestionStem is the shared stem of a creative question: bilingual text
// plus the ordered source images it was extracted from.
type QuestionStem struct {
	Text   BilingualText `json:"text" bson:"text"`
	Images []string      `json:"images,omitempty" bson:"images,omitempty"`
}

// QuestionPart is one of the four labeled sub-questions (a-d).
type QuestionPart struct {
	Question  BilingualText       `json:"question" bson:"question"`
	Answer    BilingualText       `json:"answer" bson:"answer"`
	Marks     int                 `json:"marks" bson:"marks"`
	ChapterID *primitive.ObjectID `json:"chapter_id,omitempty" bson:"chapter_id,omitempty"`
	TopicID   *primitive.ObjectID `json:"topic_id,omitempty" bson:"topic_id,omitempty"`
}

// QuestionParts groups the four parts under their canonical keys.
type QuestionParts struct {
	A QuestionPart `json:"a" bson:"a"`
	B QuestionPart `json:"b" bson:"b"`
	C QuestionPart `json:"c" bson:"c"`
	D QuestionPart `json:"d" bson:"d"`
}

// QuestionMeta carries the classification block of a question.
type QuestionMeta struct {
	Level         string              `json:"level" bson:"level"`
	Group         string              `json:"group" bson:"group"`
	SubjectID     primitive.ObjectID  `json:"subject_id" bson:"subject_id"`
	MainChapterID *primitive.ObjectID `json:"main_chapter_id,omitempty" bson:"main_chapter_id,omitempty"`
}

// QuestionSource records provenance. Board is set when Type is "board",
// ExamType when Type is "institution".
type QuestionSource struct {
	Type     string `json:"type" bson:"type"`
	Year     int    `json:"year,omitempty" bson:"year,omitempty"`
	Board    string `json:"board,omitempty" bson:"board,omitempty"`
	ExamType string `json:"exam_type,omitempty" bson:"exam_type,omitempty"`
}

// BilingualList holds free-form per-language string lists (aliases, tags).
type BilingualList struct {
	En []string `json:"en,omitempty" bson:"en,omitempty"`
	Bn []string `json:"bn,omitempty" bson:"bn,omitempty"`
}

// Question is a persisted multi-part creative (Srijonshil) exam question.
// Every persisted Question has exactly one Embedding record referencing it;
// the reconciliation sweep repairs any orphan left by a failed dual write.
type Question struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Stem      QuestionStem       `json:"stem" bson:"stem"`
	Parts     QuestionParts      `json:"parts" bson:"parts"`
	Meta      QuestionMeta       `json:"meta" bson:"meta"`
	Source    QuestionSource     `json:"source" bson:"source"`
	Aliases   BilingualList      `json:"aliases,omitempty" bson:"aliases,omitempty"`
	Tags      []string           `json:"tags,omitempty" bson:"tags,omitempty"`
	Version   int64              `json:"version" bson:"version"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// PartsSlice returns the four parts in a..d order.
func (p QuestionParts) PartsSlice() []QuestionPart {
	return []QuestionPart{p.A, p.B, p.C, p.D}
}
