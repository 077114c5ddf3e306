package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyllabusChunk is a chunk of syllabus/textbook content ingested for a
// subject. Chunks are embedded with ref_kind "subject_chunk" so semantic
// search spans both questions and curriculum text.
type SyllabusChunk struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	SubjectID primitive.ObjectID  `json:"subject_id" bson:"subject_id"`
	ChapterID *primitive.ObjectID `json:"chapter_id,omitempty" bson:"chapter_id,omitempty"`
	ChunkID   string              `json:"chunk_id" bson:"chunk_id"`
	Order     int                 `json:"order" bson:"order"`
	Text      string              `json:"text" bson:"text"`
	Source    string              `json:"source,omitempty" bson:"source,omitempty"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
}
