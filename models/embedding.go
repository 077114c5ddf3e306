package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Embedding reference kinds.
const (
	RefKindQuestion     = "question"
	RefKindTopic        = "topic"
	RefKindSubjectChunk = "subject_chunk"
)

// Embedding is a fixed-dimensionality vector owned by exactly one parent
// entity (question, topic or syllabus chunk). It is never authoritative on
// its own; a unique index on (ref_kind, ref_id) enforces one vector per
// owner.
type Embedding struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RefID     primitive.ObjectID `json:"ref_id" bson:"ref_id"`
	RefKind   string             `json:"ref_kind" bson:"ref_kind"`
	Vector    []float32          `json:"vector" bson:"vector"`
	Dim       int                `json:"dim" bson:"dim"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
