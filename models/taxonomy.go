package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NodeAliases are the alternate names of a taxonomy node: English, Bangla,
// and phonetic-Bangla ("Banglish") spellings.
type NodeAliases struct {
	En       []string `json:"en,omitempty" bson:"en,omitempty"`
	Bn       []string `json:"bn,omitempty" bson:"bn,omitempty"`
	Banglish []string `json:"banglish,omitempty" bson:"banglish,omitempty"`
}

// Subject is the root of the taxonomy (e.g. Physics 1st Paper, HSC science).
type Subject struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name    BilingualText      `json:"name" bson:"name"`
	Level   string             `json:"level" bson:"level"`
	Group   string             `json:"group" bson:"group"`
	Order   int                `json:"order" bson:"order"`
	Aliases NodeAliases        `json:"aliases,omitempty" bson:"aliases,omitempty"`
}

// Chapter belongs to a Subject and owns an ordered list of Topics.
type Chapter struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SubjectID primitive.ObjectID `json:"subject_id" bson:"subject_id"`
	Name      BilingualText      `json:"name" bson:"name"`
	Order     int                `json:"order" bson:"order"`
	Aliases   NodeAliases        `json:"aliases,omitempty" bson:"aliases,omitempty"`
}

// Topic is a leaf node. ChapterID must reference a Chapter whose SubjectID
// matches this Topic's SubjectID.
type Topic struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ChapterID primitive.ObjectID `json:"chapter_id" bson:"chapter_id"`
	SubjectID primitive.ObjectID `json:"subject_id" bson:"subject_id"`
	Name      BilingualText      `json:"name" bson:"name"`
	Order     int                `json:"order" bson:"order"`
	Aliases   NodeAliases        `json:"aliases,omitempty" bson:"aliases,omitempty"`
}
