package services

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shikkha-content-platform/models"
)

func TestInputFromExtractedSetBanglaOriginal(t *testing.T) {
	set := ExtractedQuestionSet{
		Original:   QuestionGroup{Stem: "একটি উদ্দীপক", A: "ক", B: "খ", C: "গ", D: "ঘ"},
		Translated: QuestionGroup{Stem: "A stimulus", A: "a", B: "b", C: "c", D: "d"},
	}
	meta := models.QuestionMeta{Level: models.LevelHSC, Group: models.GroupScience, SubjectID: primitive.NewObjectID()}
	source := models.QuestionSource{Type: models.SourceBoard, Year: 2024, Board: "Dhaka"}

	input := InputFromExtractedSet(set, meta, source)

	if input.Stem.Text.Bn != "একটি উদ্দীপক" || input.Stem.Text.En != "A stimulus" {
		t.Errorf("bangla original must land in Bn slot: %+v", input.Stem.Text)
	}
	if input.Parts.A.Question.Bn != "ক" || input.Parts.A.Question.En != "a" {
		t.Errorf("part a mis-assigned: %+v", input.Parts.A.Question)
	}
	if input.Meta != meta || input.Source != source {
		t.Error("meta and source must pass through unchanged")
	}
}

func TestInputFromExtractedSetEnglishOriginal(t *testing.T) {
	set := ExtractedQuestionSet{
		Original:   QuestionGroup{Stem: "An English stimulus", A: "define x"},
		Translated: QuestionGroup{Stem: "একটি উদ্দীপক", A: "x সংজ্ঞায়িত কর"},
	}

	input := InputFromExtractedSet(set, models.QuestionMeta{}, models.QuestionSource{})

	if input.Stem.Text.En != "An English stimulus" {
		t.Errorf("english original must land in En slot: %+v", input.Stem.Text)
	}
	if input.Parts.A.Question.Bn != "x সংজ্ঞায়িত কর" {
		t.Errorf("translation must land in Bn slot: %+v", input.Parts.A.Question)
	}
}

func TestApplyExtractedAnswers(t *testing.T) {
	input := CreateQuestionInput{}
	answers := &ExtractedAnswers{
		English: AnswerSet{AAnswer: "answer a", DAnswer: "answer d"},
		Bangla:  AnswerSet{AAnswer: "উত্তর ক"},
	}

	ApplyExtractedAnswers(&input, answers)

	if input.Parts.A.Answer.En != "answer a" || input.Parts.A.Answer.Bn != "উত্তর ক" {
		t.Errorf("part a answer: %+v", input.Parts.A.Answer)
	}
	if input.Parts.D.Answer.En != "answer d" {
		t.Errorf("part d answer: %+v", input.Parts.D.Answer)
	}

	ApplyExtractedAnswers(&input, nil)
	if input.Parts.A.Answer.En != "answer a" {
		t.Error("nil answers must be a no-op")
	}
}
